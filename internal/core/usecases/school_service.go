package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
	"github.com/samirrijal/schoolfinder/internal/core/ports"
	"github.com/samirrijal/schoolfinder/internal/pkg/metrics"
)

const (
	// ListAllCacheKey holds the JSON-encoded full school list.
	ListAllCacheKey = "schools:all"
	// MaxListAllRetries bounds retries of a transient list failure.
	MaxListAllRetries = 2

	defaultCacheTTL = 60
)

var tracer = otel.Tracer("github.com/samirrijal/schoolfinder/internal/core/usecases")

// SchoolService handles school-related business logic: validation happens
// here, storage is delegated to the repository, and listing results are
// ranked by distance.
type SchoolService struct {
	schools    ports.SchoolRepository
	cache      ports.CacheService
	events     ports.EventPublisher
	validator  *Validator
	cacheTTL   int
	newBackOff func() backoff.BackOff

	// writes counts completed writes. A list read only fills the cache if
	// no write finished while it was reading.
	cacheMu sync.Mutex
	writes  uint64
}

// Option configures a SchoolService.
type Option func(*SchoolService)

// WithCacheTTL sets how long the full school list is cached, in seconds.
func WithCacheTTL(seconds int) Option {
	return func(s *SchoolService) {
		if seconds > 0 {
			s.cacheTTL = seconds
		}
	}
}

// WithBackOff overrides the retry policy used for reads.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(s *SchoolService) { s.newBackOff = fn }
}

// NewSchoolService creates a new SchoolService. cache and events may be nil.
func NewSchoolService(schools ports.SchoolRepository, cache ports.CacheService, events ports.EventPublisher, opts ...Option) *SchoolService {
	s := &SchoolService{
		schools:   schools,
		cache:     cache,
		events:    events,
		validator: NewValidator(),
		cacheTTL:  defaultCacheTTL,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxElapsedTime = 2 * time.Second
			return b
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Validator returns the validator used by the service.
func (s *SchoolService) Validator() *Validator {
	return s.validator
}

// Add validates a JSON object and stores it, returning the new id.
func (s *SchoolService) Add(ctx context.Context, body []byte) (int64, error) {
	ctx, span := tracer.Start(ctx, "SchoolService.Add")
	defer span.End()

	in, err := s.validator.Validate(body)
	if err != nil {
		metrics.ValidationFailures.WithLabelValues("add").Inc()
		return 0, endSpan(span, err)
	}
	return s.insertOne(ctx, span, in)
}

// AddInput validates a typed record and stores it, returning the new id.
func (s *SchoolService) AddInput(ctx context.Context, in domain.SchoolInput) (int64, error) {
	ctx, span := tracer.Start(ctx, "SchoolService.AddInput")
	defer span.End()

	if err := s.validator.ValidateInput(in); err != nil {
		metrics.ValidationFailures.WithLabelValues("add").Inc()
		return 0, endSpan(span, err)
	}
	return s.insertOne(ctx, span, in)
}

func (s *SchoolService) insertOne(ctx context.Context, span trace.Span, in domain.SchoolInput) (int64, error) {
	id, err := s.schools.InsertOne(ctx, in)
	if err != nil {
		return 0, endSpan(span, err)
	}
	span.SetAttributes(attribute.Int64("school.id", id))
	metrics.SchoolsCreated.Add(1)

	s.invalidate(ctx)
	s.publish(ctx, &domain.SchoolEvent{
		Type: domain.EventSchoolCreated,
		School: &domain.School{
			ID:        id,
			Name:      in.Name,
			Address:   in.Address,
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
		},
	})
	return id, nil
}

// AddBatch validates a JSON array of school objects and stores all of them in
// one statement. If any element is invalid nothing is stored and the error of
// the first invalid element is returned.
func (s *SchoolService) AddBatch(ctx context.Context, body []byte) (int, error) {
	ctx, span := tracer.Start(ctx, "SchoolService.AddBatch")
	defer span.End()

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil || items == nil {
		return 0, endSpan(span, &domain.MalformedRequestError{Message: "Expected an array of schools"})
	}
	if len(items) == 0 {
		return 0, endSpan(span, &domain.MalformedRequestError{Message: "Expected a non-empty array of schools"})
	}

	inputs := make([]domain.SchoolInput, 0, len(items))
	for i, item := range items {
		in, err := s.validator.Validate(item)
		if err != nil {
			metrics.ValidationFailures.WithLabelValues("batch_add").Inc()
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				idx := i
				verr.Index = &idx
			}
			return 0, endSpan(span, err)
		}
		inputs = append(inputs, in)
	}

	return s.insertMany(ctx, span, inputs)
}

// AddInputs validates typed records and stores them in one statement.
func (s *SchoolService) AddInputs(ctx context.Context, inputs []domain.SchoolInput) (int, error) {
	ctx, span := tracer.Start(ctx, "SchoolService.AddInputs")
	defer span.End()

	if len(inputs) == 0 {
		return 0, endSpan(span, &domain.MalformedRequestError{Message: "Expected a non-empty array of schools"})
	}
	for i, in := range inputs {
		if err := s.validator.ValidateInput(in); err != nil {
			metrics.ValidationFailures.WithLabelValues("batch_add").Inc()
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				idx := i
				verr.Index = &idx
			}
			return 0, endSpan(span, err)
		}
	}
	return s.insertMany(ctx, span, inputs)
}

func (s *SchoolService) insertMany(ctx context.Context, span trace.Span, inputs []domain.SchoolInput) (int, error) {
	span.SetAttributes(attribute.Int("batch.size", len(inputs)))
	if err := s.schools.InsertMany(ctx, inputs); err != nil {
		return 0, endSpan(span, err)
	}
	metrics.SchoolsCreated.Add(float64(len(inputs)))

	s.invalidate(ctx)
	s.publish(ctx, &domain.SchoolEvent{Type: domain.EventSchoolsBatchCreated, Count: len(inputs)})
	return len(inputs), nil
}

// DeleteAll removes every school.
func (s *SchoolService) DeleteAll(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "SchoolService.DeleteAll")
	defer span.End()

	if err := s.schools.DeleteAll(ctx); err != nil {
		return endSpan(span, err)
	}
	metrics.SchoolsPurged.Inc()

	s.invalidate(ctx)
	s.publish(ctx, &domain.SchoolEvent{Type: domain.EventSchoolsPurged})
	return nil
}

// ListByProximity returns every school, nearest to origin first.
func (s *SchoolService) ListByProximity(ctx context.Context, origin domain.GeoPoint) ([]domain.RankedSchool, error) {
	ctx, span := tracer.Start(ctx, "SchoolService.ListByProximity")
	defer span.End()

	schools, err := s.listAll(ctx)
	if err != nil {
		return nil, endSpan(span, err)
	}
	span.SetAttributes(attribute.Int("schools.count", len(schools)))
	return Rank(schools, origin), nil
}

// listAll reads the full table, trying the cache first. Transient store
// failures are retried since the read is idempotent.
func (s *SchoolService) listAll(ctx context.Context) ([]domain.School, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, ListAllCacheKey); err == nil {
			var schools []domain.School
			if err := json.Unmarshal(data, &schools); err == nil {
				metrics.CacheHits.WithLabelValues("list_all").Inc()
				return schools, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("list_all").Inc()
	}

	gen := s.writeGeneration()

	var schools []domain.School
	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 {
			metrics.StoreRetries.WithLabelValues("list_all").Inc()
		}
		var err error
		schools, err = s.schools.ListAll(ctx)
		if err == nil {
			return nil
		}
		var perr *domain.PersistenceError
		if errors.As(err, &perr) && perr.Retryable {
			return err
		}
		return backoff.Permanent(err)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), MaxListAllRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}

	s.fill(ctx, gen, schools)
	return schools, nil
}

func (s *SchoolService) writeGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.writes
}

// fill caches schools unless a write completed after gen was taken.
func (s *SchoolService) fill(ctx context.Context, gen uint64, schools []domain.School) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(schools)
	if err != nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.writes != gen {
		metrics.CacheFillsSkipped.Inc()
		return
	}
	_ = s.cache.Set(ctx, ListAllCacheKey, data, s.cacheTTL)
}

// invalidate runs after a write has been committed.
func (s *SchoolService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.writes++
	if err := s.cache.Delete(ctx, ListAllCacheKey); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed", "key", ListAllCacheKey, "error", err)
	}
}

func (s *SchoolService) publish(ctx context.Context, event *domain.SchoolEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSchoolEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish school event failed", "type", event.Type, "error", err)
	}
}

func endSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
