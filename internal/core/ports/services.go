package ports

import (
	"context"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
)

// EventPublisher publishes school events to a message broker.
type EventPublisher interface {
	PublishSchoolEvent(ctx context.Context, event *domain.SchoolEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
