package ports

import (
	"context"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
)

// SchoolRepository persists schools. Implementations wrap every failure in
// *domain.PersistenceError and never re-validate their input.
type SchoolRepository interface {
	InsertOne(ctx context.Context, school domain.SchoolInput) (int64, error)
	InsertMany(ctx context.Context, schools []domain.SchoolInput) error
	DeleteAll(ctx context.Context) error
	ListAll(ctx context.Context) ([]domain.School, error)
}

// SchemaManager makes sure the schools table exists.
type SchemaManager interface {
	EnsureSchema(ctx context.Context) error
}
