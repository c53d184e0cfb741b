package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
)

var schoolColumns = []string{"name", "address", "latitude", "longitude"}

// SchoolRepo implements ports.SchoolRepository with pgx.
type SchoolRepo struct {
	db *DB
	sb sq.StatementBuilderType
}

// NewSchoolRepo creates a new SchoolRepo.
func NewSchoolRepo(db *DB) *SchoolRepo {
	return &SchoolRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// InsertOne stores a single school and returns its generated id.
func (r *SchoolRepo) InsertOne(ctx context.Context, s domain.SchoolInput) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var id int64
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO schools (name, address, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, s.Name, s.Address, s.Latitude, s.Longitude).Scan(&id)
	if err != nil {
		return 0, persistenceError("insert school", err)
	}
	return id, nil
}

// InsertMany stores all schools with one COPY. COPY is a single command, so
// the batch is all or nothing and is not bound by the parameter limit.
func (r *SchoolRepo) InsertMany(ctx context.Context, schools []domain.SchoolInput) error {
	if len(schools) == 0 {
		return nil
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	n, err := r.db.Pool.CopyFrom(ctx, pgx.Identifier{"schools"}, schoolColumns,
		pgx.CopyFromSlice(len(schools), func(i int) ([]any, error) {
			s := schools[i]
			return []any{s.Name, s.Address, s.Latitude, s.Longitude}, nil
		}),
	)
	if err != nil {
		return persistenceError("insert schools", err)
	}
	if n != int64(len(schools)) {
		return persistenceError("insert schools", fmt.Errorf("copied %d of %d rows", n, len(schools)))
	}
	return nil
}

// DeleteAll removes every school and restarts the id sequence.
func (r *SchoolRepo) DeleteAll(ctx context.Context) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, `TRUNCATE TABLE schools RESTART IDENTITY`); err != nil {
		return persistenceError("delete schools", err)
	}
	return nil
}

// ListAll returns every school in storage order.
func (r *SchoolRepo) ListAll(ctx context.Context) ([]domain.School, error) {
	query, args, err := r.sb.Select("id", "name", "address", "latitude", "longitude").
		From("schools").
		ToSql()
	if err != nil {
		return nil, persistenceError("list schools", fmt.Errorf("building select: %w", err))
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, persistenceError("list schools", err)
	}
	defer rows.Close()

	schools := []domain.School{}
	for rows.Next() {
		var s domain.School
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.Latitude, &s.Longitude); err != nil {
			return nil, persistenceError("list schools", err)
		}
		schools = append(schools, s)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("list schools", err)
	}
	return schools, nil
}
