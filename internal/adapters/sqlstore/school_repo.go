package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
)

var schoolColumns = []string{"name", "address", "latitude", "longitude"}

// SchoolRepo implements ports.SchoolRepository on database/sql.
type SchoolRepo struct {
	db *DB
	sb sq.StatementBuilderType
}

// NewSchoolRepo creates a new SchoolRepo. Both dialects use '?' placeholders.
func NewSchoolRepo(db *DB) *SchoolRepo {
	return &SchoolRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// InsertOne stores a single school and returns its generated id.
func (r *SchoolRepo) InsertOne(ctx context.Context, s domain.SchoolInput) (int64, error) {
	query, args, err := r.sb.Insert("schools").
		Columns(schoolColumns...).
		Values(s.Name, s.Address, s.Latitude, s.Longitude).
		ToSql()
	if err != nil {
		return 0, persistenceError("insert school", fmt.Errorf("building insert: %w", err))
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	res, err := r.db.SQL.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, persistenceError("insert school", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, persistenceError("insert school", err)
	}
	return id, nil
}

// insertChunkRows keeps every statement below SQLite's 32766 and MySQL's
// 65535 placeholder limits.
const insertChunkRows = 1000

// InsertMany stores all schools in one transaction, with one multi-row INSERT
// per chunk of insertChunkRows.
func (r *SchoolRepo) InsertMany(ctx context.Context, schools []domain.SchoolInput) error {
	if len(schools) == 0 {
		return nil
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return persistenceError("insert schools", err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(schools); start += insertChunkRows {
		q := r.sb.Insert("schools").Columns(schoolColumns...)
		for _, s := range schools[start:min(start+insertChunkRows, len(schools))] {
			q = q.Values(s.Name, s.Address, s.Latitude, s.Longitude)
		}
		query, args, err := q.ToSql()
		if err != nil {
			return persistenceError("insert schools", fmt.Errorf("building insert: %w", err))
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return persistenceError("insert schools", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return persistenceError("insert schools", err)
	}
	return nil
}

// DeleteAll removes every school and resets the id counter.
func (r *SchoolRepo) DeleteAll(ctx context.Context) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	stmt := `TRUNCATE TABLE schools`
	if r.db.Dialect == SQLite {
		stmt = `DELETE FROM schools; DELETE FROM sqlite_sequence WHERE name = 'schools';`
	}
	if _, err := r.db.SQL.ExecContext(ctx, stmt); err != nil {
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

	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
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
