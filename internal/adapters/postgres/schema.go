package postgres

import "context"

const createSchoolsTable = `
	CREATE TABLE IF NOT EXISTS schools (
		id        BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		name      VARCHAR(255) NOT NULL,
		address   VARCHAR(500) NOT NULL,
		latitude  DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL
	)
`

const dropSchoolsTable = `DROP TABLE IF EXISTS schools`

// Schema implements ports.SchemaManager for PostgreSQL.
type Schema struct {
	db *DB
}

// NewSchema creates a new Schema.
func NewSchema(db *DB) *Schema {
	return &Schema{db: db}
}

// EnsureSchema creates the schools table if it does not exist yet.
func (s *Schema) EnsureSchema(ctx context.Context) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.Pool.Exec(ctx, createSchoolsTable); err != nil {
		return persistenceError("ensure schema", err)
	}
	return nil
}

// DropSchema removes the schools table and all of its rows.
func (s *Schema) DropSchema(ctx context.Context) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.Pool.Exec(ctx, dropSchoolsTable); err != nil {
		return persistenceError("drop schema", err)
	}
	return nil
}
