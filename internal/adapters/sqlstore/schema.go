package sqlstore

import "context"

var createSchoolsTable = map[Dialect]string{
	MySQL: `
		CREATE TABLE IF NOT EXISTS schools (
			id        INT AUTO_INCREMENT PRIMARY KEY,
			name      VARCHAR(255) NOT NULL,
			address   VARCHAR(500) NOT NULL,
			latitude  DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL
		)`,
	SQLite: `
		CREATE TABLE IF NOT EXISTS schools (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			name      VARCHAR(255) NOT NULL,
			address   VARCHAR(500) NOT NULL,
			latitude  REAL NOT NULL,
			longitude REAL NOT NULL
		)`,
}

// Schema implements ports.SchemaManager for MySQL and SQLite.
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

	if _, err := s.db.SQL.ExecContext(ctx, createSchoolsTable[s.db.Dialect]); err != nil {
		return persistenceError("ensure schema", err)
	}
	return nil
}

// DropSchema removes the schools table and all of its rows.
func (s *Schema) DropSchema(ctx context.Context) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.SQL.ExecContext(ctx, `DROP TABLE IF EXISTS schools`); err != nil {
		return persistenceError("drop schema", err)
	}
	return nil
}
