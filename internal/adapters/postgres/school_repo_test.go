package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/schoolfinder/internal/adapters/postgres"
	"github.com/samirrijal/schoolfinder/internal/core/domain"
)

// retryableErr reports itself as safe to retry, like a pgconn dial failure.
type retryableErr struct{}

func (retryableErr) Error() string     { return "connection refused" }
func (retryableErr) SafeToRetry() bool { return true }

func newMockRepo(t *testing.T) (*postgres.SchoolRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	db := postgres.NewWithQuerier(mock, time.Second)
	return postgres.NewSchoolRepo(db), mock
}

func TestSchoolRepo_InsertOne(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO schools \(name, address, latitude, longitude\)`).
		WithArgs("Lincoln High", "1 Main St", 40.0, -73.0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	id, err := repo.InsertOne(context.Background(), domain.SchoolInput{
		Name: "Lincoln High", Address: "1 Main St", Latitude: 40.0, Longitude: -73.0,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepo_InsertOne_Error(t *testing.T) {
	repo, mock := newMockRepo(t)

	pgErr := &pgconn.PgError{Code: "23502", Message: "null value in column"}
	mock.ExpectQuery(`INSERT INTO schools`).
		WithArgs("Lincoln High", "1 Main St", 40.0, -73.0).
		WillReturnError(pgErr)

	_, err := repo.InsertOne(context.Background(), domain.SchoolInput{
		Name: "Lincoln High", Address: "1 Main St", Latitude: 40.0, Longitude: -73.0,
	})
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "insert school", perr.Op)
	assert.False(t, perr.Retryable)
	assert.ErrorIs(t, err, pgErr)
}

func TestSchoolRepo_InsertMany_Copy(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectCopyFrom(pgx.Identifier{"schools"}, []string{"name", "address", "latitude", "longitude"}).
		WillReturnResult(2)

	err := repo.InsertMany(context.Background(), []domain.SchoolInput{
		{Name: "Lincoln High", Address: "1 Main St", Latitude: 40.0, Longitude: -73.0},
		{Name: "Roosevelt Middle", Address: "22 Elm Rd", Latitude: 41.5, Longitude: -72.25},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepo_InsertMany_BeyondParameterLimit(t *testing.T) {
	repo, mock := newMockRepo(t)

	// 20000 rows of four columns would need 80000 bind parameters.
	batch := make([]domain.SchoolInput, 20000)
	for i := range batch {
		batch[i] = domain.SchoolInput{Name: "School", Address: "Somewhere", Latitude: 1, Longitude: 2}
	}
	mock.ExpectCopyFrom(pgx.Identifier{"schools"}, []string{"name", "address", "latitude", "longitude"}).
		WillReturnResult(int64(len(batch)))

	require.NoError(t, repo.InsertMany(context.Background(), batch))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepo_InsertMany_Error(t *testing.T) {
	repo, mock := newMockRepo(t)

	pgErr := &pgconn.PgError{Code: "22P02", Message: "invalid input syntax"}
	mock.ExpectCopyFrom(pgx.Identifier{"schools"}, []string{"name", "address", "latitude", "longitude"}).
		WillReturnError(pgErr)

	err := repo.InsertMany(context.Background(), []domain.SchoolInput{{Name: "Abc", Address: "Xyz"}})
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "insert schools", perr.Op)
	assert.ErrorIs(t, err, pgErr)
}

func TestSchoolRepo_InsertMany_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)

	require.NoError(t, repo.InsertMany(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepo_DeleteAll(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`TRUNCATE TABLE schools RESTART IDENTITY`).
		WillReturnResult(pgxmock.NewResult("TRUNCATE TABLE", 0))
	mock.ExpectExec(`TRUNCATE TABLE schools RESTART IDENTITY`).
		WillReturnResult(pgxmock.NewResult("TRUNCATE TABLE", 0))

	require.NoError(t, repo.DeleteAll(context.Background()))
	require.NoError(t, repo.DeleteAll(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepo_ListAll(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT id, name, address, latitude, longitude\s+FROM schools`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "address", "latitude", "longitude"}).
			AddRow(int64(1), "Lincoln High", "1 Main St", 40.0, -73.0).
			AddRow(int64(2), "Roosevelt Middle", "22 Elm Rd", 41.5, -72.25))

	schools, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, schools, 2)
	assert.Equal(t, domain.School{ID: 1, Name: "Lincoln High", Address: "1 Main St", Latitude: 40, Longitude: -73}, schools[0])
	assert.Equal(t, int64(2), schools[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepo_ListAll_EmptyIsNotNil(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT id, name, address, latitude, longitude`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "address", "latitude", "longitude"}))

	schools, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, schools)
	assert.Empty(t, schools)
}

func TestSchoolRepo_ListAll_RetryableError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT id, name, address, latitude, longitude`).
		WillReturnError(retryableErr{})

	_, err := repo.ListAll(context.Background())
	var perr *domain.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.True(t, perr.Retryable)
}

func TestSchema_EnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schools`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schools`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	schema := postgres.NewSchema(postgres.NewWithQuerier(mock, time.Second))
	require.NoError(t, schema.EnsureSchema(context.Background()))
	require.NoError(t, schema.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchema_EnsureSchema_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schools`).
		WillReturnError(&pgconn.PgError{Code: "42501", Message: "permission denied for schema public"})

	schema := postgres.NewSchema(postgres.NewWithQuerier(mock, time.Second))
	err = schema.EnsureSchema(context.Background())
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "ensure schema", perr.Op)
}
