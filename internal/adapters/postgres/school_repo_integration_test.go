//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/samirrijal/schoolfinder/internal/adapters/postgres"
	"github.com/samirrijal/schoolfinder/internal/core/domain"
	"github.com/samirrijal/schoolfinder/internal/pkg/config"
)

// setupTestDB connects to the database named by the usual configuration and
// makes sure the schools table exists and is empty.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("schoolfinder-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), postgres.Options{MaxConns: 4, QueryTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if err := postgres.NewSchema(db).EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := postgres.NewSchoolRepo(db).DeleteAll(ctx); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

func TestSchoolRepo_Integration_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	repo := postgres.NewSchoolRepo(db)
	ctx := context.Background()

	in := domain.SchoolInput{Name: "Lincoln High", Address: "1 Main St", Latitude: 40.0, Longitude: -73.0}
	id, err := repo.InsertOne(ctx, in)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id != 1 {
		t.Errorf("expected id 1 after truncate, got %d", id)
	}

	schools, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(schools) != 1 {
		t.Fatalf("expected 1 school, got %d", len(schools))
	}
	got := schools[0]
	if got.Name != in.Name || got.Address != in.Address || got.Latitude != in.Latitude || got.Longitude != in.Longitude {
		t.Errorf("round trip mismatch: %+v vs %+v", got, in)
	}
}

func TestSchoolRepo_Integration_BatchAndDeleteAll(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	repo := postgres.NewSchoolRepo(db)
	ctx := context.Background()

	err := repo.InsertMany(ctx, []domain.SchoolInput{
		{Name: "Lincoln High", Address: "1 Main St", Latitude: 40.0, Longitude: -73.0},
		{Name: "Roosevelt Middle", Address: "22 Elm Rd", Latitude: 41.5, Longitude: -72.25},
		{Name: "Jefferson Elementary", Address: "9 Oak Ave", Latitude: -33.9, Longitude: 151.2},
	})
	if err != nil {
		t.Fatalf("insert many: %v", err)
	}

	schools, _ := repo.ListAll(ctx)
	if len(schools) != 3 {
		t.Fatalf("expected 3 schools, got %d", len(schools))
	}

	for i := 0; i < 2; i++ {
		if err := repo.DeleteAll(ctx); err != nil {
			t.Fatalf("delete all #%d: %v", i+1, err)
		}
		schools, err := repo.ListAll(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(schools) != 0 {
			t.Errorf("expected empty table after delete all #%d, got %d", i+1, len(schools))
		}
	}
}
