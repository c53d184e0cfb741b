//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/schoolfinder/internal/adapters/http"
	"github.com/samirrijal/schoolfinder/internal/adapters/postgres"
	"github.com/samirrijal/schoolfinder/internal/core/domain"
	"github.com/samirrijal/schoolfinder/internal/core/usecases"
	"github.com/samirrijal/schoolfinder/internal/pkg/config"
)

// setupIntegrationApp wires the real Postgres store behind the router and
// starts from an empty table.
func setupIntegrationApp(t *testing.T) *fiber.App {
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

	deps := &handler.Dependencies{
		Schools: usecases.NewSchoolService(postgres.NewSchoolRepo(db), nil, nil),
		DB:      db,
	}
	app := setupApp(deps)

	if status, body := do(t, app, "DELETE", "/deleteAllSchools", ""); status != 200 {
		t.Fatalf("reset: %d %s", status, body)
	}
	return app
}

func TestIntegration_AddListDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	app := setupIntegrationApp(t)

	status, body := do(t, app, "POST", "/addSchool", lincoln)
	if status != 201 {
		t.Fatalf("add: expected 201, got %d: %s", status, body)
	}

	status, body = do(t, app, "POST", "/batch/addSchool", `[
		{"name":"Far School","address":"Far Rd","latitude":45,"longitude":-70},
		{"name":"Mid School","address":"Mid Rd","latitude":41,"longitude":-73}
	]`)
	if status != 201 {
		t.Fatalf("batch: expected 201, got %d: %s", status, body)
	}

	status, body = do(t, app, "GET", "/listSchools?latitude=40&longitude=-73", "")
	if status != 200 {
		t.Fatalf("list: expected 200, got %d", status)
	}
	var listed []domain.RankedSchool
	if err := json.Unmarshal(body, &listed); err != nil {
		t.Fatal(err)
	}
	want := []string{"Lincoln High", "Mid School", "Far School"}
	if len(listed) != len(want) {
		t.Fatalf("expected %d schools, got %d", len(want), len(listed))
	}
	for i, n := range want {
		if listed[i].Name != n {
			t.Errorf("position %d: expected %s, got %s", i, n, listed[i].Name)
		}
	}
	if listed[0].Distance != 0 {
		t.Errorf("expected distance 0, got %v", listed[0].Distance)
	}

	for i := 0; i < 2; i++ {
		if status, _ := do(t, app, "DELETE", "/deleteAllSchools", ""); status != 200 {
			t.Fatalf("delete %d: expected 200, got %d", i+1, status)
		}
	}
	_, body = do(t, app, "GET", "/listSchools?latitude=0&longitude=0", "")
	if string(body) != "[]" {
		t.Errorf("expected empty list, got %s", body)
	}
}
