//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	handler "github.com/voltroute/voltroute/internal/adapters/http"
	"github.com/voltroute/voltroute/internal/adapters/postgres"
	"github.com/voltroute/voltroute/internal/core/domain"
	"github.com/voltroute/voltroute/internal/core/usecases"
	"github.com/voltroute/voltroute/internal/pkg/config"
)

// setupTestDB connects to the test database.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("voltroute-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	db := &postgres.DB{Pool: pool}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	return db
}

// setupTestDeps creates dependencies with a real plan repository, no cache.
func setupTestDeps(t *testing.T, db *postgres.DB) *handler.Dependencies {
	planRepo := postgres.NewPlanRepo(db)

	return &handler.Dependencies{
		Chargers: usecases.NewChargerService(&mockSearcher{}, nil, nil),
		Planner:  usecases.NewPlannerService(&mockSearcher{}, &mockRoutes{}, nil, nil, planRepo, usecases.PlannerConfig{SearchInterval: time.Millisecond, RetryBackoff: time.Millisecond}),
		Plans:    usecases.NewPlanService(planRepo),
		Geocode:  usecases.NewGeocodeService(&mockGeocoder{}),
		DB:       db,
	}
}

// seedTestPlan inserts a plan and returns its UUID.
func seedTestPlan(t *testing.T, db *postgres.DB, distanceKm float64, degraded bool) string {
	ctx := context.Background()
	plan := &domain.PlannedRoute{
		Waypoints: []domain.GeoPoint{
			{Lat: 43.263, Lon: -2.935},
			{Lat: 40.417, Lon: -3.704},
		},
		Profile:    "driving",
		DistanceKm: distanceKm,
		Range:      domain.RangeProfile{AvailableRangeKm: 250, MaxRangeKm: 400},
		Degraded:   degraded,
	}
	repo := postgres.NewPlanRepo(db)
	if err := repo.Insert(ctx, plan); err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	return plan.ID
}

// TestGetPlan_Integration round-trips a plan through the real database.
func TestGetPlan_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	id := seedTestPlan(t, db, 395.7, false)

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/plans/"+id, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var plan domain.PlannedRoute
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if plan.ID != id {
		t.Errorf("expected plan %s, got %s", id, plan.ID)
	}
	if len(plan.Waypoints) != 2 {
		t.Errorf("expected 2 waypoints, got %d", len(plan.Waypoints))
	}
}

// TestListPlans_Integration verifies recency ordering from the real database.
func TestListPlans_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	seedTestPlan(t, db, 100, false)
	newest := seedTestPlan(t, db, 200, true)

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/plans?limit=10", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data []domain.PlannedRoute `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Data) < 2 {
		t.Fatalf("expected at least 2 plans, got %d", len(result.Data))
	}
	if result.Data[0].ID != newest {
		t.Errorf("expected newest plan first, got %s", result.Data[0].ID)
	}
}

// TestDeletePlan_Integration verifies delete removes the row.
func TestDeletePlan_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	id := seedTestPlan(t, db, 50, false)

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	req := httptest.NewRequest("DELETE", "/v1/plans/"+id, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/v1/plans/"+id, nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}
