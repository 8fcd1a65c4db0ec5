package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/voltroute/voltroute/internal/core/domain"
)

// PlanRepo implements ports.PlanRepository. Waypoints and charging stops are
// stored as JSONB since they are only ever read back whole.
type PlanRepo struct {
	db *DB
}

func NewPlanRepo(db *DB) *PlanRepo { return &PlanRepo{db: db} }

// Insert stores a plan and fills in its generated ID.
func (r *PlanRepo) Insert(ctx context.Context, plan *domain.PlannedRoute) error {
	waypoints, err := json.Marshal(plan.Waypoints)
	if err != nil {
		return fmt.Errorf("marshal waypoints: %w", err)
	}
	stops, err := json.Marshal(plan.ChargingStops)
	if err != nil {
		return fmt.Errorf("marshal charging stops: %w", err)
	}

	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO plans (profile, distance_km, available_range_km, max_range_km, degraded, waypoints, charging_stops, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, plan.Profile, plan.DistanceKm, plan.Range.AvailableRangeKm, plan.Range.MaxRangeKm,
		plan.Degraded, waypoints, stops, plan.CreatedAt).Scan(&plan.ID)
}

func (r *PlanRepo) GetByID(ctx context.Context, id string) (*domain.PlannedRoute, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, profile, distance_km, available_range_km, max_range_km, degraded, waypoints, charging_stops, created_at
		FROM plans WHERE id = $1
	`, id)

	plan, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *PlanRepo) ListRecent(ctx context.Context, limit int) ([]domain.PlannedRoute, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, profile, distance_km, available_range_km, max_range_km, degraded, waypoints, charging_stops, created_at
		FROM plans ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.PlannedRoute
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

func (r *PlanRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

func scanPlan(row pgx.Row) (*domain.PlannedRoute, error) {
	var (
		plan      domain.PlannedRoute
		waypoints []byte
		stops     []byte
	)
	if err := row.Scan(&plan.ID, &plan.Profile, &plan.DistanceKm,
		&plan.Range.AvailableRangeKm, &plan.Range.MaxRangeKm, &plan.Degraded,
		&waypoints, &stops, &plan.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(waypoints, &plan.Waypoints); err != nil {
		return nil, fmt.Errorf("unmarshal waypoints: %w", err)
	}
	if err := json.Unmarshal(stops, &plan.ChargingStops); err != nil {
		return nil, fmt.Errorf("unmarshal charging stops: %w", err)
	}
	return &plan, nil
}
