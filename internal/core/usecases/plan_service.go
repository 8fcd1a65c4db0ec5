package usecases

import (
	"context"
	"fmt"

	"github.com/voltroute/voltroute/internal/core/domain"
	"github.com/voltroute/voltroute/internal/core/ports"
)

// PlanService exposes the stored plan history so a user can reload or discard
// a recent trip.
type PlanService struct {
	plans ports.PlanRepository
}

// NewPlanService creates a new PlanService.
func NewPlanService(plans ports.PlanRepository) *PlanService {
	return &PlanService{plans: plans}
}

// GetPlan loads one stored plan. Returns domain.ErrPlanNotFound when the ID
// is unknown.
func (s *PlanService) GetPlan(ctx context.Context, id string) (*domain.PlannedRoute, error) {
	if id == "" {
		return nil, fmt.Errorf("plan ID is required")
	}
	return s.plans.GetByID(ctx, id)
}

// ListRecent returns the most recent plans, newest first.
func (s *PlanService) ListRecent(ctx context.Context, limit int) ([]domain.PlannedRoute, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return s.plans.ListRecent(ctx, limit)
}

// DeletePlan removes a stored plan.
func (s *PlanService) DeletePlan(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("plan ID is required")
	}
	return s.plans.Delete(ctx, id)
}
