package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/voltroute/voltroute/internal/core/domain"
	"github.com/voltroute/voltroute/internal/core/usecases"
)

type listingPlanRepo struct {
	mockPlanRepo
	listFn func(ctx context.Context, limit int) ([]domain.PlannedRoute, error)
	getFn  func(ctx context.Context, id string) (*domain.PlannedRoute, error)
}

func (m *listingPlanRepo) ListRecent(ctx context.Context, limit int) ([]domain.PlannedRoute, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}

func (m *listingPlanRepo) GetByID(ctx context.Context, id string) (*domain.PlannedRoute, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrPlanNotFound
}

func TestPlanService_GetPlan(t *testing.T) {
	repo := &listingPlanRepo{
		getFn: func(ctx context.Context, id string) (*domain.PlannedRoute, error) {
			return &domain.PlannedRoute{ID: id, Profile: "driving"}, nil
		},
	}
	svc := usecases.NewPlanService(repo)

	plan, err := svc.GetPlan(context.Background(), "plan-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.ID != "plan-1" {
		t.Errorf("expected plan-1, got %s", plan.ID)
	}
}

func TestPlanService_GetPlan_EmptyID(t *testing.T) {
	svc := usecases.NewPlanService(&listingPlanRepo{})
	if _, err := svc.GetPlan(context.Background(), ""); err == nil {
		t.Error("expected error for empty plan ID")
	}
}

func TestPlanService_GetPlan_NotFound(t *testing.T) {
	svc := usecases.NewPlanService(&listingPlanRepo{})
	_, err := svc.GetPlan(context.Background(), "missing")
	if !errors.Is(err, domain.ErrPlanNotFound) {
		t.Errorf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestPlanService_ListRecent_ClampLimit(t *testing.T) {
	var gotLimit int
	repo := &listingPlanRepo{
		listFn: func(ctx context.Context, limit int) ([]domain.PlannedRoute, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	svc := usecases.NewPlanService(repo)

	_, _ = svc.ListRecent(context.Background(), 999)
	if gotLimit != 50 {
		t.Errorf("expected limit clamped to 50, got %d", gotLimit)
	}

	_, _ = svc.ListRecent(context.Background(), 0)
	if gotLimit != 10 {
		t.Errorf("expected default limit 10, got %d", gotLimit)
	}
}

func TestPlanService_DeletePlan_EmptyID(t *testing.T) {
	svc := usecases.NewPlanService(&listingPlanRepo{})
	if err := svc.DeletePlan(context.Background(), ""); err == nil {
		t.Error("expected error for empty plan ID")
	}
}
