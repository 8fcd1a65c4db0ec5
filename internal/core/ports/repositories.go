package ports

import (
	"context"

	"github.com/voltroute/voltroute/internal/core/domain"
)

// PlanRepository persists planned routes so a user can reload a recent trip.
type PlanRepository interface {
	Insert(ctx context.Context, plan *domain.PlannedRoute) error
	GetByID(ctx context.Context, id string) (*domain.PlannedRoute, error)
	ListRecent(ctx context.Context, limit int) ([]domain.PlannedRoute, error)
	Delete(ctx context.Context, id string) error
}
