package ports

import (
	"context"

	"github.com/voltroute/voltroute/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPlanCompleted(ctx context.Context, plan *domain.PlannedRoute) error
	PublishPlanDegraded(ctx context.Context, plan *domain.PlannedRoute) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// CacheService provides read-through caching. The planner and the map-screen
// charger search use it to avoid re-querying the POI provider for the same
// point/radius/filter combination; passing a nil CacheService disables caching
// entirely, which is how tests run deterministically.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
