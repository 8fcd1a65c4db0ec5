package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/voltroute/voltroute/internal/core/domain"
	"github.com/voltroute/voltroute/internal/core/usecases"
)

func TestChargerService_FindNearby(t *testing.T) {
	searcher := &mockChargerSearcher{
		searchFn: func(ctx context.Context, point domain.GeoPoint, radiusMeters int, filters domain.SearchFilters) ([]domain.Charger, error) {
			return []domain.Charger{
				{ID: "1", Name: "Iberdrola Abando", Position: domain.GeoPoint{Lat: 43.263, Lon: -2.935}},
				{ID: "2", Name: "Repsol Moyua", Position: domain.GeoPoint{Lat: 43.264, Lon: -2.934}},
				{ID: "3", Name: "Duplicate Abando", Position: domain.GeoPoint{Lat: 43.263, Lon: -2.935}},
			}, nil
		},
	}
	svc := usecases.NewChargerService(searcher, nil, nil)

	chargers, err := svc.FindNearby(context.Background(), domain.GeoPoint{Lat: 43.263, Lon: -2.935}, 5000, domain.SearchFilters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chargers) != 2 {
		t.Fatalf("expected 2 chargers after dedupe, got %d", len(chargers))
	}
	if chargers[0].Name != "Iberdrola Abando" {
		t.Errorf("expected first-seen charger to win, got %s", chargers[0].Name)
	}
}

func TestChargerService_FindNearby_ClampRadius(t *testing.T) {
	var gotRadius int
	searcher := &mockChargerSearcher{
		searchFn: func(ctx context.Context, point domain.GeoPoint, radiusMeters int, filters domain.SearchFilters) ([]domain.Charger, error) {
			gotRadius = radiusMeters
			return nil, nil
		},
	}
	svc := usecases.NewChargerService(searcher, nil, nil)
	center := domain.GeoPoint{Lat: 43.263, Lon: -2.935}

	_, _ = svc.FindNearby(context.Background(), center, 999999, domain.SearchFilters{})
	if gotRadius != 50000 {
		t.Errorf("expected radius clamped to 50000, got %d", gotRadius)
	}

	_, _ = svc.FindNearby(context.Background(), center, 0, domain.SearchFilters{})
	if gotRadius != 5000 {
		t.Errorf("expected default radius 5000, got %d", gotRadius)
	}

	_, _ = svc.FindNearby(context.Background(), center, 5, domain.SearchFilters{})
	if gotRadius != 100 {
		t.Errorf("expected radius raised to 100, got %d", gotRadius)
	}
}

func TestChargerService_FindNearby_InvalidPoint(t *testing.T) {
	svc := usecases.NewChargerService(&mockChargerSearcher{}, nil, nil)

	_, err := svc.FindNearby(context.Background(), domain.GeoPoint{Lat: -95, Lon: 0}, 5000, domain.SearchFilters{})
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestChargerService_FindNearby_CacheHit(t *testing.T) {
	searcher := &mockChargerSearcher{
		searchFn: func(ctx context.Context, point domain.GeoPoint, radiusMeters int, filters domain.SearchFilters) ([]domain.Charger, error) {
			return []domain.Charger{{ID: "1", Name: "Cached One", Position: point}}, nil
		},
	}
	svc := usecases.NewChargerService(searcher, newMockCache(), nil)
	center := domain.GeoPoint{Lat: 43.263, Lon: -2.935}

	if _, err := svc.FindNearby(context.Background(), center, 5000, domain.SearchFilters{}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	chargers, err := svc.FindNearby(context.Background(), center, 5000, domain.SearchFilters{})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if searcher.calls != 1 {
		t.Errorf("expected 1 provider call with a warm cache, got %d", searcher.calls)
	}
	if len(chargers) != 1 || chargers[0].Name != "Cached One" {
		t.Errorf("cache should return the original results, got %v", chargers)
	}
}

// cannedCache serves one payload for every key, standing in for an entry
// another writer left under a shared search key.
type cannedCache struct{ data []byte }

func (c *cannedCache) Get(ctx context.Context, key string) ([]byte, error) { return c.data, nil }
func (c *cannedCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	return nil
}
func (c *cannedCache) Delete(ctx context.Context, key string) error { return nil }

func TestChargerService_FindNearby_DedupesCachedEntries(t *testing.T) {
	// The planner caches charger searches under the same key namespace.
	// A cached list carrying duplicates must still come back deduped.
	center := domain.GeoPoint{Lat: 42.25, Lon: -3.0}
	dup := domain.Charger{ID: "dup", Name: "Twice Reported", Position: center}
	data, err := json.Marshal([]domain.Charger{dup, dup})
	if err != nil {
		t.Fatal(err)
	}

	searcher := &mockChargerSearcher{}
	svc := usecases.NewChargerService(searcher, &cannedCache{data: data}, nil)

	chargers, err := svc.FindNearby(context.Background(), center, 30000, domain.SearchFilters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if searcher.calls != 0 {
		t.Fatalf("expected the cache to serve the request, provider called %d times", searcher.calls)
	}
	if len(chargers) != 1 {
		t.Errorf("expected 1 charger after dedupe, got %d", len(chargers))
	}
}

func TestChargerService_FindNearby_DropsChargersOutsideViewport(t *testing.T) {
	searcher := &mockChargerSearcher{
		searchFn: func(ctx context.Context, point domain.GeoPoint, radiusMeters int, filters domain.SearchFilters) ([]domain.Charger, error) {
			return []domain.Charger{
				{ID: "near", Position: domain.GeoPoint{Lat: 43.270, Lon: -2.930}},
				{ID: "far", Position: domain.GeoPoint{Lat: 44.263, Lon: -2.935}}, // ~110 km north
			}, nil
		},
	}
	svc := usecases.NewChargerService(searcher, nil, nil)

	chargers, err := svc.FindNearby(context.Background(), domain.GeoPoint{Lat: 43.263, Lon: -2.935}, 5000, domain.SearchFilters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chargers) != 1 || chargers[0].ID != "near" {
		t.Errorf("expected only the in-viewport charger, got %v", chargers)
	}
}

func TestChargerService_FindClusters(t *testing.T) {
	searcher := &mockChargerSearcher{
		searchFn: func(ctx context.Context, point domain.GeoPoint, radiusMeters int, filters domain.SearchFilters) ([]domain.Charger, error) {
			return []domain.Charger{
				{ID: "1", Position: domain.GeoPoint{Lat: 43.2630, Lon: -2.9350}},
				{ID: "2", Position: domain.GeoPoint{Lat: 43.2640, Lon: -2.9340}},
				{ID: "3", Position: domain.GeoPoint{Lat: 42.8500, Lon: -2.6700}}, // ~50 km away
			}, nil
		},
	}
	svc := usecases.NewChargerService(searcher, nil, usecases.NewClusterService(0))
	center := domain.GeoPoint{Lat: 43.263, Lon: -2.935}

	nodes, err := svc.FindClusters(context.Background(), center, 50000, 9, 0, domain.SearchFilters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes (one pair, one outlier), got %d", len(nodes))
	}
	total := 0
	for _, n := range nodes {
		total += n.Count
	}
	if total != 3 {
		t.Errorf("partition broken: counts sum to %d, want 3", total)
	}
}
