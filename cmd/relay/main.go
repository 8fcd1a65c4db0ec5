package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	natsadapter "github.com/voltroute/voltroute/internal/adapters/nats"
	"github.com/voltroute/voltroute/internal/core/domain"
	"github.com/voltroute/voltroute/internal/pkg/config"
	"github.com/voltroute/voltroute/internal/pkg/logging"
)

// planNotice is the compact payload fanned out to WebSocket clients on the
// updates channel. Full plans stay behind GET /v1/plans/:id.
type planNotice struct {
	Event      string    `json:"event"`
	PlanID     string    `json:"plan_id"`
	Degraded   bool      `json:"degraded"`
	DistanceKm float64   `json:"distance_km"`
	Stops      int       `json:"stops"`
	CreatedAt  time.Time `json:"created_at"`
}

func main() {
	cfg, err := config.Load("voltroute-relay")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(os.Getenv("LOG_LEVEL"), "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	var relayed atomic.Int64

	err = sub.SubscribePlanEvents(ctx, "plan-relay", func(subject string, data []byte) error {
		var plan domain.PlannedRoute
		if err := json.Unmarshal(data, &plan); err != nil {
			slog.Warn("drop malformed plan event", "subject", subject, "error", err)
			return nil // ack: redelivery will not fix a bad payload
		}

		event := "plan.completed"
		if subject == natsadapter.SubjectPlanDegraded {
			event = "plan.degraded"
		}

		notice, err := json.Marshal(planNotice{
			Event:      event,
			PlanID:     plan.ID,
			Degraded:   plan.Degraded,
			DistanceKm: plan.DistanceKm,
			Stops:      len(plan.ChargingStops),
			CreatedAt:  plan.CreatedAt,
		})
		if err != nil {
			return err
		}

		if err := pub.PublishBroadcast(ctx, notice); err != nil {
			return err
		}
		relayed.Add(1)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("VoltRoute relay started", "durable", "plan-relay")

	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			slog.Info("relay heartbeat", "relayed", relayed.Load())
		case sig := <-quit:
			slog.Info("shutting down relay", "signal", sig.String())
			cancel()
			// Give in-flight handlers time to finish before drain
			time.Sleep(2 * time.Second)
			return
		case <-ctx.Done():
			return
		}
	}
}
