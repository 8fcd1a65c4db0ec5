package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/voltroute/voltroute/internal/core/domain"
)

// Subjects for plan lifecycle events. The WebSocket relay and any downstream
// consumer subscribes to routing.plan.>.
const (
	SubjectPlanCompleted = "routing.plan.completed"
	SubjectPlanDegraded  = "routing.plan.degraded"
	SubjectBroadcast     = "routing.updates.broadcast"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the plan-event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "ROUTE_PLANS",
		Subjects:  []string{"routing.plan.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishPlanCompleted emits a fully resolved plan.
func (p *Publisher) PublishPlanCompleted(ctx context.Context, plan *domain.PlannedRoute) error {
	return p.publishPlan(SubjectPlanCompleted, plan)
}

// PublishPlanDegraded emits a best-effort plan with unresolved legs.
func (p *Publisher) PublishPlanDegraded(ctx context.Context, plan *domain.PlannedRoute) error {
	return p.publishPlan(SubjectPlanDegraded, plan)
}

func (p *Publisher) publishPlan(subject string, plan *domain.PlannedRoute) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, data)
	return err
}

// PublishBroadcast fans a raw payload out to connected WebSocket clients via
// core NATS, skipping JetStream persistence.
func (p *Publisher) PublishBroadcast(ctx context.Context, data []byte) error {
	return p.conn.Publish(SubjectBroadcast, data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
