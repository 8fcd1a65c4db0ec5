package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Planning
	MetricPlanLatency    = "routing.plan_latency"
	MetricPlanDegraded   = "routing.plans_degraded_ratio"
	MetricProviderErrors = "provider.error_rate"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricPlansServed   = "business.plans_served"
	MetricChargersShown = "business.chargers_displayed"
)
