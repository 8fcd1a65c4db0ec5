package domain

import "errors"

var (
	// ErrRateLimited is returned (wrapped) by charger-search adapters when the
	// upstream provider throttles the request. The planner retries once, then
	// degrades to zero candidates for that query.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrNoRoute means the route-geometry provider found no drivable route
	// between the waypoints. Fatal for the planning call, surfaced to the user.
	ErrNoRoute = errors.New("no route found")

	// ErrInvalidCoordinate marks out-of-range latitude/longitude input,
	// rejected before any network call is made.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrPlanNotFound is returned when a stored plan does not exist.
	ErrPlanNotFound = errors.New("plan not found")
)
