package geocode

import (
	"context"
)

// Coordinate is a resolved latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Result holds a provider's answer for one query. Matched=false is a
// definitive "no such place", not a failure.
type Result struct {
	Coordinate
	Matched     bool
	DisplayName string
	Source      string
}

// Provider represents a single geocoding backend.
//
// Lookup returns a matched Result, an unmatched Result, or an error.
// Failures worth retrying (timeouts, throttling, unavailable service) are
// reported as *resilience.TransientError; any other error is permanent.
// Implementations must honor ctx cancellation and deadlines.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, query string) (*Result, error)
}

func unmatched(source string) *Result {
	return &Result{Matched: false, Source: source}
}
