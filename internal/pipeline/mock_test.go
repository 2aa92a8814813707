package pipeline

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/geocoords/internal/resilience"
	"github.com/sells-group/geocoords/pkg/geocode"
)

// --- Provider Mock ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string {
	return "mock"
}

func (m *mockProvider) Lookup(ctx context.Context, query string) (*geocode.Result, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geocode.Result), args.Error(1)
}

func matched(lat, lon float64) *geocode.Result {
	return &geocode.Result{
		Coordinate: geocode.Coordinate{Latitude: lat, Longitude: lon},
		Matched:    true,
		Source:     "mock",
	}
}

func unmatched() *geocode.Result {
	return &geocode.Result{Source: "mock"}
}

var errTimeout = resilience.NewTransientError(errors.New("mock: timed out"), 0)
