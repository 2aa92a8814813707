package geocode

import (
	"context"
	"errors"
	"strings"

	geo "github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/openstreetmap"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geocoords/internal/resilience"
)

// OSMProvider geocodes through the geo-golang OpenStreetMap client.
type OSMProvider struct {
	geocoder geo.Geocoder
}

// NewOSMProvider creates an OSMProvider. WithBaseURL selects a custom
// Nominatim installation, with or without a trailing slash.
//
// The library sends its requests with http.DefaultClient and Go's default
// User-Agent, so WithHTTPClient and WithUserAgent have no effect here. The
// public Nominatim instance may reject that User-Agent; use the nominatim
// provider when geocode.user_agent matters.
func NewOSMProvider(opts ...Option) *OSMProvider {
	o := applyOptions(opts)
	if o.baseURL != "" {
		return &OSMProvider{geocoder: openstreetmap.GeocoderWithURL(osmBaseURL(o.baseURL))}
	}
	return &OSMProvider{geocoder: openstreetmap.Geocoder()}
}

// osmBaseURL returns base with exactly one trailing slash. The library
// appends "search?..." to it verbatim.
func osmBaseURL(base string) string {
	return strings.TrimRight(base, "/") + "/"
}

// Name implements Provider.
func (p *OSMProvider) Name() string { return ProviderOSM }

type osmAnswer struct {
	location *geo.Location
	err      error
}

// Lookup implements Provider. The library call does not take a context, so it
// runs on its own goroutine and is abandoned when ctx is done.
func (p *OSMProvider) Lookup(ctx context.Context, query string) (*Result, error) {
	ch := make(chan osmAnswer, 1)
	go func() {
		loc, err := p.geocoder.Geocode(query)
		ch <- osmAnswer{location: loc, err: err}
	}()

	var ans osmAnswer
	select {
	case <-ctx.Done():
		return nil, resilience.NewTransientError(eris.Wrap(ctx.Err(), "osm: geocode"), 0)
	case ans = <-ch:
	}

	if ans.err != nil {
		if errors.Is(ans.err, geo.ErrTimeout) {
			return nil, resilience.NewTransientError(eris.Wrap(ans.err, "osm: geocode timed out"), 0)
		}
		return nil, resilience.NewTransientError(eris.Wrap(ans.err, "osm: geocode"), 0)
	}

	if ans.location == nil {
		return unmatched(ProviderOSM), nil
	}

	return &Result{
		Coordinate: Coordinate{Latitude: ans.location.Lat, Longitude: ans.location.Lng},
		Matched:    true,
		Source:     ProviderOSM,
	}, nil
}
