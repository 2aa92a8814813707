package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geocoords/internal/resilience"
)

const nominatimURL = "https://nominatim.openstreetmap.org"

// nominatimPlace is one element of the Nominatim /search JSON response.
// Coordinates are encoded as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NominatimProvider geocodes via the OpenStreetMap Nominatim search API.
type NominatimProvider struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewNominatimProvider creates a NominatimProvider. Nominatim's usage policy
// requires an identifying User-Agent; see WithUserAgent.
func NewNominatimProvider(opts ...Option) *NominatimProvider {
	o := applyOptions(opts)
	base := o.baseURL
	if base == "" {
		base = nominatimURL
	}
	return &NominatimProvider{
		httpClient: o.httpClient,
		baseURL:    strings.TrimRight(base, "/"),
		userAgent:  o.userAgent,
	}
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return ProviderNominatim }

// Lookup implements Provider.
func (p *NominatimProvider) Lookup(ctx context.Context, query string) (*Result, error) {
	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}

	reqURL := p.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "nominatim: request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.ClassifyHTTPStatus("nominatim", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "nominatim: read body"), resp.StatusCode)
	}

	// An overloaded instance can answer 200 with an HTML error page.
	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "nominatim: parse response"), resp.StatusCode)
	}

	if len(places) == 0 {
		return unmatched(ProviderNominatim), nil
	}

	place := places[0]
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "nominatim: parse latitude %q", place.Lat)
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "nominatim: parse longitude %q", place.Lon)
	}

	return &Result{
		Coordinate:  Coordinate{Latitude: lat, Longitude: lon},
		Matched:     true,
		DisplayName: place.DisplayName,
		Source:      ProviderNominatim,
	}, nil
}
