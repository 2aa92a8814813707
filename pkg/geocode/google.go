package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geocoords/internal/resilience"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results      []googleResult `json:"results"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
}

type googleResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	FormattedAddress string `json:"formatted_address"`
}

// GoogleProvider geocodes via the Google Geocoding API.
type GoogleProvider struct {
	httpClient *http.Client
	baseURL    string
	key        string
}

// NewGoogleProvider creates a GoogleProvider. WithGoogleAPIKey is required.
func NewGoogleProvider(opts ...Option) *GoogleProvider {
	o := applyOptions(opts)
	base := o.baseURL
	if base == "" {
		base = googleGeocodeURL
	}
	return &GoogleProvider{
		httpClient: o.httpClient,
		baseURL:    base,
		key:        o.googleKey,
	}
}

// Name implements Provider.
func (p *GoogleProvider) Name() string { return ProviderGoogle }

// Lookup implements Provider.
func (p *GoogleProvider) Lookup(ctx context.Context, query string) (*Result, error) {
	if p.key == "" {
		return nil, eris.New("google: api key not configured")
	}

	params := url.Values{
		"address": {query},
		"key":     {p.key},
	}

	reqURL := p.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "google: build request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "google: request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.ClassifyHTTPStatus("google", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "google: read body"), resp.StatusCode)
	}

	var googleResp googleGeocodeResponse
	if err := json.Unmarshal(body, &googleResp); err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "google: parse response"), resp.StatusCode)
	}

	switch googleResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return unmatched(ProviderGoogle), nil
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return nil, resilience.NewTransientError(eris.Errorf("google: status %s", googleResp.Status), resp.StatusCode)
	default:
		// REQUEST_DENIED, INVALID_REQUEST, OVER_DAILY_LIMIT
		return nil, eris.Errorf("google: status %s: %s", googleResp.Status, googleResp.ErrorMessage)
	}

	if len(googleResp.Results) == 0 {
		return unmatched(ProviderGoogle), nil
	}

	result := googleResp.Results[0]
	return &Result{
		Coordinate: Coordinate{
			Latitude:  result.Geometry.Location.Lat,
			Longitude: result.Geometry.Location.Lng,
		},
		Matched:     true,
		DisplayName: result.FormattedAddress,
		Source:      ProviderGoogle,
	}, nil
}
