// Package geocode resolves free-text place descriptions to coordinates through
// a pluggable provider, with a per-run memo cache and bounded retries.
package geocode

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Provider names accepted by NewProvider.
const (
	ProviderNominatim = "nominatim"
	ProviderOSM       = "osm"
	ProviderGoogle    = "google"
)

// DefaultUserAgent identifies the tool to public geocoding services.
const DefaultUserAgent = "geo_pipeline"

// Option configures a provider.
type Option func(*options)

type options struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	googleKey  string
}

// WithHTTPClient sets a custom HTTP client for provider requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithBaseURL points the provider at a different endpoint, e.g. a
// self-hosted Nominatim.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithUserAgent sets the User-Agent header sent to the provider.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithGoogleAPIKey sets the API key for the Google provider.
func WithGoogleAPIKey(key string) Option {
	return func(o *options) {
		o.googleKey = key
	}
}

func applyOptions(opts []Option) options {
	o := options{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewProvider builds the named provider.
func NewProvider(name string, opts ...Option) (Provider, error) {
	switch name {
	case "", ProviderNominatim:
		return NewNominatimProvider(opts...), nil
	case ProviderOSM:
		return NewOSMProvider(opts...), nil
	case ProviderGoogle:
		o := applyOptions(opts)
		if o.googleKey == "" {
			return nil, eris.New("geocode: google provider requires an api key")
		}
		return NewGoogleProvider(opts...), nil
	default:
		return nil, eris.Errorf("geocode: unknown provider %q", name)
	}
}
