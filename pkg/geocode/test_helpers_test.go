package geocode

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sells-group/geocoords/internal/resilience"
)

// newRewriteClient creates an HTTP client that rewrites requests to a test server URL.
// All requests matching the target prefix are redirected to the test server.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			base:         http.DefaultTransport,
			testServer:   testServerURL,
			targetPrefix: targetPrefix,
		},
	}
}

type rewriteTransport struct {
	base         http.RoundTripper
	testServer   string
	targetPrefix string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if strings.HasPrefix(origURL, t.targetPrefix) {
		suffix := origURL[len(t.targetPrefix):]
		newURL := t.testServer + suffix
		newReq := req.Clone(req.Context())
		parsed, err := req.URL.Parse(newURL)
		if err != nil {
			return nil, err
		}
		newReq.URL = parsed
		newReq.Host = parsed.Host
		return t.base.RoundTrip(newReq)
	}
	return t.base.RoundTrip(req)
}

// step is one scripted provider answer.
type step struct {
	result *Result
	err    error
}

func match(lat, lon float64) step {
	return step{result: &Result{Coordinate: Coordinate{Latitude: lat, Longitude: lon}, Matched: true, Source: "fake"}}
}

func noMatch() step {
	return step{result: &Result{Matched: false, Source: "fake"}}
}

func transient() step {
	return step{err: resilience.NewTransientError(errors.New("fake: timed out"), 0)}
}

func permanent() step {
	return step{err: errors.New("fake: request denied")}
}

// fakeProvider replays scripted answers per query. When a query's script runs
// out, the last step repeats.
type fakeProvider struct {
	scripts map[string][]step
	calls   map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		scripts: make(map[string][]step),
		calls:   make(map[string]int),
	}
}

func (f *fakeProvider) on(query string, steps ...step) *fakeProvider {
	f.scripts[query] = steps
	return f
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Lookup(ctx context.Context, query string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := f.calls[query]
	f.calls[query] = n + 1

	steps, ok := f.scripts[query]
	if !ok || len(steps) == 0 {
		return noMatch().result, nil
	}
	if n >= len(steps) {
		n = len(steps) - 1
	}
	s := steps[n]
	return s.result, s.err
}

func (f *fakeProvider) totalCalls() int {
	var total int
	for _, n := range f.calls {
		total += n
	}
	return total
}
