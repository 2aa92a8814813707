package geocode

import "strings"

// queryDelimiter joins the parts of a query.
const queryDelimiter = ", "

// Query is a free-text location description assembled from up to three
// columns. Empty parts are treated as absent.
type Query struct {
	Address string
	Place   string
	Country string
}

// String returns the provider query: address, place and country in that
// order, skipping absent parts. It is also the cache key, so two queries are
// the same lookup iff their strings are equal (case-sensitive).
func (q Query) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{q.Address, q.Place, q.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, queryDelimiter)
}
