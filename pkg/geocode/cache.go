package geocode

// Cache memoizes resolutions for the lifetime of one pipeline run. A nil
// entry records a definitive "no match". Retry exhaustion is never stored.
//
// Cache is not safe for concurrent use.
type Cache struct {
	entries map[string]*Coordinate
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Coordinate)}
}

// Get returns the cached coordinate for key and whether key is present.
// A present key with a nil coordinate is a cached negative.
func (c *Cache) Get(key string) (*Coordinate, bool) {
	coord, ok := c.entries[key]
	if !ok || coord == nil {
		return nil, ok
	}
	cp := *coord
	return &cp, true
}

// Put stores coord (nil for "no match") under key.
func (c *Cache) Put(key string, coord *Coordinate) {
	if coord == nil {
		c.entries[key] = nil
		return
	}
	cp := *coord
	c.entries[key] = &cp
}

// Len returns the number of distinct queries cached.
func (c *Cache) Len() int {
	return len(c.entries)
}
