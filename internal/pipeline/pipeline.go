// Package pipeline enriches a tabular file with coordinates for the place
// named on each row and writes the result back to the same file.
package pipeline

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocoords/internal/geospatial"
	"github.com/sells-group/geocoords/internal/table"
	"github.com/sells-group/geocoords/pkg/geocode"
)

// Output column names, in the order they are appended.
const (
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
	ColX         = "coord_x"
	ColY         = "coord_y"
	ColZ         = "coord_z"
)

var outputColumns = []string{ColLatitude, ColLongitude, ColX, ColY, ColZ}

// Columns names the input columns used to build each row's query. Place is
// required; Address and Country are optional and ignored when empty.
type Columns struct {
	Place   string
	Address string
	Country string
}

// Summary reports the outcome of a Run.
type Summary struct {
	Path       string
	Rows       int
	Resolved   int
	Unresolved int
	Skipped    int
	Geocode    geocode.Stats
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithResolverOptions passes options to the Resolver created for each Run.
func WithResolverOptions(opts ...geocode.ResolverOption) Option {
	return func(p *Pipeline) {
		p.resolverOpts = append(p.resolverOpts, opts...)
	}
}

// WithProgress registers fn to be called after each row with the number of
// rows processed so far and the total.
func WithProgress(fn func(done, total int)) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

// Pipeline geocodes every row of a table.
type Pipeline struct {
	provider     geocode.Provider
	resolverOpts []geocode.ResolverOption
	progress     func(done, total int)
}

// New creates a Pipeline that looks places up with provider.
func New(provider geocode.Provider, opts ...Option) *Pipeline {
	p := &Pipeline{provider: provider}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type columnIndex struct {
	place, address, country int
	out                     [5]int
}

// Run reads the table at path, resolves each row and writes the five output
// columns back in place. Row failures leave the row's outputs empty and never
// abort the run. A missing input column, a read or write failure, or context
// cancellation is returned as an error; in those cases the file is not
// modified.
func (p *Pipeline) Run(ctx context.Context, path string, cols Columns) (*Summary, error) {
	log := zap.L().With(zap.String("path", path))

	tbl, err := table.Read(path)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read table")
	}

	idx, err := resolveColumns(tbl, cols)
	if err != nil {
		return nil, err
	}

	resolver := geocode.NewResolver(p.provider, geocode.NewCache(), p.resolverOpts...)
	summary := &Summary{Path: path, Rows: tbl.Len()}

	log.Info("starting geocoding run",
		zap.Int("rows", tbl.Len()),
		zap.String("provider", p.provider.Name()),
	)

	for row := 0; row < tbl.Len(); row++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "pipeline: run cancelled")
		}

		q := geocode.Query{
			Place:   cell(tbl, row, idx.place),
			Address: cell(tbl, row, idx.address),
			Country: cell(tbl, row, idx.country),
		}

		log.Info("processing row",
			zap.Int("row", row+1),
			zap.Int("total", tbl.Len()),
			zap.String("place", q.Place),
			zap.String("address", q.Address),
			zap.String("country", q.Country),
		)

		if q.Place == "" {
			log.Warn("skipping row with no place", zap.Int("row", row+1))
			summary.Skipped++
			writeOutputs(tbl, row, idx.out, nil)
			p.reportProgress(row+1, tbl.Len())
			continue
		}

		coord, err := resolver.Resolve(ctx, q)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: resolve row")
		}
		if coord == nil {
			summary.Unresolved++
		} else {
			summary.Resolved++
		}
		writeOutputs(tbl, row, idx.out, coord)
		p.reportProgress(row+1, tbl.Len())
	}

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: run cancelled")
	}
	if err := tbl.Write(path); err != nil {
		return nil, eris.Wrap(err, "pipeline: write table")
	}

	summary.Geocode = resolver.Stats()
	log.Info("geocoding run complete",
		zap.Int("rows", summary.Rows),
		zap.Int("resolved", summary.Resolved),
		zap.Int("unresolved", summary.Unresolved),
		zap.Int("skipped", summary.Skipped),
		zap.Int("cache_entries", summary.Geocode.CacheEntries),
		zap.Int("cache_hits", summary.Geocode.CacheHits),
		zap.Int("provider_calls", summary.Geocode.ProviderCalls),
		zap.Int("exhausted", summary.Geocode.Exhausted),
	)
	return summary, nil
}

func (p *Pipeline) reportProgress(done, total int) {
	if p.progress != nil {
		p.progress(done, total)
	}
}

// resolveColumns checks every named input column exists and then ensures the
// output columns. Nothing is added to the table when validation fails.
func resolveColumns(tbl *table.Table, cols Columns) (columnIndex, error) {
	idx := columnIndex{place: -1, address: -1, country: -1}

	if cols.Place == "" {
		return idx, eris.New("pipeline: place column is required")
	}

	named := []struct {
		name string
		dst  *int
	}{
		{cols.Place, &idx.place},
		{cols.Address, &idx.address},
		{cols.Country, &idx.country},
	}
	for _, n := range named {
		if n.name == "" {
			continue
		}
		i := tbl.ColumnIndex(n.name)
		if i < 0 {
			return idx, eris.Errorf("pipeline: column %q not found", n.name)
		}
		*n.dst = i
	}

	for i, name := range outputColumns {
		idx.out[i] = tbl.EnsureColumn(name)
	}
	return idx, nil
}

// cell returns the normalized value at (row, col), or "" for an unused column.
func cell(tbl *table.Table, row, col int) string {
	if col < 0 {
		return ""
	}
	return normalize(tbl.Get(row, col))
}

// writeOutputs fills the five output cells, or clears them when coord is nil.
func writeOutputs(tbl *table.Table, row int, out [5]int, coord *geocode.Coordinate) {
	if coord == nil {
		for _, col := range out {
			tbl.Set(row, col, "")
		}
		return
	}

	pt := geospatial.ToCartesian(coord.Latitude, coord.Longitude)
	values := [5]float64{coord.Latitude, coord.Longitude, pt.X, pt.Y, pt.Z}
	for i, col := range out {
		tbl.Set(row, col, formatFloat(values[i]))
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
