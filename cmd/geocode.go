package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geocoords/internal/config"
	"github.com/sells-group/geocoords/internal/pipeline"
	"github.com/sells-group/geocoords/pkg/geocode"
)

func runGeocode(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []pipeline.Option
	if showProgress && isatty.IsTerminal(os.Stderr.Fd()) {
		opts = append(opts, pipeline.WithProgress(newProgressBar()))
	}

	cols := pipeline.Columns{Place: placeCol, Address: addressCol, Country: countryCol}
	return geocodeFile(ctx, cfg, args[0], cols, cmd.OutOrStdout(), opts...)
}

// geocodeFile runs one pipeline pass over path and prints a summary table.
func geocodeFile(ctx context.Context, c *config.Config, path string, cols pipeline.Columns, out io.Writer, opts ...pipeline.Option) error {
	if err := c.Validate(); err != nil {
		return err
	}

	runID := uuid.NewString()
	restore := zap.ReplaceGlobals(zap.L().With(zap.String("run_id", runID)))
	defer restore()

	provider, err := buildProvider(c.Geocode)
	if err != nil {
		return err
	}

	start := time.Now()
	summary, err := pipeline.New(provider, opts...).Run(ctx, path, cols)
	if err != nil {
		return eris.Wrap(err, "geocode: run")
	}

	printSummary(out, summary, time.Since(start))
	return nil
}

func printSummary(out io.Writer, s *pipeline.Summary, elapsed time.Duration) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Metric", "Value"})
	table.AppendBulk([][]string{
		{"file", s.Path},
		{"rows", strconv.Itoa(s.Rows)},
		{"resolved", strconv.Itoa(s.Resolved)},
		{"unresolved", strconv.Itoa(s.Unresolved)},
		{"skipped", strconv.Itoa(s.Skipped)},
		{"distinct queries", strconv.Itoa(s.Geocode.CacheEntries)},
		{"cache hits", strconv.Itoa(s.Geocode.CacheHits)},
		{"provider calls", strconv.Itoa(s.Geocode.ProviderCalls)},
		{"retries exhausted", strconv.Itoa(s.Geocode.Exhausted)},
		{"elapsed", elapsed.Round(time.Millisecond).String()},
	})
	table.Render()
}

// newProgressBar returns a progress callback that draws a bar on stderr. The
// bar is created on the first call, once the row count is known.
func newProgressBar() func(done, total int) {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Geocoding"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}
}

// buildProvider creates the configured geocoding provider.
func buildProvider(gc config.GeocodeConfig) (geocode.Provider, error) {
	var opts []geocode.Option
	switch gc.Provider {
	case geocode.ProviderNominatim:
		opts = append(opts, geocode.WithUserAgent(gc.UserAgent))
		if gc.NominatimURL != "" {
			opts = append(opts, geocode.WithBaseURL(gc.NominatimURL))
		}
	case geocode.ProviderOSM:
		if gc.NominatimURL != "" {
			opts = append(opts, geocode.WithBaseURL(gc.NominatimURL))
		}
		if gc.UserAgent != "" {
			zap.L().Warn("osm provider does not send geocode.user_agent; public Nominatim may reject its requests",
				zap.String("user_agent", gc.UserAgent))
		}
	case geocode.ProviderGoogle:
		opts = append(opts, geocode.WithGoogleAPIKey(gc.GoogleKey))
	}

	p, err := geocode.NewProvider(gc.Provider, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build provider")
	}
	return p, nil
}
