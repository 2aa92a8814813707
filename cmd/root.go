package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sells-group/geocoords/internal/config"
)

var cfg *config.Config

var (
	placeCol     string
	addressCol   string
	countryCol   string
	showProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "geocoords <path>",
	Short: "Add coordinates to a table of places",
	Long: `Geocodes the place named on each row of a CSV, TSV or XLSX file and writes
latitude, longitude and Earth-centered Cartesian coordinates (coord_x,
coord_y, coord_z in km) back into the same file.

Examples:
  # Place names only
  geocoords cities.csv --place-col city

  # Place plus optional address and country columns
  geocoords stores.xlsx --place-col city --address-col street --country-col country`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	RunE: runGeocode,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// flagAliases maps the column flag spellings of the earlier geocoding script
// onto the current names.
var flagAliases = map[string]string{
	"city_col":    "place-col",
	"address_col": "address-col",
	"country_col": "country-col",
}

func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if alias, ok := flagAliases[name]; ok {
		name = alias
	}
	return pflag.NormalizedName(name)
}

func init() {
	rootCmd.Flags().SetNormalizeFunc(normalizeFlagName)
	rootCmd.Flags().StringVar(&placeCol, "place-col", "", "column holding the place name (required)")
	rootCmd.Flags().StringVar(&addressCol, "address-col", "", "column holding a street address")
	rootCmd.Flags().StringVar(&countryCol, "country-col", "", "column holding the country")
	rootCmd.Flags().BoolVar(&showProgress, "progress", false, "draw a progress bar on stderr when it is a terminal")
	_ = rootCmd.MarkFlagRequired("place-col")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
