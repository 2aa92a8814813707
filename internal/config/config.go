package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log formats accepted by InitLogger.
const (
	FormatAuto    = "auto"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds the full application configuration.
type Config struct {
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// GeocodeConfig selects and configures the geocoding provider.
type GeocodeConfig struct {
	Provider     string `yaml:"provider" mapstructure:"provider"`
	NominatimURL string `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	GoogleKey    string `yaml:"google_key" mapstructure:"google_key"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. A .env file in the
// working directory, if present, is loaded into the environment first without
// overriding variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOCOORDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", FormatAuto)
	v.SetDefault("geocode.provider", "nominatim")
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "geo_pipeline")
	v.SetDefault("geocode.google_key", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Geocode.Provider {
	case "nominatim", "osm":
	case "google":
		if c.Geocode.GoogleKey == "" {
			return eris.New("config: geocode.google_key is required for the google provider")
		}
	default:
		return eris.Errorf("config: unknown geocode.provider %q", c.Geocode.Provider)
	}

	switch c.Log.Format {
	case FormatAuto, FormatJSON, FormatConsole, "":
	default:
		return eris.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

// InitLogger initializes the global zap logger. Logs go to stderr so stdout
// stays free for command output.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if resolveFormat(cfg.Format) == FormatConsole {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// resolveFormat maps "auto" to console on a terminal and json otherwise.
func resolveFormat(format string) string {
	if format != FormatAuto && format != "" {
		return format
	}
	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return FormatConsole
	}
	return FormatJSON
}
