package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "sheetclean/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Cleaning  CleaningConfig  `yaml:"cleaning" envconfig:"CLEANING"`
	Plot      PlotConfig      `yaml:"plot" envconfig:"PLOT"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// CleaningConfig controls how the imputer coerces and fills columns
type CleaningConfig struct {
	Sheet            string   `yaml:"sheet" envconfig:"SHEET"`
	NumericThreshold float64  `yaml:"numeric_threshold" envconfig:"NUMERIC_THRESHOLD" validate:"gte=0,lte=1"`
	Placeholder      string   `yaml:"placeholder" envconfig:"PLACEHOLDER" validate:"required"`
	EmptyNumeric     string   `yaml:"empty_numeric" envconfig:"EMPTY_NUMERIC" validate:"oneof=leave zero"`
	NAValues         []string `yaml:"na_values" envconfig:"NA_VALUES"`
}

// PlotConfig controls histogram rendering
type PlotConfig struct {
	Enabled      bool    `yaml:"enabled" envconfig:"ENABLED"`
	Interactive  bool    `yaml:"interactive" envconfig:"INTERACTIVE"`
	File         string  `yaml:"file" envconfig:"FILE" validate:"required_if=Enabled true"`
	Bins         int     `yaml:"bins" envconfig:"BINS" validate:"min=1,max=1000"`
	WidthInches  float64 `yaml:"width_inches" envconfig:"WIDTH_INCHES" validate:"gt=0,lte=100"`
	HeightInches float64 `yaml:"height_inches" envconfig:"HEIGHT_INCHES" validate:"gt=0,lte=100"`
}

// OutputConfig controls where results are written
type OutputConfig struct {
	File     string `yaml:"file" envconfig:"FILE" validate:"required"`
	Sheet    string `yaml:"sheet" envconfig:"SHEET" validate:"required,max=31"`
	StatsCSV string `yaml:"stats_csv" envconfig:"STATS_CSV"`
}

// TelemetryConfig enables run traces and a Prometheus textfile
type TelemetryConfig struct {
	TraceFile   string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load builds the configuration from defaults, an optional YAML file and
// SHEETCLEAN_* environment variables, in increasing order of precedence.
// An empty configFile falls back to the well-known locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("file", configFile)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize fills values that may be cleared by an empty env var or YAML key
func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	c.Cleaning.EmptyNumeric = strings.ToLower(c.Cleaning.EmptyNumeric)

	if c.Cleaning.NAValues == nil {
		c.Cleaning.NAValues = append([]string(nil), DefaultNAValues...)
	}
	if c.Output.Sheet == "" {
		c.Output.Sheet = DefaultOutputSheet
	}
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"sheetclean.yaml",
		"configs/sheetclean.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Cleaning: CleaningConfig{
			NumericThreshold: DefaultNumericThreshold,
			Placeholder:      DefaultPlaceholder,
			EmptyNumeric:     EmptyNumericLeave,
			NAValues:         append([]string(nil), DefaultNAValues...),
		},
		Plot: PlotConfig{
			Enabled:      true,
			Interactive:  false,
			File:         DefaultFigureFile,
			Bins:         DefaultHistogramBins,
			WidthInches:  DefaultFigureInches,
			HeightInches: DefaultFigureInches,
		},
		Output: OutputConfig{
			File:  DefaultOutputFile,
			Sheet: DefaultOutputSheet,
		},
	}
}
