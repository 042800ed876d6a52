package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/user/cbf_explorer_go/internal/analysis"
	"github.com/user/cbf_explorer_go/internal/dataset"
	"github.com/user/cbf_explorer_go/internal/explorer"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "cbf_explorer.yaml"

// Config is the top-level configuration for the explorer tools.
type Config struct {
	CSVPath   string         `yaml:"csv_path"`
	OutputDir string         `yaml:"output_dir"`
	LogLevel  string         `yaml:"log_level"` // debug, info, warn, error
	Columns   ColumnsConfig  `yaml:"columns"`
	Phases    PhasesConfig   `yaml:"phases"`
	Channels  ChannelsConfig `yaml:"channels"`
	Charts    ChartsConfig   `yaml:"charts"`
}

// ColumnsConfig names the non-channel input columns.
type ColumnsConfig struct {
	Subject string `yaml:"subject"`
	Time    string `yaml:"time"`
	Phase   string `yaml:"phase"`
}

// PhasesConfig controls segmentation of unlabeled recordings.
type PhasesConfig struct {
	FallbackFractions [2]float64 `yaml:"fallback_fractions"`
	FallbackLabels    [3]string  `yaml:"fallback_labels"`
	Resting           string     `yaml:"resting"` // Baseline phase for profile comparison
}

// ChannelsConfig lists the channels the views draw.
type ChannelsConfig struct {
	Series      []string  `yaml:"series"`
	Oxygenation [2]string `yaml:"oxygenation"`
}

// ChartsConfig sizes rendered charts, in points.
type ChartsConfig struct {
	Width            float64 `yaml:"width"`
	Height           float64 `yaml:"height"`
	TickIntervalSecs float64 `yaml:"tick_interval_secs"`
}

// Default returns the dashboard's built-in settings.
func Default() *Config {
	return &Config{
		OutputDir: "reports",
		LogLevel:  "info",
		Columns:   ColumnsConfig{Subject: "Subject", Time: "Time", Phase: "Phase"},
		Phases: PhasesConfig{
			FallbackFractions: [2]float64{analysis.DefaultStandFraction, analysis.DefaultSitFraction},
			FallbackLabels:    analysis.DefaultFallbackLabels,
			Resting:           dataset.PhaseResting,
		},
		Channels: ChannelsConfig{
			Series:      append([]string(nil), dataset.DefaultChannels...),
			Oxygenation: [2]string{dataset.ChannelIR850, dataset.ChannelIR805},
		},
		Charts: ChartsConfig{Width: 800, Height: 400, TickIntervalSecs: 300},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path tries DefaultFile and silently skips it when absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.CSVPath = getEnv("CBF_CSV_PATH", c.CSVPath)
	c.OutputDir = getEnv("CBF_OUTPUT_DIR", c.OutputDir)
	c.LogLevel = getEnv("CBF_LOG_LEVEL", c.LogLevel)
	c.Charts.TickIntervalSecs = getEnvAsFloat("CBF_TICK_INTERVAL_SECS", c.Charts.TickIntervalSecs)
}

// Validate rejects settings the explorer cannot run with.
func (c *Config) Validate() error {
	if c.Columns.Subject == "" || c.Columns.Time == "" {
		return fmt.Errorf("columns.subject and columns.time are required")
	}
	if err := c.Segmenter().Validate(); err != nil {
		return fmt.Errorf("phases.fallback_fractions: %w", err)
	}
	if c.Charts.Width <= 0 || c.Charts.Height <= 0 {
		return fmt.Errorf("charts.width and charts.height must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Segmenter builds the phase segmenter described by the config.
func (c *Config) Segmenter() *analysis.Segmenter {
	return &analysis.Segmenter{
		Fractions:      c.Phases.FallbackFractions,
		FallbackLabels: c.Phases.FallbackLabels,
	}
}

// ExplorerOptions maps the config onto explorer options.
func (c *Config) ExplorerOptions() explorer.Options {
	return explorer.Options{
		Columns: dataset.Columns{
			Subject: c.Columns.Subject,
			Time:    c.Columns.Time,
			Phase:   c.Columns.Phase,
		},
		Segmenter:        c.Segmenter(),
		OxygenChannels:   c.Channels.Oxygenation,
		RestingPhase:     c.Phases.Resting,
		DefaultChannels:  append([]string(nil), c.Channels.Series...),
		TickIntervalSecs: c.Charts.TickIntervalSecs,
	}
}

// getEnv returns the environment value for key, or defaultValue when unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
