//nolint:lll
package config

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/tallyocr/internal/correction"
	"github.com/MeKo-Tech/tallyocr/internal/pipeline"
	"github.com/MeKo-Tech/tallyocr/internal/recognizer"
)

// Config represents the complete configuration for tallyocr. It is loaded
// from configuration files, environment variables, and command-line flags.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Raster     RasterConfig     `mapstructure:"raster" yaml:"raster" json:"raster"`
	Engine     EngineConfig     `mapstructure:"engine" yaml:"engine" json:"engine"`
	Parallel   ParallelConfig   `mapstructure:"parallel" yaml:"parallel" json:"parallel"`
	Correction CorrectionConfig `mapstructure:"correction" yaml:"correction" json:"correction"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output" json:"output"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// RasterConfig controls how input files become page images.
type RasterConfig struct {
	DPI      int    `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	Pages    string `mapstructure:"pages" yaml:"pages" json:"pages"`
	Password string `mapstructure:"password" yaml:"password" json:"-"`
}

// EngineConfig selects and tunes the recognition engine.
type EngineConfig struct {
	Kind     string        `mapstructure:"kind" yaml:"kind" json:"kind"`
	Binary   string        `mapstructure:"binary" yaml:"binary" json:"binary"`
	Language string        `mapstructure:"language" yaml:"language" json:"language"`
	OEM      int           `mapstructure:"oem" yaml:"oem" json:"oem"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// ParallelConfig bounds concurrency.
type ParallelConfig struct {
	// MaxWorkers is the pass worker count; 0 means runtime.NumCPU().
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers" json:"max_workers"`
	MaxPages   int `mapstructure:"max_pages" yaml:"max_pages" json:"max_pages"`
}

// CorrectionConfig locates correction data.
type CorrectionConfig struct {
	TablesFile     string `mapstructure:"tables_file" yaml:"tables_file" json:"tables_file"`
	LexiconFile    string `mapstructure:"lexicon_file" yaml:"lexicon_file" json:"lexicon_file"`
	StrictTables   bool   `mapstructure:"strict_tables" yaml:"strict_tables" json:"strict_tables"`
	CanonicalWords bool   `mapstructure:"canonical_words" yaml:"canonical_words" json:"canonical_words"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format        string `mapstructure:"format" yaml:"format" json:"format"`
	File          string `mapstructure:"file" yaml:"file" json:"file"`
	IncludePasses bool   `mapstructure:"include_passes" yaml:"include_passes" json:"include_passes"`
}

// MetricsConfig contains the Prometheus textfile export path.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile" json:"textfile"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	engine := recognizer.DefaultEngineConfig()
	return Config{
		LogLevel: "info",
		Raster: RasterConfig{
			DPI: pipeline.DefaultDPI,
		},
		Engine: EngineConfig{
			Kind:     engine.Kind,
			Binary:   engine.Binary,
			Language: engine.Language,
			OEM:      engine.OEM,
			Timeout:  recognizer.DefaultTimeout,
		},
		Parallel: ParallelConfig{
			MaxWorkers: 0,
			MaxPages:   pipeline.DefaultMaxPages,
		},
		Correction: CorrectionConfig{
			CanonicalWords: true,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json"}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	validEngines := []string{recognizer.EngineExec, recognizer.EngineGosseract}
	if !slices.Contains(validEngines, c.Engine.Kind) {
		return fmt.Errorf("invalid engine kind: %s (must be one of: %s)", c.Engine.Kind, strings.Join(validEngines, ", "))
	}
	if c.Engine.Kind == recognizer.EngineExec && c.Engine.Binary == "" {
		return errors.New("engine.binary is required for the exec engine")
	}
	if c.Engine.Language == "" {
		return errors.New("engine.language cannot be empty")
	}
	if c.Engine.OEM < 0 || c.Engine.OEM > 3 {
		return fmt.Errorf("invalid engine oem: %d (must be between 0 and 3)", c.Engine.OEM)
	}
	if c.Engine.Timeout < 0 {
		return fmt.Errorf("invalid engine timeout: %v (must not be negative)", c.Engine.Timeout)
	}

	if c.Raster.DPI <= 0 {
		return fmt.Errorf("invalid raster dpi: %d (must be positive)", c.Raster.DPI)
	}
	if c.Parallel.MaxWorkers < 0 {
		return fmt.Errorf("invalid parallel max workers: %d (must not be negative)", c.Parallel.MaxWorkers)
	}
	if c.Parallel.MaxPages <= 0 {
		return fmt.Errorf("invalid parallel max pages: %d (must be positive)", c.Parallel.MaxPages)
	}
	return nil
}

// ToEngineConfig converts to recognizer.EngineConfig.
func (c *Config) ToEngineConfig() recognizer.EngineConfig {
	cfg := recognizer.DefaultEngineConfig()
	cfg.Kind = c.Engine.Kind
	cfg.Binary = c.Engine.Binary
	cfg.Language = c.Engine.Language
	cfg.OEM = c.Engine.OEM
	if workers := c.workers(); workers < cfg.Clients {
		cfg.Clients = workers
	}
	return cfg
}

// ToPipelineConfig converts the config to the pipeline configuration,
// loading the correction tables file when one is set.
func (c *Config) ToPipelineConfig() (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	cfg.DPI = c.Raster.DPI
	cfg.Timeout = c.Engine.Timeout
	cfg.MaxWorkers = c.workers()
	cfg.MaxPages = c.Parallel.MaxPages

	tables, err := c.LoadTables()
	if err != nil {
		return cfg, err
	}
	cfg.Tables = tables
	return cfg, nil
}

// LoadTables returns the configured correction tables. In strict mode any
// detected conflict is an error.
func (c *Config) LoadTables() (*correction.Tables, error) {
	tables := correction.DefaultTables()
	if c.Correction.TablesFile != "" {
		loaded, err := correction.LoadTables(c.Correction.TablesFile)
		if err != nil {
			return nil, err
		}
		tables = loaded
	}
	if !c.Correction.StrictTables {
		return tables, nil
	}

	lexicon, err := c.LoadLexicon()
	if err != nil {
		return nil, err
	}
	if conflicts := tables.Conflicts(lexicon); len(conflicts) > 0 {
		errs := make([]error, 0, len(conflicts))
		for _, conflict := range conflicts {
			errs = append(errs, errors.New(conflict.String()))
		}
		return nil, fmt.Errorf("correction tables have %d conflicts: %w", len(conflicts), errors.Join(errs...))
	}
	return tables, nil
}

// LoadLexicon returns the configured lexicon, or nil when none is set.
func (c *Config) LoadLexicon() (map[string]struct{}, error) {
	if c.Correction.LexiconFile == "" {
		return nil, nil
	}
	return correction.LoadLexicon(c.Correction.LexiconFile)
}

func (c *Config) workers() int {
	if c.Parallel.MaxWorkers > 0 {
		return c.Parallel.MaxWorkers
	}
	return runtime.NumCPU()
}
