package config

import (
	"fmt"
	"os"

	"github.com/hainenber/sieve/internal/output"
	"github.com/hainenber/sieve/internal/sidelog"
	"github.com/hainenber/sieve/internal/workflow"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

type Config struct {
	LogLevel string                  `koanf:"log_level"`
	Input    workflow.InputConfig    `koanf:"input"`
	Parser   workflow.ParserConfig   `koanf:"parser"`
	Decoder  workflow.DecoderConfig  `koanf:"decoder"`
	Modifier workflow.ModifierConfig `koanf:"modifier"`
	Output   workflow.OutputConfig   `koanf:"output"`
	Metrics  workflow.MetricsConfig  `koanf:"metrics"`
}

const (
	DefaultConfigPath  = "sieve.yaml"
	DefaultMaxLineSize = 1024 * 1024
)

// DefaultConfig leaves slices empty: koanf merges decoded lists into pre-filled ones
// element by element. An empty parser.error_types falls back to the parser's defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: zerolog.LevelInfoValue,
		Input: workflow.InputConfig{
			MaxLineSize: DefaultMaxLineSize,
		},
		Decoder: workflow.DecoderConfig{
			SideLogPath: sidelog.DefaultPath,
		},
		Output: workflow.OutputConfig{
			Path:   output.DefaultPath,
			Format: output.CSVFormat,
		},
	}
}

// NewConfig loads YAML config on top of defaults. Validation is left to Validate
// as CLI flags may still override loaded values.
func NewConfig(configPath string) (*Config, error) {
	// Check if input config path exists
	_, err := os.Stat(configPath)
	if err != nil && os.IsNotExist(err) {
		return nil, err
	}

	// Load YAML config into Koanf instance first
	k := koanf.New(".")
	err = k.Load(file.Provider(configPath), yaml.Parser())
	if err != nil {
		return nil, err
	}

	// Load config stored in Koanf instance into struct, keeping defaults for absent keys
	config := DefaultConfig()
	err = k.Unmarshal("", config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// Validate performs sanity checks before a run
func (c *Config) Validate() error {
	if len(c.Input.Paths) == 0 {
		return fmt.Errorf("no input path configured")
	}
	if c.Input.MaxLineSize <= 0 {
		return fmt.Errorf("max line size must be positive, got %d", c.Input.MaxLineSize)
	}
	if c.Decoder.SideLogPath == "" {
		return fmt.Errorf("side log path is empty")
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output path is empty")
	}
	if !lo.Contains(output.SupportedFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format %q, eligible values are %v", c.Output.Format, output.SupportedFormats)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Modifier.CompilePatterns(); err != nil {
		return err
	}
	return nil
}
