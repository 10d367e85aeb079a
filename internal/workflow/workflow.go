package workflow

import (
	"fmt"
	"regexp"
)

type InputConfig struct {
	Paths       []string `koanf:"paths"`
	MaxLineSize int      `koanf:"max_line_size"`
}

type ParserConfig struct {
	ErrorTypes []string `koanf:"error_types"`
}

type DecoderConfig struct {
	SideLogPath string `koanf:"side_log_path"`
}

type ModifierConfig struct {
	AddFields     map[string]string     `koanf:"add_fields"`
	DropFields    []string              `koanf:"drop_fields"`
	ReplaceFields []ReplaceFieldSetting `koanf:"replace_fields"`
}

type ReplaceFieldSetting struct {
	Path        string `koanf:"path"`
	Pattern     string `koanf:"pattern"`
	Replacement string `koanf:"replacement"`
}

type OutputConfig struct {
	Path   string `koanf:"path"`
	Format string `koanf:"format"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// IsEmpty reports whether the modifier stage has nothing to do
func (m ModifierConfig) IsEmpty() bool {
	return len(m.AddFields) == 0 && len(m.DropFields) == 0 && len(m.ReplaceFields) == 0
}

// CompilePatterns compiles every replace-field pattern, in declaration order
func (m ModifierConfig) CompilePatterns() ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, len(m.ReplaceFields))
	for i, setting := range m.ReplaceFields {
		if setting.Path == "" {
			return nil, fmt.Errorf("empty path for replace field #%d", i)
		}
		pattern, err := regexp.Compile(setting.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern for replace field %s: %w", setting.Path, err)
		}
		patterns[i] = pattern
	}
	return patterns, nil
}
