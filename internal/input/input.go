package input

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const StdinPath = "-"

type Input struct {
	logger zerolog.Logger
	paths  []string // Originally configured paths, possibly glob patterns
}

type InputOptions struct {
	Logger zerolog.Logger
	Paths  []string
}

func NewInput(opts InputOptions) *Input {
	return &Input{
		logger: opts.Logger,
		paths:  opts.Paths,
	}
}

// Resolve expands glob patterns and drops files already matched by earlier paths.
// Files come out in configured order, each glob's matches sorted lexically.
func (i *Input) Resolve() ([]string, error) {
	var resolved []string

	for _, path := range i.paths {
		if path == StdinPath || !strings.ContainsAny(path, "*?[") {
			resolved = append(resolved, path)
			continue
		}

		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %s: %w", path, err)
		}
		if len(matches) == 0 {
			i.logger.Warn().Msgf("no file matches %s", path)
		}
		resolved = append(resolved, matches...)
	}

	resolved = lo.UniqBy(resolved, func(path string) string {
		if path == StdinPath {
			return path
		}
		if absPath, err := filepath.Abs(path); err == nil {
			return absPath
		}
		return path
	})

	if len(resolved) == 0 {
		return nil, fmt.Errorf("no input file resolved from %v", i.paths)
	}
	return resolved, nil
}

// Open returns a line source for a resolved path. Stdin is never closed.
func Open(path string) (io.ReadCloser, error) {
	if path == StdinPath {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open input %s: %w", path, err)
	}
	return f, nil
}
