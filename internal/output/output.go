package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hainenber/sieve/internal/pipeline"
)

const (
	CSVFormat        = "csv"
	JSONLinesFormat  = "jsonl"
	StdoutPath       = "-"
	DefaultPath      = "data/structured_data.csv"
	defaultFileMode  = 0644
	defaultDirectory = 0755
)

var SupportedFormats = []string{CSVFormat, JSONLinesFormat}

// Sink receives records in input order
type Sink interface {
	Write(record *pipeline.Record) error
	// Close flushes buffered rows and releases the underlying writer
	Close() error
}

func NewSink(format string, w io.Writer) (Sink, error) {
	switch format {
	case CSVFormat, "":
		return NewCSVSink(w)
	case JSONLinesFormat:
		return NewJSONLinesSink(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// OpenDestination creates the output file along with its parent directory.
// StdoutPath writes to standard output, which is never closed.
func OpenDestination(path string) (io.WriteCloser, error) {
	if path == StdoutPath {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, defaultDirectory); err != nil {
			return nil, fmt.Errorf("cannot create output directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return nil, fmt.Errorf("cannot open output %s: %w", path, err)
	}
	return f, nil
}
