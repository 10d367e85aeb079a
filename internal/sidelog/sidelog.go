package sidelog

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

const DefaultPath = "invalid_base64_logs.txt"

// Entry is a single payload decoding failure kept for later inspection
type Entry struct {
	Outcome   string
	Candidate string
	Cause     error
}

// File is an append-only side log.
// The file is opened, appended to and closed for every entry so a crash mid-run
// never leaves earlier entries half-written.
type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

// Append writes one line for the entry. Existing content is never truncated.
func (f *File) Append(entry Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot open side log %s: %w", f.path, err)
	}

	// zerolog swallows writer errors, so encode first and write ourselves
	var line bytes.Buffer
	entryLogger := zerolog.New(&line).With().Timestamp().Logger()
	entryLogger.Error().
		Err(entry.Cause).
		Str("outcome", entry.Outcome).
		Str("data", entry.Candidate).
		Msg("error decoding base64 payload")

	if _, err = file.Write(line.Bytes()); err != nil {
		file.Close()
		return fmt.Errorf("cannot write side log %s: %w", f.path, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("cannot close side log %s: %w", f.path, err)
	}
	return nil
}
