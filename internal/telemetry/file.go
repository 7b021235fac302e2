package telemetry

import (
	"fmt"
	"os"
)

// FileSink appends report lines to a durable log file. A sink that
// cannot be opened is a reported, non-fatal condition; the daemon keeps
// running without it.
type FileSink struct {
	f *os.File
}

// NewFileSink opens (or creates) the append-only log file.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open telemetry log %s: %w", path, err)
	}
	return &FileSink{f: f}, nil
}

// Write appends the line.
func (s *FileSink) Write(line string) error {
	if _, err := s.f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append telemetry log: %w", err)
	}
	return nil
}

// Close closes the log file.
func (s *FileSink) Close() error {
	return s.f.Close()
}
