// Package audit appends one JSON Lines record per hook invocation, giving a
// durable trail of what the engine decided and why.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is one invocation's audit entry.
type Record struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	SessionID string    `json:"session_id"`
	EventKind string    `json:"event_kind"`
	Tool      string    `json:"tool,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
	Outcome   string    `json:"outcome"`
	Blocked   []string  `json:"blocked,omitempty"`
	Suggested []string  `json:"suggested,omitempty"`
}

// Writer appends records to the configured output. A nil Writer is valid
// and discards records, so callers never branch on whether auditing is on.
type Writer struct {
	out    io.Writer
	closer io.Closer
	logger *slog.Logger
}

// NewWriter builds a writer for the configured output:
// "none" (or empty) disables auditing, "stdout" writes to standard output,
// and "file://<absolute-path>" appends to a log file.
//
// Hook stdout carries protocol output, so "stdout" is only appropriate for
// the non-hook commands; the hook commands pass their stderr instead.
func NewWriter(output string, stdout io.Writer, logger *slog.Logger) (*Writer, error) {
	switch {
	case output == "" || output == "none":
		return nil, nil
	case output == "stdout":
		return &Writer{out: stdout, logger: logger}, nil
	case strings.HasPrefix(output, "file://"):
		path := strings.TrimPrefix(output, "file://")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		return &Writer{out: f, closer: f, logger: logger}, nil
	default:
		return nil, fmt.Errorf("invalid audit output %q", output)
	}
}

// Write appends one record. The record id is filled in when empty. Audit
// failures are logged, never fatal: auditing must not turn an allow into a
// crash the caller could misread.
func (w *Writer) Write(rec Record) {
	if w == nil {
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		w.logger.Warn("marshal audit record", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := w.out.Write(data); err != nil {
		w.logger.Warn("write audit record", "error", err)
	}
}

// Close releases the underlying file, if any.
func (w *Writer) Close() error {
	if w == nil || w.closer == nil {
		return nil
	}
	return w.closer.Close()
}
