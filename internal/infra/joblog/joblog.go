// Package joblog stores each job's execution output in an append-only file
// under the log directory, one delimited record per attempt.
package joblog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Writer struct {
	dir string
}

// NewWriter creates the log directory if needed and returns a sink writing
// to <dir>/job_<id>.log.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the log directory.
func (w *Writer) Dir() string { return w.dir }

// Path returns the log file location for jobID.
func (w *Writer) Path(jobID string) string {
	return filepath.Join(w.dir, "job_"+jobID+".log")
}

// Append writes one log record for an execution attempt. Empty stdout or
// stderr sections are omitted. Records are framed by START/END markers so
// attempts stay distinguishable when read back by a human.
func (w *Writer) Append(jobID string, stdout, stderr []byte, at time.Time) error {
	var buf bytes.Buffer
	buf.WriteString("--- START LOG ENTRY: " + at.Format(time.RFC3339Nano) + " ---\n")
	if len(stdout) > 0 {
		buf.WriteString("--- STDOUT ---\n")
		buf.Write(stdout)
		buf.WriteByte('\n')
	}
	if len(stderr) > 0 {
		buf.WriteString("--- STDERR ---\n")
		buf.Write(stderr)
		buf.WriteByte('\n')
	}
	buf.WriteString("--- END LOG ENTRY ---\n\n")

	f, err := os.OpenFile(w.Path(jobID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open job log %s: %w", jobID, err)
	}
	defer f.Close()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append job log %s: %w", jobID, err)
	}
	return nil
}
