package joblog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"queuectl/internal/infra/joblog"
)

func TestAppendFormatsOneRecordPerAttempt(t *testing.T) {
	t.Parallel()
	w, err := joblog.NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := w.Append("j1", []byte("out"), []byte("err"), at); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Append("j1", []byte("second"), nil, at.Add(time.Minute)); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, err := os.ReadFile(w.Path("j1"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := string(data)

	if n := strings.Count(got, "--- START LOG ENTRY:"); n != 2 {
		t.Errorf("got %d records, want 2:\n%s", n, got)
	}
	if !strings.Contains(got, "--- START LOG ENTRY: 2024-05-01T12:00:00Z ---\n--- STDOUT ---\nout\n--- STDERR ---\nerr\n--- END LOG ENTRY ---\n\n") {
		t.Errorf("first record malformed:\n%s", got)
	}
	// the second attempt had no stderr, so the section is absent
	second := got[strings.LastIndex(got, "--- START LOG ENTRY:"):]
	if strings.Contains(second, "--- STDERR ---") {
		t.Errorf("empty stderr section present in second record:\n%s", second)
	}
}

func TestNewWriterCreatesDirectory(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	w, err := joblog.NewWriter(dir)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if w.Dir() != dir {
		t.Errorf("Dir() = %s, want %s", w.Dir(), dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("log directory not created: %v", err)
	}
}

func TestPathIsKeyedByJobID(t *testing.T) {
	t.Parallel()
	w, err := joblog.NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if got := filepath.Base(w.Path("abc")); got != "job_abc.log" {
		t.Errorf("Path base = %s, want job_abc.log", got)
	}
}
