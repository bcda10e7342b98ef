package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"logicmate/internal/logging"
)

func TestCleanupOldLogsPrunesByPatternAndAge(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "logicmate-20200101.log")
	fresh := filepath.Join(dir, "logicmate-20991231.log")
	unrelated := filepath.Join(dir, "runs.db")
	for _, path := range []string{stale, fresh, unrelated} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	old := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("age stale file: %v", err)
	}
	if err := os.Chtimes(unrelated, old, old); err != nil {
		t.Fatalf("age unrelated file: %v", err)
	}

	logging.CleanupOldLogs(logging.NewNop(), dir, logging.LogFilePattern, 7)

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale log pruned, stat err = %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected fresh log kept: %v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatalf("expected non-matching file kept: %v", err)
	}
}

func TestCleanupOldLogsDisabledByZeroRetention(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "logicmate-20200101.log")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	old := time.Now().AddDate(0, 0, -365)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("age file: %v", err)
	}

	logging.CleanupOldLogs(logging.NewNop(), dir, logging.LogFilePattern, 0)

	if _, err := os.Stat(stale); err != nil {
		t.Fatalf("expected file untouched with retention disabled: %v", err)
	}
}
