package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"logicmate/internal/preflight"
	"logicmate/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("Models directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for %s: %s", dir, result.Detail)
	}

	missing := preflight.CheckDirectoryAccess("Models directory", filepath.Join(dir, "absent"))
	if missing.Passed || !strings.Contains(missing.Detail, "does not exist") {
		t.Fatalf("expected does-not-exist failure, got %+v", missing)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	notDir := preflight.CheckDirectoryAccess("Models directory", file)
	if notDir.Passed || !strings.Contains(notDir.Detail, "not a directory") {
		t.Fatalf("expected not-a-directory failure, got %+v", notDir)
	}
}

func TestCheckProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	reachable := preflight.CheckProvider(context.Background(), server.URL, "key")
	if !reachable.Passed {
		t.Fatalf("expected reachable provider, got %+v", reachable)
	}

	missingKey := preflight.CheckProvider(context.Background(), server.URL, "")
	if missingKey.Passed || missingKey.Detail != "missing api key" {
		t.Fatalf("expected missing-key failure, got %+v", missingKey)
	}

	server.Close()
	down := preflight.CheckProvider(context.Background(), server.URL, "key")
	if down.Passed {
		t.Fatalf("expected failure against closed server, got %+v", down)
	}
}

func TestRunAllCoversDirectoriesAndBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := preflight.RunAll(context.Background(), cfg)
	names := make(map[string]preflight.Result, len(results))
	for _, result := range results {
		names[result.Name] = result
	}
	for _, want := range []string{"Models directory", "Datasets directory", "Output directory", "Log directory", "Trainer"} {
		result, ok := names[want]
		if !ok {
			t.Fatalf("missing check %q in %+v", want, results)
		}
		if !result.Passed {
			t.Fatalf("check %q failed: %s", want, result.Detail)
		}
	}
	// Provider is unset, so no provider check appears.
	if _, ok := names["Dataset provider"]; ok {
		t.Fatal("provider check should be skipped without a configured project")
	}
	if !preflight.Passed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}
}

func TestRunAllFlagsMissingDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	results := preflight.RunAll(context.Background(), cfg)
	if preflight.Passed(results) {
		t.Fatal("expected failures for missing directories")
	}
}

func TestCollectHostReport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	report := preflight.CollectHostReport(cfg)
	if report.CPUCount <= 0 {
		t.Fatalf("cpu count = %d", report.CPUCount)
	}
	if report.TotalMemory == 0 {
		t.Fatal("expected total memory")
	}
	if report.Device == "" {
		t.Fatal("expected a selected device")
	}
	if !strings.Contains(report.MemoryDetail(), "GiB") {
		t.Fatalf("memory detail = %q", report.MemoryDetail())
	}
}
