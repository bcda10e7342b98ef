package dataset_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"logicmate/internal/dataset"
	"logicmate/internal/services"
)

const rawManifest = `train: ../train/images
val: ../valid/images
test: ../test/images

nc: 1
names: ['code-snippet']

roboflow:
  workspace: logicmate
  project: code-detect
  url: https://universe.example.com/logicmate/code-detect/dataset/7
`

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, dataset.ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestPrepareRewritesRelativePathsAndStripsURLs(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, rawManifest)

	if err := dataset.Prepare(dir); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	content := string(raw)

	if strings.Contains(content, "http") {
		t.Fatalf("expected URL lines stripped, got:\n%s", content)
	}
	if strings.Contains(content, "../") {
		t.Fatalf("expected relative references rewritten, got:\n%s", content)
	}
	for _, split := range []string{"train", "valid", "test"} {
		want := filepath.Join(dir, split, "images")
		if !strings.Contains(content, want) {
			t.Fatalf("expected %s in manifest, got:\n%s", want, content)
		}
	}

	manifest, err := dataset.ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if manifest.Train != filepath.Join(dir, "train", "images") {
		t.Fatalf("unexpected train path %q", manifest.Train)
	}
	if manifest.NC != 1 || len(manifest.Names) != 1 {
		t.Fatalf("expected class metadata preserved, got nc=%d names=%v", manifest.NC, manifest.Names)
	}
}

func TestPrepareIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, rawManifest)

	if err := dataset.Prepare(dir); err != nil {
		t.Fatalf("first Prepare: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read after first prepare: %v", err)
	}

	// Capture mtime-independent evidence the second pass does not rewrite.
	if err := dataset.Prepare(dir); err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read after second prepare: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected byte-identical manifest after second prepare:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestPrepareMissingManifest(t *testing.T) {
	err := dataset.Prepare(t.TempDir())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestPrepareRejectsManifestMissingSplit(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "train: ../train/images\nval: ../valid/images\nurl: https://example.com/x\n")

	err := dataset.Prepare(dir)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing test key, got %v", err)
	}
}
