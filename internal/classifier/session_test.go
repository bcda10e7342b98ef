package classifier_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"logicmate/internal/classifier"
	"logicmate/internal/detect"
	"logicmate/internal/logging"
	"logicmate/internal/services"
	"logicmate/internal/testsupport"
)

// stubDetector returns a fixed number of detections per image basename.
type stubDetector struct {
	counts map[string]int
	bad    map[string]bool
	closed bool
}

func (d *stubDetector) Detect(imagePath string) ([]detect.Detection, error) {
	name := filepath.Base(imagePath)
	if d.bad[name] {
		return nil, services.Wrap(detect.ErrUndecodable, "dnn", "detect", imagePath, nil)
	}
	count := d.counts[name]
	detections := make([]detect.Detection, count)
	for i := range detections {
		detections[i] = detect.Detection{XMin: float64(i), XMax: float64(i + 5), YMax: 5, Confidence: 0.9}
	}
	return detections, nil
}

func (d *stubDetector) Close() error {
	d.closed = true
	return nil
}

func newSession(t *testing.T, det classifier.Detector) *classifier.Session {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return classifier.NewSession(cfg, logging.NewNop(), classifier.WithModelLoader(
		func(string) (classifier.Detector, error) { return det, nil },
	))
}

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("image-bytes"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestFilterKeepsImagesAboveThreshold(t *testing.T) {
	imagesDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "filtered")
	writeImages(t, imagesDir, "1.jpg", "2.jpg", "3.png", "4.webp", "5.jpeg")

	det := &stubDetector{counts: map[string]int{
		"1.jpg": 4, "2.jpg": 2, "3.png": 4, "4.webp": 2, "5.jpeg": 2,
	}}
	session := newSession(t, det)
	if err := session.SetModel(classifier.SubjectCode, "model.onnx"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}

	records, err := session.Filter(classifier.SubjectCode, imagesDir, outputDir)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 kept images, got %d", len(records))
	}
	kept := map[string]bool{}
	for _, record := range records {
		kept[filepath.Base(record.Path)] = true
	}
	if !kept["1.jpg"] || !kept["3.png"] {
		t.Fatalf("unexpected kept set: %v", kept)
	}

	// Exactly the kept files are copied; sources remain in place.
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 copies, got %d", len(entries))
	}
	for _, name := range []string{"1.jpg", "2.jpg", "3.png", "4.webp", "5.jpeg"} {
		if _, err := os.Stat(filepath.Join(imagesDir, name)); err != nil {
			t.Fatalf("source %s should be untouched: %v", name, err)
		}
	}
}

func TestFilterThresholdIsStrict(t *testing.T) {
	imagesDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	writeImages(t, imagesDir, "exact.jpg", "above.jpg")

	// Default threshold is 3: exactly 3 is excluded, 4 is included.
	det := &stubDetector{counts: map[string]int{"exact.jpg": 3, "above.jpg": 4}}
	session := newSession(t, det)
	if err := session.SetModel(classifier.SubjectDiagram, "model.onnx"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}

	records, err := session.Filter(classifier.SubjectDiagram, imagesDir, outputDir)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(records) != 1 || filepath.Base(records[0].Path) != "above.jpg" {
		t.Fatalf("expected only above.jpg kept, got %v", records)
	}
}

func TestFilterSkipsUndecodableImages(t *testing.T) {
	imagesDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	writeImages(t, imagesDir, "good.jpg", "corrupt.jpg")

	det := &stubDetector{
		counts: map[string]int{"good.jpg": 5},
		bad:    map[string]bool{"corrupt.jpg": true},
	}
	session := newSession(t, det)
	if err := session.SetModel(classifier.SubjectCode, "model.onnx"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}

	records, err := session.Filter(classifier.SubjectCode, imagesDir, outputDir)
	if err != nil {
		t.Fatalf("decode failures must not fail the batch: %v", err)
	}
	if len(records) != 1 || filepath.Base(records[0].Path) != "good.jpg" {
		t.Fatalf("expected only good.jpg kept, got %v", records)
	}
}

func TestFilterIgnoresDisallowedExtensions(t *testing.T) {
	imagesDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	writeImages(t, imagesDir, "keep.jpg", "notes.txt", "video.mp4")

	det := &stubDetector{counts: map[string]int{"keep.jpg": 9, "notes.txt": 9, "video.mp4": 9}}
	session := newSession(t, det)
	if err := session.SetModel(classifier.SubjectCode, "model.onnx"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}

	records, err := session.Filter(classifier.SubjectCode, imagesDir, outputDir)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(records) != 1 || filepath.Base(records[0].Path) != "keep.jpg" {
		t.Fatalf("expected only keep.jpg considered, got %v", records)
	}
}

func TestFilterUnknownSubject(t *testing.T) {
	imagesDir := t.TempDir()
	session := newSession(t, &stubDetector{})

	_, err := session.Filter(classifier.Subject("table"), imagesDir, filepath.Join(t.TempDir(), "out"))
	if !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid-argument error, got %v", err)
	}
}

func TestFilterUnboundSubject(t *testing.T) {
	imagesDir := t.TempDir()
	writeImages(t, imagesDir, "a.jpg")
	outputDir := filepath.Join(t.TempDir(), "out")

	session := newSession(t, &stubDetector{counts: map[string]int{"a.jpg": 10}})
	if err := session.SetModel(classifier.SubjectCode, "model.onnx"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}

	_, err := session.Filter(classifier.SubjectDiagram, imagesDir, outputDir)
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	// The failed pass must not create the output directory.
	if _, statErr := os.Stat(outputDir); !os.IsNotExist(statErr) {
		t.Fatalf("output dir should not exist, stat err: %v", statErr)
	}
}

func TestSetModelReplacesPreviousHandle(t *testing.T) {
	first := &stubDetector{}
	second := &stubDetector{}
	handles := []classifier.Detector{first, second}

	cfg := testsupport.NewConfig(t)
	idx := 0
	session := classifier.NewSession(cfg, logging.NewNop(), classifier.WithModelLoader(
		func(string) (classifier.Detector, error) {
			h := handles[idx]
			idx++
			return h, nil
		},
	))

	if err := session.SetModel(classifier.SubjectCode, "one.onnx"); err != nil {
		t.Fatalf("first SetModel: %v", err)
	}
	if err := session.SetModel(classifier.SubjectCode, "two.onnx"); err != nil {
		t.Fatalf("second SetModel: %v", err)
	}
	if !first.closed {
		t.Fatal("expected first handle closed on rebind")
	}
	if second.closed {
		t.Fatal("second handle should remain open")
	}
}

func TestClearCacheClosesAllHandles(t *testing.T) {
	det := &stubDetector{}
	session := newSession(t, det)
	if err := session.SetModel(classifier.SubjectCode, "model.onnx"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}

	session.ClearCache()
	if !det.closed {
		t.Fatal("expected handle closed by ClearCache")
	}
	if session.Bound(classifier.SubjectCode) {
		t.Fatal("expected handle unbound after ClearCache")
	}
}

func TestParseSubject(t *testing.T) {
	if s, err := classifier.ParseSubject(" Code "); err != nil || s != classifier.SubjectCode {
		t.Fatalf("ParseSubject(code) = %v, %v", s, err)
	}
	if s, err := classifier.ParseSubject("diagram"); err != nil || s != classifier.SubjectDiagram {
		t.Fatalf("ParseSubject(diagram) = %v, %v", s, err)
	}
	if _, err := classifier.ParseSubject("table"); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid-argument error, got %v", err)
	}
}
