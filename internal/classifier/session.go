package classifier

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"logicmate/internal/config"
	"logicmate/internal/dataset"
	"logicmate/internal/detect"
	"logicmate/internal/fileutil"
	"logicmate/internal/logging"
	"logicmate/internal/services"
	"logicmate/internal/services/dnn"
)

// allowedExtensions is the image extension allow-set, matched
// case-insensitively.
var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// Detector is the behaviour a Session needs from a bound model handle.
type Detector interface {
	Detect(imagePath string) ([]detect.Detection, error)
	Close() error
}

// ModelLoader opens a detector for a model file. The default loader goes
// through the OpenCV DNN runtime; tests inject stubs.
type ModelLoader func(modelPath string) (Detector, error)

// ImageRecord is one image kept by a filter pass.
type ImageRecord struct {
	Path      string
	Extension string
}

// Session carries the per-subject model handles and thresholds for filter
// passes. Handles are explicit session state, bound via SetModel before
// Filter may run; rebinding one subject does not affect the other.
type Session struct {
	thresholds map[Subject]int
	labels     map[Subject]string
	handles    map[Subject]Detector
	loader     ModelLoader
	logger     *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithModelLoader injects a custom model loader (primarily for tests).
func WithModelLoader(loader ModelLoader) Option {
	return func(s *Session) {
		if loader != nil {
			s.loader = loader
		}
	}
}

// NewSession builds a Session from configuration. The inference device is
// resolved once here and reused for every model bound afterwards.
func NewSession(cfg *config.Config, logger *slog.Logger, opts ...Option) *Session {
	device := dnn.PickDevice(cfg.Detection.Device)
	dnnOpts := dnn.Options{
		InputSize:      cfg.Detection.InputSize,
		ScoreThreshold: cfg.Detection.ScoreThreshold,
		NMSThreshold:   cfg.Detection.NMSThreshold,
		Device:         device,
	}

	session := &Session{
		thresholds: map[Subject]int{
			SubjectCode:    cfg.Detection.CodeThreshold,
			SubjectDiagram: cfg.Detection.DiagramThreshold,
		},
		labels: map[Subject]string{
			SubjectCode:    cfg.Detection.CodeLabel,
			SubjectDiagram: cfg.Detection.DiagramLabel,
		},
		handles: make(map[Subject]Detector, 2),
		loader: func(modelPath string) (Detector, error) {
			return dnn.Open(modelPath, dnnOpts)
		},
		logger: logging.WithComponent(logger, "classifier"),
	}
	for _, opt := range opts {
		opt(session)
	}
	return session
}

// SetModel loads and binds a model handle for the subject, replacing (and
// closing) any handle bound before.
func (s *Session) SetModel(subject Subject, modelPath string) error {
	if !subject.valid() {
		return services.Wrap(services.ErrInvalidArgument, "classifier", "set model",
			fmt.Sprintf("unknown subject %q", subject), nil)
	}
	handle, err := s.loader(modelPath)
	if err != nil {
		s.logger.Error("model load failed", logging.Args(
			logging.String(logging.FieldSubject, subject.String()),
			logging.String(logging.FieldPath, modelPath),
			logging.Error(err),
		)...)
		return err
	}
	if previous, ok := s.handles[subject]; ok {
		_ = previous.Close()
	}
	s.handles[subject] = handle
	s.logger.Info("model bound", logging.Args(
		logging.String(logging.FieldSubject, subject.String()),
		logging.String(logging.FieldPath, modelPath),
	)...)
	return nil
}

// Threshold returns the detection-count threshold for a subject.
func (s *Session) Threshold(subject Subject) int {
	return s.thresholds[subject]
}

// Filter runs the bound detector for subject over every allowed image in
// imagesDir, copies images whose prediction count strictly exceeds the
// subject threshold into outputDir, and returns the kept records. Sources
// stay in place untouched.
func (s *Session) Filter(subject Subject, imagesDir, outputDir string) ([]ImageRecord, error) {
	if !subject.valid() {
		return nil, services.Wrap(services.ErrInvalidArgument, "classifier", "filter",
			fmt.Sprintf("unknown subject %q", subject), nil)
	}
	handle, bound := s.handles[subject]
	if !bound {
		return nil, services.Wrap(services.ErrPrecondition, "classifier", "filter",
			fmt.Sprintf("no model bound for subject %q; bind one first", subject), nil)
	}

	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "classifier", "filter",
			fmt.Sprintf("list images in %s", imagesDir), err)
	}

	threshold := s.thresholds[subject]
	label := s.labels[subject]

	var valid []ImageRecord
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, allowed := allowedExtensions[ext]; !allowed {
			continue
		}
		imagePath := filepath.Join(imagesDir, entry.Name())

		detections, err := handle.Detect(imagePath)
		if err != nil {
			if errors.Is(err, detect.ErrUndecodable) {
				s.logger.Warn("image could not be decoded; skipping", logging.Args(
					logging.String(logging.FieldSubject, subject.String()),
					logging.String(logging.FieldPath, imagePath),
					logging.Error(err),
				)...)
				continue
			}
			return nil, services.Wrap(services.ErrExternalTool, "classifier", "filter",
				fmt.Sprintf("inference on %s", imagePath), err)
		}

		predictions := detect.Format(detections, label)
		s.logger.Debug("image scored", logging.Args(
			logging.String(logging.FieldSubject, subject.String()),
			logging.String(logging.FieldPath, imagePath),
			logging.Int("predictions", len(predictions)),
		)...)

		if len(predictions) > threshold {
			valid = append(valid, ImageRecord{Path: imagePath, Extension: ext})
		}
	}

	if len(valid) == 0 {
		s.logger.Info("filter pass kept no images", logging.Args(
			logging.String(logging.FieldSubject, subject.String()),
			logging.String(logging.FieldPath, imagesDir),
		)...)
		return valid, nil
	}

	if _, err := dataset.EnsureDirectory(outputDir); err != nil {
		return nil, err
	}
	for _, record := range valid {
		target := filepath.Join(outputDir, filepath.Base(record.Path))
		if err := fileutil.CopyFileVerified(record.Path, target); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "classifier", "filter",
				fmt.Sprintf("copy %s to %s", record.Path, target), err)
		}
	}

	s.logger.Info("filter pass complete", logging.Args(
		logging.String(logging.FieldSubject, subject.String()),
		logging.Int("kept", len(valid)),
		logging.String("output_dir", outputDir),
	)...)
	return valid, nil
}

// Bound reports whether a model handle is bound for subject.
func (s *Session) Bound(subject Subject) bool {
	_, ok := s.handles[subject]
	return ok
}

// ClearCache closes and unbinds every model handle, releasing accelerator
// memory. Calling it between training and inference phases is the caller's
// responsibility.
func (s *Session) ClearCache() {
	for subject, handle := range s.handles {
		_ = handle.Close()
		delete(s.handles, subject)
	}
	s.logger.Debug("model handles released")
}
