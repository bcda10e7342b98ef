package dnn

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"logicmate/internal/detect"
	"logicmate/internal/services"
)

// Options configures a loaded model.
type Options struct {
	InputSize      int
	ScoreThreshold float64
	NMSThreshold   float64
	Device         Device
}

// Model is a loaded detection network bound to one exported model file.
// Models are not safe for concurrent use; the pipeline runs one inference
// at a time.
type Model struct {
	net       gocv.Net
	modelPath string
	opts      Options
	closed    bool
}

// Open reads the exported network (ONNX) from modelPath and applies the
// configured backend/target for the chosen device.
func Open(modelPath string, opts Options) (*Model, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, services.Wrap(services.ErrNotFound, "dnn", "open model", modelPath, err)
	}
	if opts.InputSize <= 0 {
		opts.InputSize = 640
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, services.Wrap(services.ErrExternalTool, "dnn", "open model",
			fmt.Sprintf("failed to load network from %s", modelPath), nil)
	}

	backend := gocv.NetBackendDefault
	target := gocv.NetTargetCPU
	if opts.Device == DeviceCUDA {
		backend = gocv.NetBackendCUDA
		target = gocv.NetTargetCUDA
	}
	if err := net.SetPreferableBackend(backend); err != nil {
		_ = net.Close()
		return nil, services.Wrap(services.ErrExternalTool, "dnn", "open model", "set backend", err)
	}
	if err := net.SetPreferableTarget(target); err != nil {
		_ = net.Close()
		return nil, services.Wrap(services.ErrExternalTool, "dnn", "open model", "set target", err)
	}

	return &Model{net: net, modelPath: modelPath, opts: opts}, nil
}

// Path returns the model file this network was loaded from.
func (m *Model) Path() string {
	return m.modelPath
}

// Detect decodes the image at imagePath, forwards it through the network,
// and returns detections in source-image pixels, in detector output order
// after non-max suppression. An image that cannot be decoded yields
// detect.ErrUndecodable so callers can skip it without failing the batch.
func (m *Model) Detect(imagePath string) ([]detect.Detection, error) {
	if m == nil || m.closed {
		return nil, services.Wrap(services.ErrPrecondition, "dnn", "detect", "model is closed", nil)
	}

	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	if img.Empty() {
		return nil, services.Wrap(detect.ErrUndecodable, "dnn", "detect", imagePath, nil)
	}
	defer img.Close()

	size := m.opts.InputSize
	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	m.net.SetInput(blob, "")
	output := m.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "dnn", "detect", "read output tensor", err)
	}
	candidates, err := decodeOutput(data, output.Size(), float32(m.opts.ScoreThreshold))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "dnn", "detect", "decode output tensor", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	boxes := make([]image.Rectangle, 0, len(candidates))
	scores := make([]float32, 0, len(candidates))
	for _, c := range candidates {
		boxes = append(boxes, image.Rect(
			int(c.cx-c.w/2), int(c.cy-c.h/2),
			int(c.cx+c.w/2), int(c.cy+c.h/2),
		))
		scores = append(scores, c.score)
	}
	kept := gocv.NMSBoxes(boxes, scores, float32(m.opts.ScoreThreshold), float32(m.opts.NMSThreshold))

	scaleX := float64(img.Cols()) / float64(size)
	scaleY := float64(img.Rows()) / float64(size)

	detections := make([]detect.Detection, 0, len(kept))
	for _, idx := range kept {
		if idx < 0 || idx >= len(candidates) {
			continue
		}
		c := candidates[idx]
		detections = append(detections, detect.Detection{
			XMin:       clamp(float64(c.cx-c.w/2)*scaleX, 0, float64(img.Cols())),
			YMin:       clamp(float64(c.cy-c.h/2)*scaleY, 0, float64(img.Rows())),
			XMax:       clamp(float64(c.cx+c.w/2)*scaleX, 0, float64(img.Cols())),
			YMax:       clamp(float64(c.cy+c.h/2)*scaleY, 0, float64(img.Rows())),
			Confidence: float64(c.score),
			ClassID:    c.classID,
		})
	}
	return detections, nil
}

// Close releases the underlying network. Closing twice is harmless.
func (m *Model) Close() error {
	if m == nil || m.closed {
		return nil
	}
	m.closed = true
	return m.net.Close()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
