package detect

import (
	"errors"
	"math"
	"sort"

	"github.com/google/uuid"
)

// ErrUndecodable marks an image the detector could not decode. Callers may
// skip such images without failing the surrounding batch.
var ErrUndecodable = errors.New("image could not be decoded")

// Detection is one raw detector output: an axis-aligned bounding box in image
// pixels, a confidence in [0,1], and the detector's integer class id.
type Detection struct {
	XMin       float64
	YMin       float64
	XMax       float64
	YMax       float64
	Confidence float64
	ClassID    int
}

// Prediction is the normalized representation of a Detection: box center and
// size with rounded values, a display label, and a unique identifier minted
// at formatting time.
type Prediction struct {
	X           float64
	Y           float64
	Width       float64
	Height      float64
	Confidence  float64
	Class       string
	ClassID     int
	DetectionID string
}

// Format converts raw detections into predictions, preserving detector order.
// Center and size are rounded to 2 decimal places, confidence to 3. Every
// prediction receives a fresh UUID; an empty input yields an empty slice.
func Format(detections []Detection, label string) []Prediction {
	predictions := make([]Prediction, 0, len(detections))
	for _, det := range detections {
		width := det.XMax - det.XMin
		height := det.YMax - det.YMin
		predictions = append(predictions, Prediction{
			X:           round2(det.XMin + width/2),
			Y:           round2(det.YMin + height/2),
			Width:       round2(width),
			Height:      round2(height),
			Confidence:  round3(det.Confidence),
			Class:       label,
			ClassID:     det.ClassID,
			DetectionID: uuid.NewString(),
		})
	}
	return predictions
}

// SortByX orders predictions by center x ascending. The sort is stable so
// predictions sharing an x keep their relative detector order.
func SortByX(predictions []Prediction) {
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].X < predictions[j].X
	})
}

// SortByY orders predictions by center y ascending, stable under ties.
func SortByY(predictions []Prediction) {
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Y < predictions[j].Y
	})
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}
