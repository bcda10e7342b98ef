package dnn

import "fmt"

// candidate is one decoded output row before non-max suppression, expressed
// in network-input coordinates (center x/y plus width/height).
type candidate struct {
	cx      float32
	cy      float32
	w       float32
	h       float32
	score   float32
	classID int
}

// decodeOutput turns a raw output tensor into score-thresholded candidates.
// Two layouts are supported: [1, 4+nc, N] (attribute-major, no objectness)
// and [1, N, 5+nc] (box-major with an objectness column). The layout is
// inferred from the dimension sizes: exporters emit far more boxes than
// attributes, so the smaller middle dimension marks attribute-major output.
func decodeOutput(data []float32, dims []int, scoreThreshold float32) ([]candidate, error) {
	if len(dims) != 3 || dims[0] != 1 {
		return nil, fmt.Errorf("unsupported output shape %v", dims)
	}
	if dims[1] < dims[2] {
		return decodeAttributeMajor(data, dims[1], dims[2], scoreThreshold)
	}
	return decodeBoxMajor(data, dims[1], dims[2], scoreThreshold)
}

func decodeAttributeMajor(data []float32, attrs, boxes int, scoreThreshold float32) ([]candidate, error) {
	if attrs < 5 || len(data) < attrs*boxes {
		return nil, fmt.Errorf("output tensor too small: %d floats for %dx%d", len(data), attrs, boxes)
	}
	classes := attrs - 4
	var out []candidate
	for j := 0; j < boxes; j++ {
		bestClass := 0
		bestScore := data[4*boxes+j]
		for c := 1; c < classes; c++ {
			if s := data[(4+c)*boxes+j]; s > bestScore {
				bestScore = s
				bestClass = c
			}
		}
		if bestScore < scoreThreshold {
			continue
		}
		out = append(out, candidate{
			cx:      data[0*boxes+j],
			cy:      data[1*boxes+j],
			w:       data[2*boxes+j],
			h:       data[3*boxes+j],
			score:   bestScore,
			classID: bestClass,
		})
	}
	return out, nil
}

func decodeBoxMajor(data []float32, boxes, attrs int, scoreThreshold float32) ([]candidate, error) {
	if attrs < 6 || len(data) < attrs*boxes {
		return nil, fmt.Errorf("output tensor too small: %d floats for %dx%d", len(data), boxes, attrs)
	}
	classes := attrs - 5
	var out []candidate
	for j := 0; j < boxes; j++ {
		row := data[j*attrs : (j+1)*attrs]
		objectness := row[4]
		bestClass := 0
		bestScore := row[5]
		for c := 1; c < classes; c++ {
			if row[5+c] > bestScore {
				bestScore = row[5+c]
				bestClass = c
			}
		}
		score := objectness * bestScore
		if score < scoreThreshold {
			continue
		}
		out = append(out, candidate{
			cx:      row[0],
			cy:      row[1],
			w:       row[2],
			h:       row[3],
			score:   score,
			classID: bestClass,
		})
	}
	return out, nil
}
