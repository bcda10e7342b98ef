package yolo

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"logicmate/internal/services"
)

// Metrics holds the per-epoch measurements the trainer writes to results.csv.
type Metrics struct {
	Epoch     int
	BoxLoss   float64
	Precision float64
	Recall    float64
	MAP50     float64
	MAP5095   float64
}

// ParseResults reads the trainer's results.csv for a run directory and
// returns every epoch's metrics in order. Header names carry the trainer's
// own spacing and suffixes, so matching is by trimmed column name.
func ParseResults(runDir string) ([]Metrics, error) {
	path := filepath.Join(runDir, "results.csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "yolo", "parse results",
			fmt.Sprintf("no results file at %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "yolo", "parse results",
			fmt.Sprintf("malformed results file %s", path), err)
	}
	if len(records) < 2 {
		return nil, services.Wrap(services.ErrExternalTool, "yolo", "parse results",
			fmt.Sprintf("results file %s has no data rows", path), nil)
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) float64 {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return 0
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			return 0
		}
		return value
	}

	metrics := make([]Metrics, 0, len(records)-1)
	for _, row := range records[1:] {
		metrics = append(metrics, Metrics{
			Epoch:     int(field(row, "epoch")),
			BoxLoss:   field(row, "train/box_loss"),
			Precision: field(row, "metrics/precision(B)"),
			Recall:    field(row, "metrics/recall(B)"),
			MAP50:     field(row, "metrics/mAP50(B)"),
			MAP5095:   field(row, "metrics/mAP50-95(B)"),
		})
	}
	return metrics, nil
}

// FinalMetrics returns the last epoch's metrics from a run directory.
func FinalMetrics(runDir string) (Metrics, error) {
	all, err := ParseResults(runDir)
	if err != nil {
		return Metrics{}, err
	}
	return all[len(all)-1], nil
}
