package runs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a pipeline run.
type Status string

const (
	StatusIdle              Status = "idle"
	StatusDatasetDownloaded Status = "dataset-downloaded"
	StatusDatasetLocated    Status = "dataset-located"
	StatusManifestPrepared  Status = "manifest-prepared"
	StatusTrained           Status = "trained"
	StatusModelBound        Status = "model-bound"
	StatusFiltering         Status = "filtering"
	StatusDone              Status = "done"
	StatusFailed            Status = "failed"
)

// statusOrder is the forward progression of a healthy run.
var statusOrder = []Status{
	StatusIdle,
	StatusDatasetDownloaded,
	StatusDatasetLocated,
	StatusManifestPrepared,
	StatusTrained,
	StatusModelBound,
	StatusFiltering,
	StatusDone,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(statusOrder)+1)
	for _, status := range statusOrder {
		set[status] = struct{}{}
	}
	set[StatusFailed] = struct{}{}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	out := make([]Status, len(statusOrder), len(statusOrder)+1)
	copy(out, statusOrder)
	return append(out, StatusFailed)
}

// ParseStatus normalizes user input into a Status.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[status]
	return status, ok
}

// Terminal reports whether the status ends a run.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// next returns the forward successor of a status, if any.
func (s Status) next() (Status, bool) {
	for i, status := range statusOrder {
		if status == s && i+1 < len(statusOrder) {
			return statusOrder[i+1], true
		}
	}
	return "", false
}

// CanTransition reports whether a run may move from one status to another.
// Forward movement is one step at a time; failed is reachable from any
// non-terminal status.
func CanTransition(from, to Status) bool {
	if _, ok := statusSet[to]; !ok {
		return false
	}
	if to == StatusFailed {
		return !from.Terminal()
	}
	successor, ok := from.next()
	return ok && successor == to
}

// Run represents one pipeline pass persisted in SQLite.
type Run struct {
	ID           int64
	Token        string
	Project      string
	Version      int
	Subject      string
	Status       Status
	DatasetPath  string
	ModelPath    string
	ErrorMessage string
	FailureStage string

	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HealthSummary describes aggregated run counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	InProgress int
	Done       int
	Failed     int
}
