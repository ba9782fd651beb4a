package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDetecting Status = "detecting"
	StatusDetected  Status = "detected"
	StatusAnalyzing Status = "analyzing"
	StatusAnalyzed  Status = "analyzed"
	StatusExporting Status = "exporting"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusReview    Status = "review"
)

// DaemonStopReason is the error message set when items are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusDetecting,
	StatusDetected,
	StatusAnalyzing,
	StatusAnalyzed,
	StatusExporting,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDetecting: {},
	StatusAnalyzing: {},
	StatusExporting: {},
}

type statusTransition struct {
	from Status
	to   Status
}

// Rollbacks applied on daemon startup so items stranded mid-stage by a
// crash become actionable again.
var stageRollbackTransitions = []statusTransition{
	{from: StatusDetecting, to: StatusPending},
	{from: StatusAnalyzing, to: StatusDetected},
	{from: StatusExporting, to: StatusAnalyzed},
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID              int64
	SourcePath      string
	SubtitlePath    string
	ProjectPath     string
	ExportPath      string
	Status          Status
	ErrorMessage    string
	ProgressStage   string
	ProgressMessage string
	NeedsReview     bool
	ReviewReason    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether no further stage will pick the status up.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusReview
}

// SetProgress updates both progress fields.
func (i *Item) SetProgress(stage, message string) {
	i.ProgressStage = stage
	i.ProgressMessage = message
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressStage = "Failed"
	i.ProgressMessage = message
}
