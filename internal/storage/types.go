package storage

import (
	"time"

	"github.com/mfalzone/resil/internal/resiliency"
)

// ReportArchive defines the interface for persisting finalized run
// reports. The scoring core never touches it; it is wired only at the
// process boundary for operators who want run history.
type ReportArchive interface {
	// StoreRun persists a finalized run report
	StoreRun(runID string, report *resiliency.DetailedReport) error

	// GetRun retrieves a stored run by ID
	GetRun(runID string) (*StoredRun, error)

	// ListRuns retrieves recent runs, newest first
	ListRuns(limit int) ([]StoredRun, error)

	// Close closes the storage connection
	Close() error
}

// StoredRun is one archived run report.
type StoredRun struct {
	RunID           string
	ResiliencyScore int
	StabilityScore  int
	Report          *resiliency.DetailedReport
	CreatedAt       time.Time
}
