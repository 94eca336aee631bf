package history

import "github.com/starford/dagaz/internal/engine"

// RunStore defines the interface for run persistence. Consumers should
// depend on this interface rather than the concrete *DB type to facilitate
// testing with mocks.
type RunStore interface {
	InsertRun(run Run, datasets []engine.Dataset) (int64, error)
	LatestRun(tracker string) (*Run, error)
	ListRuns(tracker string, limit int) ([]Run, error)
	RunSeries(runID int64) ([]Series, error)
	DeleteTrackerRuns(tracker string) error
	TrackerNames() ([]string, error)
	Close() error
}

// Verify *DB satisfies RunStore at compile time.
var _ RunStore = (*DB)(nil)
