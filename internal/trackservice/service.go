// Package trackservice coordinates the vault, the extraction engine and run
// persistence.
package trackservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/checksum"
	"github.com/starford/dagaz/internal/engine"
	"github.com/starford/dagaz/internal/history"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/trackers"
)

// TrackerInfo is a lightweight description of one loaded tracker.
type TrackerInfo struct {
	Name       string `json:"name"`
	Folder     string `json:"folder"`
	DateFormat string `json:"date_format"`
	Queries    int    `json:"queries"`
}

// RunResult is the outcome of one successful aggregation run.
type RunResult struct {
	RunID    int64
	Tracker  string
	Window   engine.Window
	Datasets []engine.Dataset
}

// Outcome records one tracker's result in a run-all pass.
type Outcome struct {
	Tracker string
	Err     error
}

// Service runs trackers against the vault and persists their results.
type Service struct {
	store  storage.Provider
	db     history.RunStore
	defs   []*trackers.Definition
	byName map[string]*trackers.Definition
	logger *slog.Logger
}

// New creates a Service over the given vault, run store and definitions.
func New(store storage.Provider, db history.RunStore, defs []*trackers.Definition, logger *slog.Logger) *Service {
	byName := make(map[string]*trackers.Definition, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}
	return &Service{store: store, db: db, defs: defs, byName: byName, logger: logger}
}

// List returns the loaded trackers in definition order.
func (s *Service) List() []TrackerInfo {
	out := make([]TrackerInfo, 0, len(s.defs))
	for _, d := range s.defs {
		out = append(out, TrackerInfo{
			Name:       d.Name,
			Folder:     d.Folder,
			DateFormat: d.DateFormat,
			Queries:    len(d.Queries),
		})
	}
	return out
}

// Run executes one tracker by name and persists the result.
func (s *Service) Run(ctx context.Context, name string) (*RunResult, error) {
	def, ok := s.byName[name]
	if !ok {
		return nil, apperr.ErrNotFound
	}

	cfg, queries, err := def.Build()
	if err != nil {
		return nil, err
	}

	src := newVaultSource(s.store)
	res, err := engine.Aggregate(ctx, src, queries, cfg)
	if err != nil {
		return nil, err
	}

	run := history.Run{
		Tracker:       name,
		StartedAt:     time.Now().UTC(),
		WindowStart:   res.Window.Start.Format("2006-01-02"),
		WindowEnd:     res.Window.End.Format("2006-01-02"),
		VaultChecksum: s.vaultChecksum(def.Folder),
	}
	runID, err := s.db.InsertRun(run, res.Datasets)
	if err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}

	s.logger.Info("tracker run completed",
		slog.String("tracker", name),
		slog.Int64("run_id", runID),
		slog.String("window", run.WindowStart+".."+run.WindowEnd))

	return &RunResult{
		RunID:    runID,
		Tracker:  name,
		Window:   res.Window,
		Datasets: res.Datasets,
	}, nil
}

// RunAll executes every loaded tracker, continuing past individual failures.
func (s *Service) RunAll(ctx context.Context) []Outcome {
	out := make([]Outcome, 0, len(s.defs))
	for _, d := range s.defs {
		_, err := s.Run(ctx, d.Name)
		if err != nil {
			s.logger.Warn("tracker run failed",
				slog.String("tracker", d.Name),
				slog.String("error", err.Error()))
		}
		out = append(out, Outcome{Tracker: d.Name, Err: err})
	}
	return out
}

// Latest returns the newest stored run and its datasets for a tracker.
func (s *Service) Latest(name string) (*history.Run, []history.Series, error) {
	if _, ok := s.byName[name]; !ok {
		return nil, nil, apperr.ErrNotFound
	}
	run, err := s.db.LatestRun(name)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, apperr.ErrNotFound
	}
	series, err := s.db.RunSeries(run.ID)
	if err != nil {
		return nil, nil, err
	}
	return run, series, nil
}

// Runs returns the run history of a tracker, newest first.
func (s *Service) Runs(name string, limit int) ([]history.Run, error) {
	if _, ok := s.byName[name]; !ok {
		return nil, apperr.ErrNotFound
	}
	return s.db.ListRuns(name, limit)
}

// WriteEntry writes a markdown note into the vault, failing when the path
// already exists. Used by the MCP entry tool.
func (s *Service) WriteEntry(path string, content []byte) error {
	if _, err := s.store.Read(path); err == nil {
		return apperr.ErrAlreadyExists
	}
	return s.store.Write(path, content)
}

// PruneStale removes stored runs for trackers no longer defined.
func (s *Service) PruneStale() error {
	names, err := s.db.TrackerNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, ok := s.byName[name]; ok {
			continue
		}
		if err := s.db.DeleteTrackerRuns(name); err != nil {
			return err
		}
		s.logger.Info("pruned stale tracker runs", slog.String("tracker", name))
	}
	return nil
}

// vaultChecksum fingerprints the scanned portion of the vault so a run can
// be traced back to the exact note contents it saw.
func (s *Service) vaultChecksum(folder string) string {
	metas, err := s.store.List(folder)
	if err != nil {
		return ""
	}
	sums := make(map[string]string, len(metas))
	for _, m := range metas {
		sums[m.Path] = m.Checksum
	}
	return checksum.Combine(sums)
}
