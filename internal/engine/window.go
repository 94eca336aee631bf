package engine

import (
	"errors"
	"fmt"
	"time"
)

// Top-level failure modes. Everything else (bad filenames, missing table
// documents, unparseable rows) is handled by silent omission.
var (
	// ErrNoData means no document or table row produced a valid date.
	ErrNoData = errors.New("no notes found under the given search condition")
	// ErrInvalidRange means the configured and observed date windows could
	// not be reconciled.
	ErrInvalidRange = errors.New("invalid date range")
)

// Window is the resolved inclusive [start, end] range of the output series,
// at calendar-day granularity.
type Window struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days covered, inclusive.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// resolveWindow reconciles the configured start/end bounds against the
// observed min/max dates. A bound left unconfigured is adopted from the
// observed extreme, but only when the configured bound sits on the correct
// side of it; configured windows entirely outside the observed data fail.
func resolveWindow(cfg Config, minDate, maxDate time.Time, seen bool) (Window, error) {
	if !seen {
		return Window{}, ErrNoData
	}

	start, end := cfg.StartDate, cfg.EndDate
	var w Window
	switch {
	case start == nil && end == nil:
		w = Window{Start: minDate, End: maxDate}
	case start != nil && end == nil:
		if start.After(maxDate) {
			return Window{}, fmt.Errorf("%w: start date %s is after the last note date", ErrInvalidRange, start.Format("2006-01-02"))
		}
		w = Window{Start: *start, End: maxDate}
	case start == nil && end != nil:
		if end.Before(minDate) {
			return Window{}, fmt.Errorf("%w: end date %s is before the first note date", ErrInvalidRange, end.Format("2006-01-02"))
		}
		w = Window{Start: minDate, End: *end}
	default:
		if end.Before(minDate) || start.After(maxDate) {
			return Window{}, fmt.Errorf("%w: configured dates do not overlap the note dates", ErrInvalidRange)
		}
		w = Window{Start: *start, End: *end}
	}

	if w.Start.After(w.End) {
		return Window{}, fmt.Errorf("%w: start date is after end date", ErrInvalidRange)
	}
	return w, nil
}
