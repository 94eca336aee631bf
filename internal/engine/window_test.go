package engine

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

func TestResolveWindow_NoData(t *testing.T) {
	_, err := resolveWindow(Config{}, time.Time{}, time.Time{}, false)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestResolveWindow_BothInferred(t *testing.T) {
	w, err := resolveWindow(Config{}, day(2023, 1, 5), day(2023, 1, 20), true)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Start.Equal(day(2023, 1, 5)) || !w.End.Equal(day(2023, 1, 20)) {
		t.Errorf("window = %v", w)
	}
	if w.Days() != 16 {
		t.Errorf("days = %d, want 16", w.Days())
	}
}

func TestResolveWindow_StartConfigured(t *testing.T) {
	cfg := Config{StartDate: dayPtr(2023, 1, 10)}
	w, err := resolveWindow(cfg, day(2023, 1, 5), day(2023, 1, 20), true)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Start.Equal(day(2023, 1, 10)) || !w.End.Equal(day(2023, 1, 20)) {
		t.Errorf("window = %v", w)
	}

	// Configured start after every observed date cannot adopt max as end.
	cfg = Config{StartDate: dayPtr(2023, 2, 1)}
	if _, err := resolveWindow(cfg, day(2023, 1, 5), day(2023, 1, 20), true); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("err = %v, want ErrInvalidRange", err)
	}
}

func TestResolveWindow_EndConfigured(t *testing.T) {
	cfg := Config{EndDate: dayPtr(2023, 1, 15)}
	w, err := resolveWindow(cfg, day(2023, 1, 5), day(2023, 1, 20), true)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Start.Equal(day(2023, 1, 5)) || !w.End.Equal(day(2023, 1, 15)) {
		t.Errorf("window = %v", w)
	}

	cfg = Config{EndDate: dayPtr(2022, 12, 1)}
	if _, err := resolveWindow(cfg, day(2023, 1, 5), day(2023, 1, 20), true); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("err = %v, want ErrInvalidRange", err)
	}
}

func TestResolveWindow_BothConfigured(t *testing.T) {
	cfg := Config{StartDate: dayPtr(2023, 1, 1), EndDate: dayPtr(2023, 1, 31)}
	w, err := resolveWindow(cfg, day(2023, 1, 5), day(2023, 1, 20), true)
	if err != nil {
		t.Fatal(err)
	}
	// The configured window is adopted as-is, even beyond observed data.
	if !w.Start.Equal(day(2023, 1, 1)) || !w.End.Equal(day(2023, 1, 31)) {
		t.Errorf("window = %v", w)
	}
}

func TestResolveWindow_ConfiguredWindowOutsideData(t *testing.T) {
	cfg := Config{StartDate: dayPtr(2023, 6, 1), EndDate: dayPtr(2023, 6, 10)}
	_, err := resolveWindow(cfg, day(2023, 1, 1), day(2023, 1, 31), true)
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("err = %v, want ErrInvalidRange", err)
	}

	cfg = Config{StartDate: dayPtr(2022, 6, 1), EndDate: dayPtr(2022, 6, 10)}
	_, err = resolveWindow(cfg, day(2023, 1, 1), day(2023, 1, 31), true)
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("err = %v, want ErrInvalidRange", err)
	}
}
