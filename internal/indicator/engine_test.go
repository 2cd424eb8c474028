package indicator

import (
	"path/filepath"
	"testing"
	"time"

	"DipSentinel/internal/calculator"
	"DipSentinel/internal/model"
	"DipSentinel/internal/store"
)

func seedBars(t *testing.T, s store.Store, symbol string, dates []string) {
	t.Helper()
	bars := make([]model.Bar, len(dates))
	for i, date := range dates {
		d, err := time.Parse(model.DateLayout, date)
		if err != nil {
			t.Fatalf("parse %s: %v", date, err)
		}
		bars[i] = model.Bar{
			Symbol: symbol, Date: d,
			Open: 100, High: 102, Low: 98, Close: 100 + float64(i), Volume: 1000,
		}
	}
	if err := s.UpsertBars(bars); err != nil {
		t.Fatalf("seed bars: %v", err)
	}
}

func newEngine(t *testing.T, windows []int) (*Engine, store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewEngine(s, windows, calculator.DefaultParams, 150), s
}

func TestComputeSymbol(t *testing.T) {
	e, s := newEngine(t, []int{2})
	seedBars(t, s, "AAA", []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"})

	asOf, _ := time.Parse(model.DateLayout, "2024-01-05")
	computed, insufficient, err := e.ComputeSymbol("AAA", asOf)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if insufficient != 0 {
		t.Errorf("expected no insufficient windows, got %d", insufficient)
	}
	// Window 2 over 4 bars: evaluation dates 01-03, 01-04, 01-05.
	if computed != 3 {
		t.Errorf("expected 3 indicator rows, got %d", computed)
	}
}

func TestComputeSymbol_InsufficientHistory(t *testing.T) {
	e, s := newEngine(t, []int{22})
	seedBars(t, s, "AAA", []string{"2024-01-02", "2024-01-03"})

	asOf, _ := time.Parse(model.DateLayout, "2024-01-05")
	computed, insufficient, err := e.ComputeSymbol("AAA", asOf)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if computed != 0 {
		t.Errorf("expected no rows, got %d", computed)
	}
	if insufficient != 1 {
		t.Errorf("expected 1 insufficient window, got %d", insufficient)
	}
}

func TestComputeSymbol_MixedWindows(t *testing.T) {
	e, s := newEngine(t, []int{2, 22})
	seedBars(t, s, "AAA", []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"})

	asOf, _ := time.Parse(model.DateLayout, "2024-01-05")
	computed, insufficient, err := e.ComputeSymbol("AAA", asOf)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if computed != 3 {
		t.Errorf("expected 3 rows from the short window, got %d", computed)
	}
	if insufficient != 1 {
		t.Errorf("expected the long window skipped, got %d", insufficient)
	}
}
