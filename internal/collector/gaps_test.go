package collector

import (
	"testing"
	"time"

	"DipSentinel/internal/calendar"
	"DipSentinel/internal/model"
)

// memIndex is an in-memory BarIndex keyed by "symbol|date".
type memIndex map[string]bool

func (m memIndex) HasBar(symbol string, date time.Time) (bool, error) {
	return m[symbol+"|"+model.DateString(date)], nil
}

func (m memIndex) add(symbol, date string) {
	m[symbol+"|"+date] = true
}

func day(date string) time.Time {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMissing_EmptyStore(t *testing.T) {
	g := NewGapDetector(calendar.NYSE(), memIndex{})

	reqs, err := g.Missing([]string{"AAA"}, day("2024-01-02"), day("2024-01-05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected 1 batched request, got %d", len(reqs))
	}
	r := reqs[0]
	if r.Symbol != "AAA" || r.TradingDays != 4 {
		t.Errorf("expected AAA over 4 trading days, got %s over %d", r.Symbol, r.TradingDays)
	}
	if model.DateString(r.Start) != "2024-01-02" || model.DateString(r.End) != "2024-01-05" {
		t.Errorf("unexpected range %s", r)
	}
}

func TestMissing_PresentDateSplitsRange(t *testing.T) {
	idx := memIndex{}
	idx.add("AAA", "2024-01-03")
	g := NewGapDetector(calendar.NYSE(), idx)

	reqs, err := g.Missing([]string{"AAA"}, day("2024-01-02"), day("2024-01-05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests around the present date, got %d", len(reqs))
	}
	if model.DateString(reqs[0].Start) != "2024-01-02" || model.DateString(reqs[0].End) != "2024-01-02" {
		t.Errorf("first range wrong: %s", reqs[0])
	}
	if model.DateString(reqs[1].Start) != "2024-01-04" || model.DateString(reqs[1].End) != "2024-01-05" {
		t.Errorf("second range wrong: %s", reqs[1])
	}
}

func TestMissing_ContiguousAcrossWeekend(t *testing.T) {
	g := NewGapDetector(calendar.NYSE(), memIndex{})

	// Fri Jan 5 and Mon Jan 8 are adjacent trading days.
	reqs, err := g.Missing([]string{"AAA"}, day("2024-01-05"), day("2024-01-08"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected weekend-spanning range to stay one request, got %d", len(reqs))
	}
	if reqs[0].TradingDays != 2 {
		t.Errorf("expected 2 trading days, got %d", reqs[0].TradingDays)
	}
}

func TestMissing_Completeness(t *testing.T) {
	cal := calendar.NYSE()
	idx := memIndex{}
	idx.add("AAA", "2024-01-03")
	idx.add("AAA", "2024-01-08")
	idx.add("BBB", "2024-01-02")
	g := NewGapDetector(cal, idx)

	start, end := day("2024-01-02"), day("2024-01-10")
	reqs, err := g.Missing([]string{"AAA", "BBB"}, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tradingDays, err := cal.TradingDaysBetween(start, end)
	if err != nil {
		t.Fatalf("trading days: %v", err)
	}

	// Requested keys plus present keys must cover every (symbol, trading day)
	// exactly once.
	covered := map[string]int{}
	for _, r := range reqs {
		days, err := cal.TradingDaysBetween(r.Start, r.End)
		if err != nil {
			t.Fatalf("request range: %v", err)
		}
		if len(days) != r.TradingDays {
			t.Errorf("request %s claims %d trading days, covers %d", r, r.TradingDays, len(days))
		}
		for _, d := range days {
			covered[r.Symbol+"|"+model.DateString(d)]++
		}
	}
	for key := range idx {
		covered[key]++
	}
	for _, symbol := range []string{"AAA", "BBB"} {
		for _, d := range tradingDays {
			key := symbol + "|" + model.DateString(d)
			if covered[key] != 1 {
				t.Errorf("key %s covered %d times, want exactly 1", key, covered[key])
			}
		}
	}
}

func TestMissing_NoDuplicateSymbols(t *testing.T) {
	g := NewGapDetector(calendar.NYSE(), memIndex{})

	reqs, err := g.Missing([]string{"AAA", "AAA"}, day("2024-01-02"), day("2024-01-05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("duplicate universe entry must not duplicate requests, got %d", len(reqs))
	}
}

func TestMissing_InvalidRange(t *testing.T) {
	g := NewGapDetector(calendar.NYSE(), memIndex{})
	if _, err := g.Missing([]string{"AAA"}, day("2024-01-05"), day("2024-01-02")); err == nil {
		t.Fatal("expected error for inverted range")
	}
}
