package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"DipSentinel/internal/model"
)

// scriptedFetcher fails a configurable number of times per symbol before
// succeeding, or always fails permanently for symbols in permanent.
type scriptedFetcher struct {
	transientFails map[string]int
	permanent      map[string]bool
	calls          map[string]int
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{
		transientFails: map[string]int{},
		permanent:      map[string]bool{},
		calls:          map[string]int{},
	}
}

func (f *scriptedFetcher) Name() string { return "scripted" }

func (f *scriptedFetcher) FetchDaily(_ context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	f.calls[symbol]++
	if f.permanent[symbol] {
		return nil, Permanent(fmt.Errorf("unknown symbol %s", symbol))
	}
	if f.transientFails[symbol] > 0 {
		f.transientFails[symbol]--
		return nil, errors.New("upstream 503")
	}
	var bars []model.Bar
	for d := model.Day(start); !d.After(model.Day(end)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		bars = append(bars, model.Bar{
			Symbol: symbol, Date: d,
			Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000,
		})
	}
	return bars, nil
}

func newTestCollector(f Fetcher, maxAttempts int) *Collector {
	c := NewCollector(f, NewPacer(1000, time.Minute), maxAttempts)
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func req(symbol, start, end string, days int) model.FetchRequest {
	return model.FetchRequest{Symbol: symbol, Start: day(start), End: day(end), TradingDays: days}
}

func TestFetch_RetriesTransientThenSucceeds(t *testing.T) {
	f := newScriptedFetcher()
	f.transientFails["AAA"] = 2
	c := newTestCollector(f, 3)

	bars, failures, err := c.Fetch(context.Background(), []model.FetchRequest{
		req("AAA", "2024-01-02", "2024-01-05", 4),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %v", failures)
	}
	if f.calls["AAA"] != 3 {
		t.Errorf("expected 3 attempts, got %d", f.calls["AAA"])
	}
	if len(bars) != 4 {
		t.Errorf("expected 4 bars, got %d", len(bars))
	}
}

func TestFetch_TransientExhaustionIsReported(t *testing.T) {
	f := newScriptedFetcher()
	f.transientFails["AAA"] = 10
	c := newTestCollector(f, 3)

	bars, failures, err := c.Fetch(context.Background(), []model.FetchRequest{
		req("AAA", "2024-01-02", "2024-01-05", 4),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("expected no bars, got %d", len(bars))
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if failures[0].Reason == "" {
		t.Error("failure must carry a reason")
	}
	if f.calls["AAA"] != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", f.calls["AAA"])
	}
}

func TestFetch_PermanentNotRetried(t *testing.T) {
	f := newScriptedFetcher()
	f.permanent["BAD"] = true
	c := newTestCollector(f, 3)

	_, failures, err := c.Fetch(context.Background(), []model.FetchRequest{
		req("BAD", "2024-01-02", "2024-01-05", 4),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if f.calls["BAD"] != 1 {
		t.Errorf("permanent failure must not be retried, got %d calls", f.calls["BAD"])
	}
}

func TestFetch_PartialSuccess(t *testing.T) {
	f := newScriptedFetcher()
	f.permanent["BAD"] = true
	c := newTestCollector(f, 3)

	bars, failures, err := c.Fetch(context.Background(), []model.FetchRequest{
		req("AAA", "2024-01-02", "2024-01-03", 2),
		req("BAD", "2024-01-02", "2024-01-03", 2),
		req("CCC", "2024-01-04", "2024-01-05", 2),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failures) != 1 || failures[0].Request.Symbol != "BAD" {
		t.Fatalf("expected exactly the BAD failure, got %v", failures)
	}
	if len(bars) != 4 {
		t.Fatalf("expected 4 bars from the successful requests, got %d", len(bars))
	}
	seen := map[string]bool{}
	for _, b := range bars {
		key := b.Symbol + "|" + model.DateString(b.Date)
		if seen[key] {
			t.Errorf("bar %s returned more than once", key)
		}
		seen[key] = true
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	f := newScriptedFetcher()
	c := newTestCollector(f, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := c.Fetch(ctx, []model.FetchRequest{
		req("AAA", "2024-01-02", "2024-01-05", 4),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
