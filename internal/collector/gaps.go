package collector

import (
	"fmt"
	"log"
	"time"

	"DipSentinel/internal/model"
)

// Calendar answers trading-day questions for the target exchange.
type Calendar interface {
	IsTradingDay(d time.Time) bool
	TradingDaysBetween(start, end time.Time) ([]time.Time, error)
}

// BarIndex is the presence-check slice of the store the detector needs.
type BarIndex interface {
	HasBar(symbol string, date time.Time) (bool, error)
}

// GapDetector produces the minimal set of fetch requests for the
// (symbol, trading-day) observations missing from the store. Contiguous
// missing trading days for one symbol are batched into a single range
// request. It never re-requests a key already present and emits no
// duplicates within one invocation.
type GapDetector struct {
	Calendar Calendar
	Store    BarIndex
}

// NewGapDetector creates a detector over the given calendar and store.
func NewGapDetector(cal Calendar, store BarIndex) *GapDetector {
	return &GapDetector{Calendar: cal, Store: store}
}

// Missing returns the fetch requests for every trading day in [start, end]
// without a stored bar, ordered by the universe order and ascending by date
// within each symbol.
func (g *GapDetector) Missing(universe []string, start, end time.Time) ([]model.FetchRequest, error) {
	tradingDays, err := g.Calendar.TradingDaysBetween(start, end)
	if err != nil {
		return nil, fmt.Errorf("enumerate trading days: %w", err)
	}

	var requests []model.FetchRequest
	seen := make(map[string]bool, len(universe))
	for _, symbol := range universe {
		if seen[symbol] {
			continue
		}
		seen[symbol] = true

		var missing []time.Time
		for _, day := range tradingDays {
			ok, err := g.Store.HasBar(symbol, day)
			if err != nil {
				return nil, fmt.Errorf("presence check %s %s: %w", symbol, model.DateString(day), err)
			}
			if !ok {
				missing = append(missing, day)
			}
		}
		if len(missing) == 0 {
			log.Printf("[INFO] %s: up to date (%d trading days)", symbol, len(tradingDays))
			continue
		}
		reqs := batchContiguous(symbol, missing, tradingDays)
		log.Printf("[INFO] %s: missing %d of %d trading days (%d requests)",
			symbol, len(missing), len(tradingDays), len(reqs))
		requests = append(requests, reqs...)
	}
	return requests, nil
}

// batchContiguous groups missing dates that are adjacent in the trading-day
// sequence into single range requests, so a present date splits the range.
func batchContiguous(symbol string, missing, tradingDays []time.Time) []model.FetchRequest {
	index := make(map[time.Time]int, len(tradingDays))
	for i, d := range tradingDays {
		index[d] = i
	}

	var requests []model.FetchRequest
	runStart := 0
	for i := 1; i <= len(missing); i++ {
		if i < len(missing) && index[missing[i]] == index[missing[i-1]]+1 {
			continue
		}
		requests = append(requests, model.FetchRequest{
			Symbol:      symbol,
			Start:       missing[runStart],
			End:         missing[i-1],
			TradingDays: i - runStart,
		})
		runStart = i
	}
	return requests
}
