package indicator

import (
	"fmt"
	"log"
	"time"

	"DipSentinel/internal/calculator"
	"DipSentinel/internal/model"
	"DipSentinel/internal/store"
)

// Engine computes the overextension oscillator for each configured window
// from a symbol's stored series and writes the results back through the
// store. Dates without enough trailing history yield no row; that is a
// state, not an error.
type Engine struct {
	Store       store.Store
	Windows     []int
	Params      calculator.Params
	HistoryDays int
}

// NewEngine creates an engine over the given store and windows.
func NewEngine(st store.Store, windows []int, params calculator.Params, historyDays int) *Engine {
	return &Engine{Store: st, Windows: windows, Params: params, HistoryDays: historyDays}
}

// ComputeSymbol loads the symbol's series ending at asOf and upserts one
// IndicatorSet per (date, window) with sufficient history. It returns the
// number of rows written and the number of windows skipped for lack of
// history.
func (e *Engine) ComputeSymbol(symbol string, asOf time.Time) (computed, insufficient int, err error) {
	series, err := e.Store.GetSeries(symbol, asOf, e.HistoryDays)
	if err != nil {
		return 0, 0, fmt.Errorf("load series: %w", err)
	}

	var sets []model.IndicatorSet
	for _, window := range e.Windows {
		if len(series) < window {
			log.Printf("[INFO] %s: %d bars, insufficient history for window %d", symbol, len(series), window)
			insufficient++
			continue
		}
		windowSets, err := calculator.ExtensionSeries(series, window, e.Params)
		if err != nil {
			return 0, insufficient, fmt.Errorf("window %d: %w", window, err)
		}
		sets = append(sets, windowSets...)
	}
	if len(sets) == 0 {
		return 0, insufficient, nil
	}

	if err := e.Store.UpsertIndicators(sets); err != nil {
		return 0, insufficient, fmt.Errorf("upsert indicators: %w", err)
	}
	return len(sets), insufficient, nil
}
