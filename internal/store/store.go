package store

import (
	"time"

	"DipSentinel/internal/model"
)

// Store is the keyed persistence layer over (symbol, date) bars and
// (symbol, date, window) indicator rows. All writes are idempotent
// replacements, so re-running a pipeline with the same input is a no-op on
// final state. Nothing is ever deleted by the core.
type Store interface {
	// UpsertBars replaces or inserts each bar by its (symbol, date) key.
	// Each row write is independent; one failing row does not corrupt rows
	// already written in the same call. Row failures are collected and
	// returned joined, never swallowed.
	UpsertBars(bars []model.Bar) error

	// GetSeries returns up to limit bars for symbol ending at or before
	// asOf, ascending by date. Missing days are simply absent rows.
	GetSeries(symbol string, asOf time.Time, limit int) ([]model.Bar, error)

	// HasBar reports whether a bar exists for (symbol, date).
	HasBar(symbol string, date time.Time) (bool, error)

	// UpsertIndicators replaces or inserts each indicator row by its
	// (symbol, date, window) key, with the same semantics as UpsertBars.
	UpsertIndicators(sets []model.IndicatorSet) error

	Close() error
}
