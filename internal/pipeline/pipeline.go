package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"DipSentinel/internal/collector"
	"DipSentinel/internal/config"
	"DipSentinel/internal/indicator"
	"DipSentinel/internal/model"
	"DipSentinel/internal/store"
)

// Roughly 252 trading days per 365 calendar days.
const tradingDayRatio = 0.69

// Pipeline composes one ingestion-and-indicator pass: gap detection →
// rate-limited fetch → bar upsert → indicator computation → indicator
// upsert. Per-request and per-symbol failures are isolated and collected;
// the run always completes a full pass over the universe unless the context
// is cancelled.
type Pipeline struct {
	Cfg       *config.Config
	Calendar  collector.Calendar
	Store     store.Store
	Gaps      *collector.GapDetector
	Collector *collector.Collector
	Engine    *indicator.Engine

	now func() time.Time
}

// New wires a pipeline from already-constructed components.
func New(cfg *config.Config, cal collector.Calendar, st store.Store,
	gaps *collector.GapDetector, col *collector.Collector, eng *indicator.Engine) *Pipeline {
	return &Pipeline{
		Cfg:       cfg,
		Calendar:  cal,
		Store:     st,
		Gaps:      gaps,
		Collector: col,
		Engine:    eng,
		now:       time.Now,
	}
}

// Run executes one full pass and returns a structured summary. Re-running is
// always safe: every write is an idempotent upsert. The returned error is
// non-nil only for cancellation or a failure before any per-symbol work
// could start.
func (p *Pipeline) Run(ctx context.Context) (*model.RunSummary, error) {
	summary := &model.RunSummary{StartedAt: p.now()}

	start, end, err := p.targetRange()
	if err != nil {
		return summary, fmt.Errorf("resolve target range: %w", err)
	}
	summary.RangeStart, summary.RangeEnd = start, end
	log.Printf("[INFO] run range %s..%s for %d symbols",
		model.DateString(start), model.DateString(end), len(p.Cfg.Universe))

	requests, err := p.Gaps.Missing(p.Cfg.Universe, start, end)
	if err != nil {
		return summary, fmt.Errorf("gap detection: %w", err)
	}
	summary.RequestsIssued = len(requests)

	bars, failures, err := p.Collector.Fetch(ctx, requests)
	summary.BarsFetched = len(bars)
	summary.FetchFailures = failures
	if err != nil {
		p.upsertFetched(summary, bars)
		summary.FinishedAt = p.now()
		return summary, err
	}
	p.upsertFetched(summary, bars)

	for _, symbol := range p.Cfg.Universe {
		if ctx.Err() != nil {
			summary.FinishedAt = p.now()
			return summary, ctx.Err()
		}
		computed, insufficient, err := p.Engine.ComputeSymbol(symbol, end)
		summary.InsufficientHistory += insufficient
		if err != nil {
			summary.SymbolErrors = append(summary.SymbolErrors, fmt.Sprintf("%s: %v", symbol, err))
			log.Printf("[ERROR] indicators %s: %v", symbol, err)
			continue
		}
		summary.IndicatorsComputed += computed
		summary.SymbolsProcessed++
	}

	summary.FinishedAt = p.now()
	log.Printf("[INFO] run complete: %d symbols, %d bars fetched, %d indicators, %d failures",
		summary.SymbolsProcessed, summary.BarsFetched, summary.IndicatorsComputed, len(summary.FetchFailures))
	return summary, nil
}

// upsertFetched persists fetched bars, collecting per-row write errors into
// the summary instead of dropping them.
func (p *Pipeline) upsertFetched(summary *model.RunSummary, bars []model.Bar) {
	if len(bars) == 0 {
		return
	}
	err := p.Store.UpsertBars(bars)
	rowErrs := flatten(err)
	summary.StoreErrors = append(summary.StoreErrors, rowErrs...)
	summary.BarsUpserted += len(bars) - len(rowErrs)
	for _, e := range rowErrs {
		log.Printf("[ERROR] store write: %s", e)
	}
}

// targetRange resolves the run's date range: the last HistoryDays trading
// days ending at the most recent completed trading day.
func (p *Pipeline) targetRange() (start, end time.Time, err error) {
	end = model.Day(p.now().AddDate(0, 0, -1))
	for !p.Calendar.IsTradingDay(end) {
		end = end.AddDate(0, 0, -1)
	}

	calendarDays := int(float64(p.Cfg.HistoryDays)/tradingDayRatio) + 10
	spanStart := end.AddDate(0, 0, -calendarDays)
	days, err := p.Calendar.TradingDaysBetween(spanStart, end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(days) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("no trading days in %s..%s",
			model.DateString(spanStart), model.DateString(end))
	}
	if len(days) > p.Cfg.HistoryDays {
		days = days[len(days)-p.Cfg.HistoryDays:]
	}
	return days[0], end, nil
}

func flatten(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
