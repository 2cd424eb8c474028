package collector

import (
	"context"
	"log"
	"time"

	"DipSentinel/internal/model"
)

// Collector runs fetch requests against the upstream provider under the
// pacer's rate ceiling, retrying transient failures with backoff. Partial
// success is expected: bars for successful requests are returned alongside
// the failures, and one failing request never aborts the rest of the queue.
type Collector struct {
	Fetcher     Fetcher
	Pacer       *Pacer
	MaxAttempts int

	backoff func(attempt int) time.Duration
}

// NewCollector creates a collector retrying each transiently failing call up
// to maxAttempts times.
func NewCollector(fetcher Fetcher, pacer *Pacer, maxAttempts int) *Collector {
	return &Collector{
		Fetcher:     fetcher,
		Pacer:       pacer,
		MaxAttempts: maxAttempts,
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt)) * time.Second
		},
	}
}

// Fetch executes the requests in order. It returns all successfully fetched
// bars, the failed requests with reasons, and an error only when ctx is
// cancelled before the queue is drained.
func (c *Collector) Fetch(ctx context.Context, requests []model.FetchRequest) ([]model.Bar, []model.FetchFailure, error) {
	var bars []model.Bar
	var failures []model.FetchFailure

	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return bars, failures, err
		}
		fetched, err := c.fetchOne(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return bars, failures, ctx.Err()
			}
			failures = append(failures, model.FetchFailure{Request: req, Reason: err.Error()})
			log.Printf("[ERROR] fetch %s: %v", req, err)
			continue
		}
		bars = append(bars, fetched...)
		log.Printf("[INFO] fetched %d bars for %s", len(fetched), req)
	}
	return bars, failures, nil
}

func (c *Collector) fetchOne(ctx context.Context, req model.FetchRequest) ([]model.Bar, error) {
	var lastErr error
	for attempt := 0; attempt < c.MaxAttempts; attempt++ {
		if err := c.Pacer.Wait(ctx); err != nil {
			return nil, err
		}
		bars, err := c.Fetcher.FetchDaily(ctx, req.Symbol, req.Start, req.End)
		if err == nil {
			return bars, nil
		}
		if IsPermanent(err) {
			return nil, err
		}
		lastErr = err
		if attempt == c.MaxAttempts-1 {
			break
		}
		wait := c.backoff(attempt)
		log.Printf("[WARN] fetch %s failed (attempt %d/%d): %v, retrying in %v",
			req, attempt+1, c.MaxAttempts, err, wait)
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}
