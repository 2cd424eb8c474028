package collector

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a fixed ceiling of calls in any rolling window. Wait blocks
// until a call may start without breaching the ceiling; it never rejects.
// The pacing holds globally across however many goroutines share the Pacer.
type Pacer struct {
	ceiling int
	window  time.Duration

	mu    sync.Mutex
	calls []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a pacer allowing at most ceiling calls per rolling window.
func NewPacer(ceiling int, window time.Duration) *Pacer {
	return &Pacer{
		ceiling: ceiling,
		window:  window,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// Wait blocks until an outbound call may start, then records it. It returns
// early only when ctx is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		now := p.now()

		// Drop calls that have aged out of the rolling window.
		cut := 0
		for cut < len(p.calls) && now.Sub(p.calls[cut]) >= p.window {
			cut++
		}
		p.calls = p.calls[cut:]

		if len(p.calls) < p.ceiling {
			p.calls = append(p.calls, now)
			p.mu.Unlock()
			return nil
		}
		wait := p.window - now.Sub(p.calls[0])
		p.mu.Unlock()

		if err := p.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
