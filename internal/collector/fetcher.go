package collector

import (
	"context"
	"errors"
	"time"

	"DipSentinel/internal/model"
)

// Fetcher retrieves daily bars from an upstream provider. One call maps to
// exactly one outbound request.
type Fetcher interface {
	// FetchDaily returns the daily bars for symbol in [start, end]. Days the
	// exchange was closed are simply absent from the result.
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
	Name() string
}

// PermanentError marks a fetch failure that must not be retried, such as an
// unknown symbol or a rejected API key.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the collector reports it immediately instead of
// retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is a non-retryable fetch failure.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
