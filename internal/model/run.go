package model

import (
	"fmt"
	"time"
)

// FetchRequest asks the upstream provider for daily bars over a contiguous
// range of missing trading days for one symbol. TradingDays is the number of
// trading days the range is expected to cover.
type FetchRequest struct {
	Symbol      string
	Start       time.Time
	End         time.Time
	TradingDays int
}

func (r FetchRequest) String() string {
	return fmt.Sprintf("%s %s..%s", r.Symbol, DateString(r.Start), DateString(r.End))
}

// FetchFailure records a request that could not be satisfied.
type FetchFailure struct {
	Request FetchRequest
	Reason  string
}

// RunSummary is the structured result of one pipeline run. Every failure is
// enumerated; nothing is swallowed.
type RunSummary struct {
	StartedAt           time.Time
	FinishedAt          time.Time
	RangeStart          time.Time
	RangeEnd            time.Time
	SymbolsProcessed    int
	RequestsIssued      int
	BarsFetched         int
	BarsUpserted        int
	IndicatorsComputed  int
	InsufficientHistory int
	FetchFailures       []FetchFailure
	StoreErrors         []string
	SymbolErrors        []string
}

// OK reports whether the run completed without any failure.
func (s *RunSummary) OK() bool {
	return len(s.FetchFailures) == 0 && len(s.StoreErrors) == 0 && len(s.SymbolErrors) == 0
}
