package notifier

import (
	"fmt"
	"strings"
	"time"

	"DipSentinel/internal/model"
)

// FormatRunSummary renders a pipeline run summary as a Telegram HTML message.
// Every failure is listed with its key and reason.
func FormatRunSummary(s *model.RunSummary) string {
	var b strings.Builder

	status := "✅"
	if !s.OK() {
		status = "⚠️"
	}
	fmt.Fprintf(&b, "%s <b>Daily update</b> %s..%s\n\n",
		status, model.DateString(s.RangeStart), model.DateString(s.RangeEnd))
	fmt.Fprintf(&b, "Symbols processed: %d\n", s.SymbolsProcessed)
	fmt.Fprintf(&b, "Requests issued: %d\n", s.RequestsIssued)
	fmt.Fprintf(&b, "Bars fetched: %d, upserted: %d\n", s.BarsFetched, s.BarsUpserted)
	fmt.Fprintf(&b, "Indicators computed: %d\n", s.IndicatorsComputed)
	if s.InsufficientHistory > 0 {
		fmt.Fprintf(&b, "Insufficient history skips: %d\n", s.InsufficientHistory)
	}

	if len(s.FetchFailures) > 0 {
		fmt.Fprintf(&b, "\n<b>Fetch failures (%d)</b>\n", len(s.FetchFailures))
		for _, f := range s.FetchFailures {
			fmt.Fprintf(&b, "• %s: %s\n", f.Request, f.Reason)
		}
	}
	if len(s.StoreErrors) > 0 {
		fmt.Fprintf(&b, "\n<b>Store errors (%d)</b>\n", len(s.StoreErrors))
		for _, e := range s.StoreErrors {
			fmt.Fprintf(&b, "• %s\n", e)
		}
	}
	if len(s.SymbolErrors) > 0 {
		fmt.Fprintf(&b, "\n<b>Symbol errors (%d)</b>\n", len(s.SymbolErrors))
		for _, e := range s.SymbolErrors {
			fmt.Fprintf(&b, "• %s\n", e)
		}
	}

	fmt.Fprintf(&b, "\nDuration: %s", s.FinishedAt.Sub(s.StartedAt).Round(time.Second))
	return b.String()
}
