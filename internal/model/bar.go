package model

import "time"

// DateLayout is the canonical form for trading dates throughout the system.
const DateLayout = "2006-01-02"

// Bar is one trading day's OHLCV data for one symbol.
// (Symbol, Date) is the primary key; Date is an exchange-local calendar
// date carried as UTC midnight.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateString formats a trading date in canonical form.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}
