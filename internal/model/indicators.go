package model

import "time"

// IndicatorSet holds the overextension oscillator outputs for one
// (symbol, date, window) key. RawBTD is the percentage drawdown of the day's
// low from the highest close over the trailing window; RawSTR is the mirror
// run-up of the day's high off the lowest close. BTD and STR are the
// envelope-relative scores; a value crossing above zero flags overextension.
type IndicatorSet struct {
	Symbol string
	Date   time.Time
	Window int
	RawBTD float64
	RawSTR float64
	BTD    float64
	STR    float64
}
