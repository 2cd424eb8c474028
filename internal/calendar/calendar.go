package calendar

import (
	"errors"
	"fmt"
	"time"

	"DipSentinel/internal/model"
)

// ErrInvalidRange is returned when a range query has start after end.
var ErrInvalidRange = errors.New("invalid date range: start after end")

// Calendar answers trading-day questions for one exchange. Weekends and the
// exchange's published holidays are non-trading. It has no side effects.
type Calendar struct {
	exchange string
	holidays map[string]bool
}

// NYSE returns the calendar for the New York Stock Exchange.
func NYSE() *Calendar {
	c := &Calendar{
		exchange: "NYSE",
		holidays: make(map[string]bool, len(nyseHolidays)),
	}
	for _, h := range nyseHolidays {
		c.holidays[model.DateString(time.Date(h.year, h.month, h.day, 0, 0, 0, 0, time.UTC))] = true
	}
	return c
}

// Exchange returns the exchange code this calendar covers.
func (c *Calendar) Exchange() string { return c.exchange }

// IsTradingDay reports whether date d is a regular trading session.
func (c *Calendar) IsTradingDay(d time.Time) bool {
	wd := d.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !c.holidays[model.DateString(d)]
}

// TradingDaysBetween returns the trading days in [start, end], ascending and
// inclusive. It fails when start is after end.
func (c *Calendar) TradingDaysBetween(start, end time.Time) ([]time.Time, error) {
	start, end = model.Day(start), model.Day(end)
	if start.After(end) {
		return nil, fmt.Errorf("%w (%s > %s)", ErrInvalidRange, model.DateString(start), model.DateString(end))
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days, nil
}
