package calculator

import (
	"fmt"

	"DipSentinel/internal/model"
)

// Params are the named VixFix smoothing constants. The trailing raw series
// is scored against a Bollinger-style envelope: mid + multiplier * stdev
// over the last EnvelopeLookback raw points.
type Params struct {
	EnvelopeLookback int
	StdevMultiplier  float64
}

// DefaultParams match the published CM Williams VixFix variant.
var DefaultParams = Params{EnvelopeLookback: 20, StdevMultiplier: 2.0}

// ExtensionSeries computes the BTD/STR oscillator for one symbol over one
// lookback window. Input bars must be ascending by date. One IndicatorSet is
// produced per evaluation date with at least `window` trailing bars
// (inclusive of the date itself); earlier dates are insufficient history and
// yield no row. The computation is a pure function of bars and params.
func ExtensionSeries(bars []model.Bar, window int, p Params) ([]model.IndicatorSet, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", window)
	}
	if p.EnvelopeLookback <= 0 || p.StdevMultiplier <= 0 {
		return nil, fmt.Errorf("envelope lookback and stdev multiplier must be positive")
	}
	if len(bars) < window {
		return nil, nil // insufficient history, not an error
	}

	type rawPoint struct {
		bar model.Bar
		btd float64
		str float64
	}
	points := make([]rawPoint, 0, len(bars)-window+1)

	for i := window - 1; i < len(bars); i++ {
		closes := make([]float64, window)
		for j := 0; j < window; j++ {
			closes[j] = bars[i-window+1+j].Close
		}
		highestClose, lowestClose, err := HighestLowest(closes)
		if err != nil {
			return nil, err
		}
		if highestClose <= 0 || lowestClose <= 0 {
			// Non-positive close in the window; the ratio is undefined.
			continue
		}
		points = append(points, rawPoint{
			bar: bars[i],
			btd: 100 * (highestClose - bars[i].Low) / highestClose,
			str: 100 * (bars[i].High - lowestClose) / lowestClose,
		})
	}

	sets := make([]model.IndicatorSet, 0, len(points))
	btdRaws := make([]float64, len(points))
	strRaws := make([]float64, len(points))
	for k, pt := range points {
		btdRaws[k] = pt.btd
		strRaws[k] = pt.str
	}

	for k, pt := range points {
		lo := k - p.EnvelopeLookback + 1
		if lo < 0 {
			lo = 0
		}
		btdScore, err := envelopeScore(btdRaws[lo:k+1], p.StdevMultiplier)
		if err != nil {
			return nil, err
		}
		strScore, err := envelopeScore(strRaws[lo:k+1], p.StdevMultiplier)
		if err != nil {
			return nil, err
		}
		sets = append(sets, model.IndicatorSet{
			Symbol: pt.bar.Symbol,
			Date:   pt.bar.Date,
			Window: window,
			RawBTD: pt.btd,
			RawSTR: pt.str,
			BTD:    btdScore,
			STR:    strScore,
		})
	}
	return sets, nil
}

// envelopeScore returns the last value of the trailing raw series relative
// to its upper Bollinger band. Crossing above zero flags overextension.
func envelopeScore(trailing []float64, multiplier float64) (float64, error) {
	mid, err := Mean(trailing)
	if err != nil {
		return 0, err
	}
	dev, err := Stdev(trailing)
	if err != nil {
		return 0, err
	}
	current := trailing[len(trailing)-1]
	return current - (mid + multiplier*dev), nil
}
