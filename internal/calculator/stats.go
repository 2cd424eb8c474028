package calculator

import (
	"errors"
	"math"
)

// Mean computes the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("no values provided")
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// Stdev computes the population standard deviation of values.
// A single value has zero deviation.
func Stdev(values []float64) (float64, error) {
	mean, err := Mean(values)
	if err != nil {
		return 0, err
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values))), nil
}

// HighestLowest scans values and returns the maximum and minimum.
func HighestLowest(values []float64) (high, low float64, err error) {
	if len(values) == 0 {
		return 0, 0, errors.New("no values provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, v := range values {
		if v > high {
			high = v
		}
		if v < low {
			low = v
		}
	}
	return high, low, nil
}
