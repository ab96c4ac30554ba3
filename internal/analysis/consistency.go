package analysis

import (
	"math"

	"github.com/verte-zerg/neurosense/internal/model"
)

// Consistency scores rhythm regularity in [0, 100] from the coefficient of
// variation of inter-keystroke intervals. Fewer than two intervals score 0.
func Consistency(events []model.KeyEvent) float64 {
	intervals := Intervals(events)
	if len(intervals) < 2 {
		return 0
	}
	return consistencyScore(CoefficientOfVariation(intervals))
}

// CoefficientOfVariation is the population standard deviation divided by
// the mean. A zero mean yields 0.
func CoefficientOfVariation(values []float64) float64 {
	mean, stddev := MeanStdDev(values)
	if mean == 0 {
		return 0
	}
	return stddev / mean
}

// MeanStdDev returns the mean and population standard deviation.
func MeanStdDev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	stddev = math.Sqrt(sq / float64(len(values)))
	return mean, stddev
}

func consistencyScore(cv float64) float64 {
	score := 100 - cv*100
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
