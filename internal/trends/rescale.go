// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package trends

import (
	"math"

	"github.com/fanpulse-io/fanpulse/internal/models"
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// seriesMax returns the largest value in a raw series, 0 for an empty one.
func seriesMax(points []interestPoint) int {
	max := 0
	for _, p := range points {
		if p.Value > max {
			max = p.Value
		}
	}
	return max
}

// strongestKeyword returns the keyword with the highest series total in a
// batch, together with its series.
func strongestKeyword(batch map[string][]interestPoint) (string, []interestPoint) {
	bestKeyword := ""
	bestTotal := -1
	var bestSeries []interestPoint
	for kw, points := range batch {
		total := 0
		for _, p := range points {
			total += p.Value
		}
		if total > bestTotal {
			bestKeyword, bestTotal, bestSeries = kw, total, points
		}
	}
	return bestKeyword, bestSeries
}

// scalePoints multiplies every value by scale, rounding to nearest.
func scalePoints(points []interestPoint, scale float64) []interestPoint {
	scaled := make([]interestPoint, len(points))
	for i, p := range points {
		scaled[i] = interestPoint{
			Date:  p.Date,
			Value: int(math.Round(float64(p.Value) * scale)),
		}
	}
	return scaled
}

// rescaleGlobal linearly rescales every series in place so the global
// maximum maps to 100. A zero global maximum leaves all values unchanged.
func rescaleGlobal(series map[string][]models.TrendPoint) {
	globalMax := 0
	for _, points := range series {
		for _, p := range points {
			if p.Interest > globalMax {
				globalMax = p.Interest
			}
		}
	}
	if globalMax == 0 {
		return
	}

	for kw, points := range series {
		for i := range points {
			points[i].Interest = int(math.Round(float64(points[i].Interest) / float64(globalMax) * 100))
		}
		series[kw] = points
	}
}
