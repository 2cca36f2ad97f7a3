// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package trends

import (
	"reflect"
	"testing"

	"github.com/fanpulse-io/fanpulse/internal/models"
)

func rawSeries(values ...int) []interestPoint {
	points := make([]interestPoint, len(values))
	for i, v := range values {
		points[i] = interestPoint{Date: "2026-08-01", Value: v}
	}
	return points
}

func interests(points []models.TrendPoint) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = p.Interest
	}
	return out
}

func TestScalePoints(t *testing.T) {
	// Reference anchor max 30 against batch anchor max 15 doubles every
	// co-batched value.
	ref := rawSeries(10, 20, 30)
	batchAnchor := rawSeries(5, 10, 15)
	scale := float64(maxInt(seriesMax(ref), 1)) / float64(maxInt(seriesMax(batchAnchor), 1))
	if scale != 2.0 {
		t.Fatalf("scale = %v, want 2.0", scale)
	}

	scaled := scalePoints(rawSeries(2, 4, 6), scale)
	want := []int{4, 8, 12}
	for i, p := range scaled {
		if p.Value != want[i] {
			t.Errorf("scaled[%d] = %d, want %d", i, p.Value, want[i])
		}
	}
}

func TestScalePointsRoundsToNearest(t *testing.T) {
	scaled := scalePoints(rawSeries(1, 3), 1.5)
	if scaled[0].Value != 2 {
		t.Errorf("1*1.5 rounded = %d, want 2", scaled[0].Value)
	}
	if scaled[1].Value != 5 {
		t.Errorf("3*1.5 rounded = %d, want 5", scaled[1].Value)
	}
}

func TestRescaleGlobal(t *testing.T) {
	series := map[string][]models.TrendPoint{
		"a": {{Interest: 50}, {Interest: 25}},
		"b": {{Interest: 10}, {Interest: 33}},
	}
	rescaleGlobal(series)

	if got := interests(series["a"]); !reflect.DeepEqual(got, []int{100, 50}) {
		t.Errorf("a = %v, want [100 50]", got)
	}
	if got := interests(series["b"]); !reflect.DeepEqual(got, []int{20, 66}) {
		t.Errorf("b = %v, want [20 66]", got)
	}
}

func TestRescaleGlobalZeroMaxUnchanged(t *testing.T) {
	series := map[string][]models.TrendPoint{
		"a": {{Interest: 0}, {Interest: 0}},
	}
	rescaleGlobal(series)
	if got := interests(series["a"]); !reflect.DeepEqual(got, []int{0, 0}) {
		t.Errorf("zero-max series changed: %v", got)
	}
}

func TestStrongestKeyword(t *testing.T) {
	batch := map[string][]interestPoint{
		"weak":   rawSeries(1, 1),
		"strong": rawSeries(40, 60),
		"zero":   rawSeries(0, 0),
	}
	kw, points := strongestKeyword(batch)
	if kw != "strong" {
		t.Errorf("strongest = %q, want strong", kw)
	}
	if seriesMax(points) != 60 {
		t.Errorf("strongest series max = %d, want 60", seriesMax(points))
	}
}
