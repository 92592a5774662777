// Package stats holds the pure numeric primitives the aggregator is built
// on. Everything here is deterministic: same input slice, same output.
package stats

import (
	"math"
	"sort"
)

// Percentile returns the p-th percentile of sorted using linear
// interpolation between closest ranks: index = p/100 * (n-1), then the
// value is interpolated between the bounding elements by the fractional
// part. sorted must be in ascending order. p is clamped to [0, 100].
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	if p < 0 {
		p = 0
	} else if p > 100 {
		p = 100
	}

	index := p / 100 * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if upper >= n {
		return sorted[n-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Mean returns the arithmetic average of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation around mean, dividing by
// N rather than N-1. A slice with fewer than two elements has no spread.
func StdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// SortedCopy returns values sorted ascending without mutating the input.
func SortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

// Round2 rounds to two decimal places. Aggregated money values are rounded
// once, at write time, so stored and served numbers are identical.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RoomHistogram counts listings per room bucket. Four rooms and up share
// one bucket.
type RoomHistogram struct {
	One      int
	Two      int
	Three    int
	FourPlus int
}

// BucketRooms tallies room counts into histogram buckets. Listings without
// a room count are excluded from every bucket, not coerced to zero.
func BucketRooms(rooms []*int) RoomHistogram {
	var h RoomHistogram
	for _, r := range rooms {
		if r == nil {
			continue
		}
		switch {
		case *r == 1:
			h.One++
		case *r == 2:
			h.Two++
		case *r == 3:
			h.Three++
		case *r >= 4:
			h.FourPlus++
		}
	}
	return h
}
