// Package profile holds circular per-point value sequences such as the angle
// profile of a nucleus outline, and the index arithmetic that goes with them.
package profile

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"nucleusmorph/pkg/interpolation"
)

// ErrLengthMismatch is returned when two profiles that must be compared
// point-for-point have different lengths.
var ErrLengthMismatch = errors.New("profile lengths differ")

// Profile is a circular sequence of values, one per border point. Index 0 is
// whatever the owner treats as the start of the border.
type Profile []float64

// WrapIndex maps any integer into [0, n). It panics when n is not positive,
// since a zero length border is a programming error upstream.
func WrapIndex(i, n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("profile: wrap index %d with non-positive length %d", i, n))
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Len returns the number of values in the profile
func (p Profile) Len() int { return len(p) }

// At returns the value at a wrapped index
func (p Profile) At(i int) float64 {
	return p[WrapIndex(i, len(p))]
}

// Copy returns an independent copy of the profile
func (p Profile) Copy() Profile {
	c := make(Profile, len(p))
	copy(c, p)
	return c
}

// Offset returns the profile re-read so that index k becomes index 0.
func (p Profile) Offset(k int) Profile {
	n := len(p)
	out := make(Profile, n)
	for i := range out {
		out[i] = p[WrapIndex(i+k, n)]
	}
	return out
}

// Reversed returns the profile read backwards, mapping index i to n-1-i.
func (p Profile) Reversed() Profile {
	n := len(p)
	out := make(Profile, n)
	for i, v := range p {
		out[n-1-i] = v
	}
	return out
}

// IndexOfMin returns the first index of the smallest value, or -1 for an
// empty profile.
func (p Profile) IndexOfMin() int {
	if len(p) == 0 {
		return -1
	}
	return floats.MinIdx(p)
}

// IndexOfMax returns the first index of the largest value, or -1 for an
// empty profile.
func (p Profile) IndexOfMax() int {
	if len(p) == 0 {
		return -1
	}
	return floats.MaxIdx(p)
}

// Smooth applies a circular moving average using window points on each side.
func (p Profile) Smooth(window int) Profile {
	n := len(p)
	if window <= 0 || n == 0 {
		return p.Copy()
	}
	out := make(Profile, n)
	span := float64(2*window + 1)
	for i := range p {
		var sum float64
		for j := -window; j <= window; j++ {
			sum += p.At(i + j)
		}
		out[i] = sum / span
	}
	return out
}

// AbsDifference is the sum of absolute point-wise differences between two
// profiles of equal length.
func (p Profile) AbsDifference(q Profile) (float64, error) {
	if len(p) != len(q) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(p), len(q))
	}
	diff := make([]float64, len(p))
	floats.SubTo(diff, p, q)
	for i, d := range diff {
		diff[i] = math.Abs(d)
	}
	return floats.Sum(diff), nil
}

// Interpolate linearly resamples the profile to n points.
func (p Profile) Interpolate(n int) (Profile, error) {
	values, err := interpolation.ToLength(p, n)
	if err != nil {
		return nil, fmt.Errorf("interpolating profile of length %d: %w", len(p), err)
	}
	return Profile(values), nil
}

// PathLength walks the profile as a curve of (position, value) points, with
// positions normalised to 0..100, and returns its length. The walk starts at
// the origin. A ragged, noisy profile has a much longer path than a clean one.
func (p Profile) PathLength() float64 {
	n := len(p)
	if n == 0 {
		return 0
	}
	var length, prevX, prevY float64
	for i, v := range p {
		x := float64(i) / float64(n) * 100
		length += math.Hypot(x-prevX, v-prevY)
		prevX, prevY = x, v
	}
	return length
}
