// Package interpolation resamples circular curves such as angle profiles and
// median profiles to a different number of samples.
package interpolation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// ErrEmptyCurve is returned when there is nothing to interpolate from.
var ErrEmptyCurve = errors.New("cannot interpolate an empty curve")

// Circular is a piecewise linear fit of a closed curve sampled at integer
// positions 0..n-1. Position n joins back onto sample 0.
type Circular struct {
	n  int
	pl interp.PiecewiseLinear
}

// NewCircular fits a circular curve through values.
func NewCircular(values []float64) (*Circular, error) {
	n := len(values)
	if n == 0 {
		return nil, ErrEmptyCurve
	}

	xs := make([]float64, n+1)
	ys := make([]float64, n+1)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = values[i%n]
	}

	c := &Circular{n: n}
	if err := c.pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("fitting circular curve: %w", err)
	}
	return c, nil
}

// Len returns the number of samples the curve was fitted through
func (c *Circular) Len() int { return c.n }

// At returns the value at a fractional position, wrapped onto the curve.
func (c *Circular) At(position float64) float64 {
	x := math.Mod(position, float64(c.n))
	if x < 0 {
		x += float64(c.n)
	}
	return c.pl.Predict(x)
}

// ToLength linearly resamples a circular curve to n samples.
//
// Sample i of the result sits at the fractional position i/n*len(values) of
// the input. The value is interpolated between the two neighbouring input
// samples, wrapping from the last sample back to the first. Because every
// output is a convex combination of two inputs, the result never leaves the
// [min, max] range of the input.
//
// Parameters:
//   - values: the circular curve to resample
//   - n: the number of samples wanted
//
// Returns:
//   - The resampled curve
//   - An error if the input is empty or n is not positive
func ToLength(values []float64, n int) ([]float64, error) {
	if len(values) == 0 {
		return nil, ErrEmptyCurve
	}
	if n <= 0 {
		return nil, fmt.Errorf("invalid target length %d", n)
	}

	result := make([]float64, n)
	if n == len(values) {
		copy(result, values)
		return result, nil
	}

	curve, err := NewCircular(values)
	if err != nil {
		return nil, err
	}
	scale := float64(len(values)) / float64(n)
	for i := range result {
		result[i] = curve.At(float64(i) * scale)
	}
	return result, nil
}

// ValueAt returns the value of a circular curve at a fractional index,
// interpolating linearly between the surrounding samples. An empty curve
// yields NaN.
func ValueAt(values []float64, position float64) float64 {
	curve, err := NewCircular(values)
	if err != nil {
		return math.NaN()
	}
	return curve.At(position)
}
