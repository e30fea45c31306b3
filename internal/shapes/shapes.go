// Package shapes generates synthetic nucleus outlines. They stand in for
// segmented images in tests and in the demo command.
package shapes

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// Circle returns n points evenly spaced counter-clockwise on a circle
// centred on the origin, starting on the positive x axis.
func Circle(n int, radius float64) []r2.Vec {
	return Ellipse(n, radius, radius)
}

// Ellipse returns n points on an axis aligned ellipse centred on the origin.
func Ellipse(n int, a, b float64) []r2.Vec {
	points := make([]r2.Vec, n)
	for i := range points {
		theta := 2 * math.Pi * float64(i) / float64(n)
		points[i] = r2.Vec{X: a * math.Cos(theta), Y: b * math.Sin(theta)}
	}
	return points
}

// Teardrop returns n points on a circle of the given radius joined to an
// apex on the positive x axis by its two tangent lines. The outline starts at
// the apex and runs counter-clockwise.
func Teardrop(n int, radius, apex float64) []r2.Vec {
	return Hooked(n, radius, apex, 0)
}

// Hooked is a teardrop with a concave notch pressed into the upper flank of
// the rounded end, giving the outline a handed asymmetry. A notch depth of
// zero yields a plain teardrop.
func Hooked(n int, radius, apex, notch float64) []r2.Vec {
	// tangent points sit where cos(theta) = radius/apex
	tangent := math.Acos(radius / apex)
	line := math.Sqrt(apex*apex - radius*radius)
	arc := radius * (2*math.Pi - 2*tangent)
	total := 2*line + arc

	tip := r2.Vec{X: apex}
	upper := r2.Vec{X: radius * math.Cos(tangent), Y: radius * math.Sin(tangent)}
	lower := r2.Vec{X: upper.X, Y: -upper.Y}

	const notchAt = 130 * math.Pi / 180
	const notchWidth = 15 * math.Pi / 180

	points := make([]r2.Vec, n)
	for i := range points {
		s := total * float64(i) / float64(n)
		switch {
		case s < line:
			points[i] = lerp(tip, upper, s/line)
		case s < line+arc:
			theta := tangent + (s-line)/radius
			d := theta - notchAt
			r := radius - notch*math.Exp(-d*d/(2*notchWidth*notchWidth))
			points[i] = r2.Vec{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
		default:
			points[i] = lerp(lower, tip, (s-line-arc)/line)
		}
	}
	return points
}

func lerp(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// Transform rotates points by degrees about the origin, scales them and
// then shifts them.
func Transform(points []r2.Vec, degrees, scale float64, shift r2.Vec) []r2.Vec {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	out := make([]r2.Vec, len(points))
	for i, p := range points {
		rotated := r2.Vec{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}
		out[i] = r2.Add(r2.Scale(scale, rotated), shift)
	}
	return out
}

// StartAt re-orders the outline so that it begins at index start.
func StartAt(points []r2.Vec, start int) []r2.Vec {
	n := len(points)
	out := make([]r2.Vec, n)
	for i := range out {
		out[i] = points[((i+start)%n+n)%n]
	}
	return out
}

// Mirror reflects the outline in the x axis, which also reverses its winding.
func Mirror(points []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, len(points))
	for i, p := range points {
		out[i] = r2.Vec{X: p.X, Y: -p.Y}
	}
	return out
}

// Jitter displaces every point by a uniform random offset of up to amount
// in each axis.
func Jitter(points []r2.Vec, amount float64, rng *rand.Rand) []r2.Vec {
	out := make([]r2.Vec, len(points))
	for i, p := range points {
		out[i] = r2.Vec{
			X: p.X + (rng.Float64()*2-1)*amount,
			Y: p.Y + (rng.Float64()*2-1)*amount,
		}
	}
	return out
}

// Reverse returns the outline traversed in the opposite direction, keeping
// the first point first.
func Reverse(points []r2.Vec) []r2.Vec {
	n := len(points)
	out := make([]r2.Vec, n)
	for i := range out {
		out[i] = points[(n-i)%n]
	}
	return out
}
