package border

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// Shape holds the size and shape statistics derived from an outline.
type Shape struct {
	Area      float64
	Perimeter float64

	// Feret is the maximum caliper diameter
	Feret float64

	Centroid r2.Vec

	// Orientation is the angle in degrees (0..180) of the principal axis
	// of the outline points, measured from the x axis
	Orientation float64
}

// Measure derives the shape statistics of the border.
func (b *Border) Measure() Shape {
	c, area := planar.CentroidArea(orb.Polygon{b.ring})
	return Shape{
		Area:        math.Abs(area),
		Perimeter:   planar.Length(b.ring),
		Feret:       b.Feret(),
		Centroid:    r2.Vec{X: c[0], Y: c[1]},
		Orientation: b.principalAxis(),
	}
}

// Feret returns the largest distance between any two border points.
func (b *Border) Feret() float64 {
	var max float64
	for i := range b.points {
		for j := i + 1; j < len(b.points); j++ {
			if d := r2.Norm(r2.Sub(b.points[i], b.points[j])); d > max {
				max = d
			}
		}
	}
	return max
}

func (b *Border) principalAxis() float64 {
	data := mat.NewDense(len(b.points), 2, nil)
	for i, p := range b.points {
		data.Set(i, 0, p.X)
		data.Set(i, 1, p.Y)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	var eig mat.EigenSym
	if !eig.Factorize(&cov, true) {
		return 0
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// eigenvalues are ascending, so the major axis is the last column
	angle := math.Atan2(vecs.At(1, 1), vecs.At(0, 1)) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	if angle >= 180 {
		angle -= 180
	}
	return angle
}

// Resample walks the closed outline and returns points spaced evenly along
// it, spacing apart. The first point is kept.
func Resample(points []r2.Vec, spacing float64) []r2.Vec {
	if len(points) < 2 || spacing <= 0 {
		out := make([]r2.Vec, len(points))
		copy(out, points)
		return out
	}

	out := []r2.Vec{points[0]}
	carried := 0.0
	for i := range points {
		from := points[i]
		to := points[(i+1)%len(points)]
		seg := r2.Norm(r2.Sub(to, from))
		if seg == 0 {
			continue
		}
		dir := r2.Scale(1/seg, r2.Sub(to, from))

		// distance along this segment of the next emitted point
		next := spacing - carried
		for next < seg {
			out = append(out, r2.Add(from, r2.Scale(next, dir)))
			next += spacing
		}
		carried = seg - (next - spacing)
	}

	// drop a final point that would sit on top of the start
	if len(out) > 1 && r2.Norm(r2.Sub(out[len(out)-1], out[0])) < spacing/2 {
		out = out[:len(out)-1]
	}
	return out
}
