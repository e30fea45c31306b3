// Package border represents the closed outline of a nucleus as an ordered ring
// of points, and provides the geometric queries landmark detection relies on:
// interior angles, opposite points through the centroid and index arithmetic
// along the ring.
package border

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/spatial/r2"

	"nucleusmorph/pkg/profile"
)

// ErrTooFewPoints is returned when an outline cannot form a polygon.
var ErrTooFewPoints = errors.New("border needs at least 3 points")

// Border is an immutable closed outline. Index 0 is the current start of the
// ring; Rebased and Reversed return new borders rather than mutating.
type Border struct {
	points   []r2.Vec
	centroid r2.Vec

	// ring mirrors points as a closed orb ring for planar queries
	ring orb.Ring
}

// New creates a border from ordered outline points and a known centroid.
// The points are copied.
func New(points []r2.Vec, centroid r2.Vec) (*Border, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(points))
	}
	pts := make([]r2.Vec, len(points))
	copy(pts, points)
	return &Border{
		points:   pts,
		centroid: centroid,
		ring:     toRing(pts),
	}, nil
}

// FromPoints creates a border and derives its centroid from the enclosed area.
func FromPoints(points []r2.Vec) (*Border, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(points))
	}
	c, _ := planar.CentroidArea(orb.Polygon{toRing(points)})
	return New(points, r2.Vec{X: c[0], Y: c[1]})
}

func toRing(points []r2.Vec) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	return append(ring, ring[0])
}

// Len returns the number of points on the border
func (b *Border) Len() int { return len(b.points) }

// Point returns the point at a wrapped index
func (b *Border) Point(i int) r2.Vec {
	return b.points[profile.WrapIndex(i, len(b.points))]
}

// Points returns a copy of the outline points
func (b *Border) Points() []r2.Vec {
	pts := make([]r2.Vec, len(b.points))
	copy(pts, b.points)
	return pts
}

// Centroid returns the centre of mass of the outline
func (b *Border) Centroid() r2.Vec { return b.centroid }

// Wrap maps an index onto the border
func (b *Border) Wrap(i int) int { return profile.WrapIndex(i, len(b.points)) }

// Distance returns the Euclidean distance between two border points
func (b *Border) Distance(i, j int) float64 {
	return r2.Norm(r2.Sub(b.Point(i), b.Point(j)))
}

// Contains reports whether p lies inside the outline
func (b *Border) Contains(p r2.Vec) bool {
	return planar.RingContains(b.ring, orb.Point{p.X, p.Y})
}

// AngleBetween returns the angle in degrees (0..180) at vertex between the
// rays towards a and c.
func AngleBetween(a, vertex, c r2.Vec) float64 {
	u := r2.Sub(a, vertex)
	v := r2.Sub(c, vertex)
	return math.Atan2(math.Abs(r2.Cross(u, v)), r2.Dot(u, v)) * 180 / math.Pi
}

// Window converts a proportion of the perimeter to a point count, never less
// than one.
func (b *Border) Window(proportion float64) int {
	w := int(math.Round(proportion * float64(len(b.points))))
	if w < 1 {
		w = 1
	}
	return w
}

// InteriorAngle measures the angle at point i between the points window steps
// before and after it. When the midpoint of those two points falls outside
// the outline the point is concave and the reflex angle is returned.
func (b *Border) InteriorAngle(i, window int) float64 {
	before := b.Point(i - window)
	after := b.Point(i + window)
	angle := AngleBetween(before, b.Point(i), after)

	mid := r2.Scale(0.5, r2.Add(before, after))
	if b.Contains(mid) {
		return angle
	}
	return 360 - angle
}

// AngleProfile computes the interior angle at every point.
func (b *Border) AngleProfile(window int) profile.Profile {
	p := make(profile.Profile, len(b.points))
	for i := range p {
		p[i] = b.InteriorAngle(i, window)
	}
	return p
}

// OppositeIndex returns the border point most nearly diametrically opposite
// point i through the centroid. Ties resolve to the lowest index.
func (b *Border) OppositeIndex(i int) int {
	p := b.Point(i)
	best, bestDiff := i, math.Inf(1)
	for j, q := range b.points {
		diff := math.Abs(180 - AngleBetween(p, b.centroid, q))
		if diff < bestDiff {
			best, bestDiff = j, diff
		}
	}
	return best
}

// OrthogonalIndex returns the accepted border point whose direction from the
// centroid is closest to perpendicular to point i, or -1 when accept rejects
// every point. A nil accept allows all points.
func (b *Border) OrthogonalIndex(i int, accept func(j int) bool) int {
	p := b.Point(i)
	best, bestDiff := -1, 90.0
	for j, q := range b.points {
		if accept != nil && !accept(j) {
			continue
		}
		diff := math.Abs(90 - AngleBetween(p, b.centroid, q))
		if diff < bestDiff {
			best, bestDiff = j, diff
		}
	}
	return best
}

// DistanceProfile returns, for every point, the length of the chord through
// the centroid to its opposite point.
func (b *Border) DistanceProfile() profile.Profile {
	p := make(profile.Profile, len(b.points))
	for i := range p {
		p[i] = b.Distance(i, b.OppositeIndex(i))
	}
	return p
}

// Reversed returns the border traversed in the opposite direction, so that
// index i becomes n-1-i.
func (b *Border) Reversed() *Border {
	n := len(b.points)
	pts := make([]r2.Vec, n)
	for i, p := range b.points {
		pts[n-1-i] = p
	}
	return &Border{points: pts, centroid: b.centroid, ring: toRing(pts)}
}

// Rebased returns the border re-indexed so that point k becomes index 0.
func (b *Border) Rebased(k int) *Border {
	n := len(b.points)
	pts := make([]r2.Vec, n)
	for i := range pts {
		pts[i] = b.points[profile.WrapIndex(i+k, n)]
	}
	return &Border{points: pts, centroid: b.centroid, ring: toRing(pts)}
}

// PositionBetween returns the index half way along the shorter arc between a
// and b on a ring of n points. Equal indices return a.
func PositionBetween(a, b, n int) int {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	inner := hi - lo
	outer := n - inner
	if inner < outer {
		return profile.WrapIndex(lo+inner/2, n)
	}
	return profile.WrapIndex(hi+outer/2, n)
}
