// Package detection finds the landmarks of a single nucleus: the tip, the
// correct border direction, the tail and the points derived from it.
//
// Detectors are pure functions of a read-only View and return a border
// index. Stages turn detector results into nucleus.Patch values, so the
// only mutation happens when a patch is applied to a working copy.
package detection

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"nucleusmorph/pkg/border"
	"nucleusmorph/pkg/nucleus"
	"nucleusmorph/pkg/profile"
)

// View is the read-only input of a detector.
type View struct {
	Border  *border.Border
	Angles  profile.Profile
	Tags    map[nucleus.Tag]int
	Feret   float64
	Extrema profile.ExtremaOptions
}

// ViewOf snapshots a nucleus for detection.
func ViewOf(n *nucleus.Nucleus, extrema profile.ExtremaOptions) View {
	return View{
		Border:  n.Border(),
		Angles:  n.Angles(),
		Tags:    n.Tags(),
		Feret:   n.Measurements().Feret,
		Extrema: extrema,
	}
}

func (v View) tag(t nucleus.Tag) int {
	if i, ok := v.Tags[t]; ok {
		return i
	}
	return 0
}

// Detector proposes a border index from a view.
type Detector func(v View) int

// Tip returns the global minimum of the angle profile: the sharpest point.
func Tip(v View) int {
	return v.Angles.IndexOfMin()
}

// MinimaDistance scores every local angle minimum by how far it sits from
// both the tip and the centroid, and returns the best scoring one. The tip
// is returned when there are no minima.
func MinimaDistance(v View) int {
	tip := v.tag(nucleus.Tip)
	centre := v.Border.Centroid()
	tipPoint := v.Border.Point(tip)
	tipToCentre := r2.Norm(r2.Sub(tipPoint, centre))

	best, bestScore := tip, 0.0
	for _, i := range v.Angles.LocalMinima(v.Extrema) {
		p := v.Border.Point(i)
		score := tipToCentre + r2.Norm(r2.Sub(centre, p)) + r2.Norm(r2.Sub(tipPoint, p))
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// deltaWindow is the number of angle deltas averaged around each point.
const deltaWindow = 5

// Deltas looks for blocks of consecutive points, read from the tip, where the
// smoothed change in angle is at least one degree. It returns the middle of
// the block furthest from the tip. Blocks of a single point are ignored, and
// the tip is returned when no block qualifies.
func Deltas(v View) int {
	tip := v.tag(nucleus.Tip)
	fromTip := v.Angles.Offset(tip)
	n := len(fromTip)

	deltas := make(profile.Profile, n)
	for i := range deltas {
		deltas[i] = fromTip.At(i+1) - fromTip.At(i-1)
	}
	smoothed := deltas.Smooth((deltaWindow - 1) / 2)

	tipPoint := v.Border.Point(tip)
	best, bestDist := tip, 0.0
	for start := 0; start < n; {
		if smoothed[start] < 1 {
			start++
			continue
		}
		end := start
		for end+1 < n && smoothed[end+1] >= 1 {
			end++
		}
		if length := end - start + 1; length > 1 {
			mid := v.Border.Wrap(tip + start + length/2)
			if d := r2.Norm(r2.Sub(v.Border.Point(mid), tipPoint)); d > bestDist {
				best, bestDist = mid, d
			}
		}
		start = end + 1
	}
	return best
}

// Maxima returns the local maximum whose angle exceeds 180 degrees by the
// most. Without any reflex maximum the first maximum is used, and without
// maxima the tip.
func Maxima(v View) int {
	maxima := v.Angles.LocalMaxima(v.Extrema)
	if len(maxima) == 0 {
		return v.tag(nucleus.Tip)
	}
	best, bestExcess := maxima[0], 0.0
	for _, i := range maxima {
		if excess := v.Angles[i] - 180; excess > bestExcess {
			best, bestExcess = i, excess
		}
	}
	return best
}

// NarrowestDiameter finds the narrowest chord through the centroid, then
// returns the border point closest to perpendicular to it that lies further
// from the tip than the centroid does.
func NarrowestDiameter(v View) int {
	tip := v.tag(nucleus.Tip)

	limit := v.Feret
	if limit <= 0 {
		limit = math.Inf(1)
	}
	narrowest := tip
	for i, d := range v.Border.DistanceProfile() {
		if d < limit {
			narrowest, limit = i, d
		}
	}

	tipToCentre := r2.Norm(r2.Sub(v.Border.Point(tip), v.Border.Centroid()))
	i := v.Border.OrthogonalIndex(narrowest, func(j int) bool {
		return v.Border.Distance(j, tip) > tipToCentre
	})
	if i < 0 {
		return tip
	}
	return i
}

// MaxAngle returns the highest local maximum of the angle profile, or the
// global maximum when there are no local maxima.
func MaxAngle(v View) int {
	maxima := v.Angles.LocalMaxima(v.Extrema)
	if len(maxima) == 0 {
		return v.Angles.IndexOfMax()
	}
	best := maxima[0]
	for _, i := range maxima[1:] {
		if v.Angles[i] > v.Angles[best] {
			best = i
		}
	}
	return best
}
