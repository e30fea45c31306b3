package detection

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"nucleusmorph/pkg/border"
	"nucleusmorph/pkg/profile"
)

// Consensus folds candidate indices left to right, replacing the running
// result with the midpoint of the shorter arc to the next candidate.
func Consensus(n int, candidates []int) int {
	if len(candidates) == 0 {
		return 0
	}
	result := profile.WrapIndex(candidates[0], n)
	for _, c := range candidates[1:] {
		result = border.PositionBetween(result, profile.WrapIndex(c, n), n)
	}
	return result
}

// First keeps the first candidate.
func First(n int, candidates []int) int {
	if len(candidates) == 0 {
		return 0
	}
	return profile.WrapIndex(candidates[0], n)
}

// IntersectionPoint returns the border point on the far side of the outline
// that lies closest to the line from the tail through the centroid. Points
// within half the Feret diameter of the tail are ignored. When nothing
// qualifies the point opposite the tail is used.
func IntersectionPoint(v View, tail int) int {
	b := v.Border
	t := b.Point(tail)
	dir := r2.Sub(b.Centroid(), t)
	length := r2.Norm(dir)
	if length == 0 {
		return b.OppositeIndex(tail)
	}

	best, bestDist := -1, math.Inf(1)
	for j := 0; j < b.Len(); j++ {
		if b.Distance(j, tail) <= v.Feret/2 {
			continue
		}
		d := math.Abs(r2.Cross(dir, r2.Sub(b.Point(j), t))) / length
		if d < bestDist {
			best, bestDist = j, d
		}
	}
	if best < 0 {
		return b.OppositeIndex(tail)
	}
	return best
}
