package detection

import "nucleusmorph/pkg/profile"

// straightTolerance absorbs rounding on collinear points, which measure
// 180 degrees give or take a few ulps.
const straightTolerance = 1e-6

// OrientationOK reports whether a profile read from the tip runs in the
// canonical direction: the reflex angles must be concentrated in the first
// half of the border rather than the second. The second half starts at the
// midpoint index.
func OrientationOK(fromTip profile.Profile) bool {
	mid := len(fromTip) / 2
	var front, rear float64
	for i, v := range fromTip {
		if v <= 180+straightTolerance {
			continue
		}
		if i < mid {
			front += v
		} else {
			rear += v
		}
	}
	return front > rear
}
