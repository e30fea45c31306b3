package profile

// extremaEpsilon is the smallest difference that counts as a neighbour being
// lower or higher. Equal angles on a regular outline differ by rounding noise.
const extremaEpsilon = 1e-9

// ExtremaOptions controls local minimum and maximum detection.
type ExtremaOptions struct {
	// LookAhead is how many neighbours on each side are inspected
	LookAhead int

	// Tolerance is how many neighbour positions may break the trend before
	// the point is rejected
	Tolerance int
}

// DefaultExtremaOptions returns a look-ahead of 5 with 2 tolerated errors.
func DefaultExtremaOptions() ExtremaOptions {
	return ExtremaOptions{LookAhead: 5, Tolerance: 2}
}

// LocalMinima returns the indices of tolerant local minima, in increasing order.
//
// For each look-ahead offset l, the neighbours at i-l-1 and i+l+1 are
// compared with the previous neighbour pair (the point itself when l is 0).
// An offset where either neighbour is lower by more than rounding noise
// counts as one error. Flat plateaus therefore qualify.
func (p Profile) LocalMinima(opts ExtremaOptions) []int {
	return p.extrema(opts, func(neighbour, ref float64) bool { return neighbour < ref-extremaEpsilon })
}

// LocalMaxima is the mirror of LocalMinima.
func (p Profile) LocalMaxima(opts ExtremaOptions) []int {
	return p.extrema(opts, func(neighbour, ref float64) bool { return neighbour > ref+extremaEpsilon })
}

func (p Profile) extrema(opts ExtremaOptions, breaks func(neighbour, ref float64) bool) []int {
	var indices []int
	for i := range p {
		errs := opts.Tolerance
		for l := 0; l < opts.LookAhead; l++ {
			prevRef, nextRef := p[i], p[i]
			if l > 0 {
				prevRef, nextRef = p.At(i-l), p.At(i+l)
			}
			if breaks(p.At(i-l-1), prevRef) || breaks(p.At(i+l+1), nextRef) {
				errs--
			}
		}
		if errs >= 0 {
			indices = append(indices, i)
		}
	}
	return indices
}
