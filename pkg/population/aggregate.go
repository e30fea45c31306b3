package population

import (
	"math"
	"sync"

	"nucleusmorph/pkg/profile"
)

// Aggregate collects angle values from many profiles into position bins.
// Positions run from 0 to 100 percent of the border, and each bin is the
// half-open interval [k*width, (k+1)*width). It is safe for concurrent use.
type Aggregate struct {
	width float64

	mu   sync.Mutex
	bins [][]float64
}

// NewAggregate creates an empty aggregate with bins of the given width in
// percent.
func NewAggregate(width float64) *Aggregate {
	n := int(math.Round(100 / width))
	if n < 1 {
		n = 1
	}
	return &Aggregate{
		width: width,
		bins:  make([][]float64, n),
	}
}

// Bins returns the number of bins
func (a *Aggregate) Bins() int { return len(a.bins) }

// BinWidth returns the bin width in percent
func (a *Aggregate) BinWidth() float64 { return a.width }

// Bin returns the bin index for a position in percent.
func (a *Aggregate) Bin(position float64) int {
	b := int(math.Floor(position / a.width))
	if b < 0 {
		return 0
	}
	if b >= len(a.bins) {
		return len(a.bins) - 1
	}
	return b
}

// Add places every value of p in the bin of its normalised position.
func (a *Aggregate) Add(p profile.Profile) {
	local := a.spread(p)
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, values := range local {
		a.bins[i] = append(a.bins[i], values...)
	}
}

// Merge adds the contents of another aggregate with the same bin width.
func (a *Aggregate) Merge(other *Aggregate) {
	other.mu.Lock()
	defer other.mu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, values := range other.bins {
		a.bins[i] = append(a.bins[i], values...)
	}
}

func (a *Aggregate) spread(p profile.Profile) [][]float64 {
	local := make([][]float64, len(a.bins))
	n := float64(len(p))
	for i, v := range p {
		b := a.Bin(float64(i) * 100 / n)
		local[b] = append(local[b], v)
	}
	return local
}

// Values returns a copy of the values in bin i
func (a *Aggregate) Values(i int) []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]float64, len(a.bins[i]))
	copy(out, a.bins[i])
	return out
}
