package population

import (
	"nucleusmorph/pkg/profile"
)

// MedianProfile summarises an aggregate bin by bin.
type MedianProfile struct {
	BinWidth float64

	Median profile.Profile
	Q10    profile.Profile
	Q25    profile.Profile
	Q75    profile.Profile
	Q90    profile.Profile

	// Counts holds the number of raw values per bin. Repaired bins keep a
	// count of zero.
	Counts []int

	// Missing counts the nuclei left out because they lack the anchor
	// landmark
	Missing int
}

// Len returns the number of bins
func (m *MedianProfile) Len() int { return len(m.Median) }

// Summarize computes the per-bin median and percentiles. Empty bins are
// filled from their nearest populated neighbour; in the lower half of the
// profile the search looks forward first, in the upper half backward first.
// The search does not wrap, so edge bins copy from inside the profile.
func (a *Aggregate) Summarize() (*MedianProfile, error) {
	n := a.Bins()
	m := &MedianProfile{
		BinWidth: a.width,
		Median:   make(profile.Profile, n),
		Q10:      make(profile.Profile, n),
		Q25:      make(profile.Profile, n),
		Q75:      make(profile.Profile, n),
		Q90:      make(profile.Profile, n),
		Counts:   make([]int, n),
	}

	populated := 0
	for i := 0; i < n; i++ {
		values := a.Values(i)
		m.Counts[i] = len(values)
		if len(values) == 0 {
			continue
		}
		populated++
		m.Median[i] = profile.Median(values)
		m.Q10[i] = profile.Quantile(values, 0.10)
		m.Q25[i] = profile.Quantile(values, 0.25)
		m.Q75[i] = profile.Quantile(values, 0.75)
		m.Q90[i] = profile.Quantile(values, 0.90)
	}
	if populated == 0 {
		return nil, ErrEmptyCollection
	}

	for i := 0; i < n; i++ {
		if m.Counts[i] > 0 {
			continue
		}
		src := m.nearestPopulated(i)
		m.Median[i] = m.Median[src]
		m.Q10[i] = m.Q10[src]
		m.Q25[i] = m.Q25[src]
		m.Q75[i] = m.Q75[src]
		m.Q90[i] = m.Q90[src]
	}
	return m, nil
}

func (m *MedianProfile) nearestPopulated(i int) int {
	n := len(m.Counts)
	step := 1
	if i >= n/2 {
		step = -1
	}
	for d := 1; d < n; d++ {
		for _, j := range []int{i + step*d, i - step*d} {
			if j >= 0 && j < n && m.Counts[j] > 0 {
				return j
			}
		}
	}
	return i
}
