// Package population aligns the landmarks of many nuclei against a shared
// median angle profile, and removes nuclei whose size or shape departs too
// far from the rest of the population.
package population

import (
	"errors"
	"fmt"
	"io"
	"log"

	"nucleusmorph/pkg/nucleus"
	"nucleusmorph/pkg/profile"
)

var (
	// ErrEmptyCollection is returned when an operation needs at least one
	// nucleus and there are none left
	ErrEmptyCollection = errors.New("collection is empty")

	// ErrLengthMismatch is returned when a median profile cannot be
	// compared point-for-point with a nucleus profile
	ErrLengthMismatch = profile.ErrLengthMismatch
)

// Measure extracts one scalar statistic from a nucleus.
type Measure func(n *nucleus.Nucleus) float64

var (
	Area             Measure = func(n *nucleus.Nucleus) float64 { return n.Measurements().Area }
	Perimeter        Measure = func(n *nucleus.Nucleus) float64 { return n.Measurements().Perimeter }
	Feret            Measure = func(n *nucleus.Nucleus) float64 { return n.Measurements().Feret }
	PathLength       Measure = func(n *nucleus.Nucleus) float64 { return n.Measurements().PathLength }
	ArrayLength      Measure = func(n *nucleus.Nucleus) float64 { return float64(n.Len()) }
	DistanceToMedian Measure = func(n *nucleus.Nucleus) float64 { return n.DistanceToMedian() }
	Offset           Measure = func(n *nucleus.Nucleus) float64 { return float64(n.Offset()) }
	Orientation      Measure = func(n *nucleus.Nucleus) float64 { return n.Measurements().Orientation }
)

// Collection is an ordered population of nuclei plus the nuclei that have
// been rejected from it.
//
// Statistics are recomputed from the current members on every call. Median
// profiles are cached per landmark and dropped whenever membership changes.
type Collection struct {
	Name string

	nuclei []*nucleus.Nucleus
	failed []*nucleus.Nucleus

	binWidth float64
	medians  map[nucleus.Tag]*MedianProfile
}

// NewCollection creates a collection. Median profiles use bins of binWidth
// percent.
func NewCollection(name string, nuclei []*nucleus.Nucleus, binWidth float64) *Collection {
	members := make([]*nucleus.Nucleus, len(nuclei))
	copy(members, nuclei)
	return &Collection{
		Name:     name,
		nuclei:   members,
		binWidth: binWidth,
		medians:  make(map[nucleus.Tag]*MedianProfile),
	}
}

// Len returns the number of members
func (c *Collection) Len() int { return len(c.nuclei) }

// Nuclei returns the current members in order
func (c *Collection) Nuclei() []*nucleus.Nucleus {
	out := make([]*nucleus.Nucleus, len(c.nuclei))
	copy(out, c.nuclei)
	return out
}

// Failed returns the rejected nuclei
func (c *Collection) Failed() []*nucleus.Nucleus {
	out := make([]*nucleus.Nucleus, len(c.failed))
	copy(out, c.failed)
	return out
}

// Add appends a member
func (c *Collection) Add(n *nucleus.Nucleus) {
	c.nuclei = append(c.nuclei, n)
	c.Invalidate()
}

// RejectFailed moves every member with failure bits set to the failed
// collection and returns how many were moved.
func (c *Collection) RejectFailed() int {
	kept := c.nuclei[:0]
	moved := 0
	for _, n := range c.nuclei {
		if n.Failure() != 0 {
			c.failed = append(c.failed, n)
			moved++
			continue
		}
		kept = append(kept, n)
	}
	c.nuclei = kept
	if moved > 0 {
		c.Invalidate()
	}
	return moved
}

// Invalidate drops cached median profiles
func (c *Collection) Invalidate() {
	c.medians = make(map[nucleus.Tag]*MedianProfile)
}

// Values returns one statistic for every member, in member order.
func (c *Collection) Values(m Measure) []float64 {
	out := make([]float64, len(c.nuclei))
	for i, n := range c.nuclei {
		out[i] = m(n)
	}
	return out
}

// Median returns the median of a statistic over the current members.
func (c *Collection) Median(m Measure) float64 {
	return profile.Median(c.Values(m))
}

// MedianProfile returns the median angle profile of all members read from
// a landmark, building and caching it if needed.
func (c *Collection) MedianProfile(t nucleus.Tag) (*MedianProfile, error) {
	if m, ok := c.medians[t]; ok {
		return m, nil
	}
	m, err := c.buildMedian(t, 1, log.New(io.Discard, "", 0))
	if err != nil {
		return nil, err
	}
	c.medians[t] = m
	return m, nil
}

// buildMedian aggregates member profiles read from t. Members are split into
// contiguous chunks, one per worker, each filling a private aggregate that is
// merged at the end. Members without the landmark are logged and counted in
// MedianProfile.Missing rather than failing the whole population.
func (c *Collection) buildMedian(t nucleus.Tag, workers int, logger *log.Logger) (*MedianProfile, error) {
	if len(c.nuclei) == 0 {
		return nil, ErrEmptyCollection
	}
	if workers < 1 {
		workers = 1
	}

	total := NewAggregate(c.binWidth)
	perWorker := (len(c.nuclei) + workers - 1) / workers
	errs := make([]error, workers)
	missing := make([]int, workers)

	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()

			start := w * perWorker
			end := start + perWorker
			if end > len(c.nuclei) {
				end = len(c.nuclei)
			}
			partial := NewAggregate(c.binWidth)
			for _, n := range c.nuclei[min(start, end):end] {
				p, err := n.ProfileFrom(t)
				if errors.Is(err, nucleus.ErrMissingLandmark) {
					logger.Printf("Warning: leaving %s out of the %s median: %v", n.Name, t, err)
					missing[w]++
					continue
				}
				if err != nil {
					errs[w] = fmt.Errorf("%s: %w", n.Name, err)
					return
				}
				partial.Add(p)
			}
			total.Merge(partial)
		}(w)
	}
	for w := 0; w < workers; w++ {
		<-done
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("aggregating profiles from %s: %w", t, err)
	}
	m, err := total.Summarize()
	if err != nil {
		return nil, fmt.Errorf("aggregating profiles from %s: %w", t, err)
	}
	for _, k := range missing {
		m.Missing += k
	}
	return m, nil
}
