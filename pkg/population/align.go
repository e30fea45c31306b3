package population

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"

	"nucleusmorph/pkg/nucleus"
	"nucleusmorph/pkg/profile"
)

// AlignOptions holds the parameters of population alignment.
type AlignOptions struct {
	// TailSearchMin and TailSearchMax bound, in percent from the tip, the
	// window searched for the tail in the median profile
	TailSearchMin float64
	TailSearchMax float64

	// Extrema controls minimum detection on the median profile
	Extrema profile.ExtremaOptions

	// Workers is the number of goroutines used to aggregate profiles
	Workers int

	// Logger receives per-nucleus warnings. Nil discards them.
	Logger *log.Logger
}

// DefaultAlignOptions returns the standard alignment parameters.
func DefaultAlignOptions() AlignOptions {
	return AlignOptions{
		TailSearchMin: 20,
		TailSearchMax: 60,
		Extrema:       profile.DefaultExtremaOptions(),
		Workers:       1,
	}
}

func (o AlignOptions) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return o.Logger
}

// AlignResult describes one alignment pass.
type AlignResult struct {
	// Median is the tip anchored median profile used as the reference
	Median *MedianProfile

	// ReferenceTail is the tail bin in the median profile
	ReferenceTail int

	Registered int

	// Skipped lists nuclei that could not be registered, with the reason
	Skipped map[string]error
}

// LocateReferenceTail finds the tail in a tip anchored median profile: the
// lowest local minimum strictly inside the search window. Without such a
// minimum the middle bin is returned.
func LocateReferenceTail(m *MedianProfile, opts AlignOptions) int {
	lo := opts.TailSearchMin / m.BinWidth
	hi := opts.TailSearchMax / m.BinWidth

	best := -1
	for _, i := range m.Median.LocalMinima(opts.Extrema) {
		if float64(i) <= lo || float64(i) >= hi {
			continue
		}
		if best < 0 || m.Median[i] < m.Median[best] {
			best = i
		}
	}
	if best < 0 {
		return m.Len() / 2
	}
	return best
}

// Align builds the tip anchored median profile, locates the reference tail in
// it and registers every member against it. It then rebuilds the tail and
// head anchored medians from the registered landmarks.
//
// Nuclei that cannot be registered are logged and left in place; they never
// abort the pass.
func (c *Collection) Align(ctx context.Context, opts AlignOptions) (*AlignResult, error) {
	c.Invalidate()

	logger := opts.logger()
	median, err := c.buildMedian(nucleus.Tip, opts.Workers, logger)
	if err != nil {
		return nil, fmt.Errorf("building tip median: %w", err)
	}
	c.medians[nucleus.Tip] = median

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &AlignResult{
		Median:        median,
		ReferenceTail: LocateReferenceTail(median, opts),
		Skipped:       make(map[string]error),
	}

	for _, n := range c.nuclei {
		if err := register(n, median, result.ReferenceTail); err != nil {
			logger.Printf("Warning: skipping registration of %s: %v", n.Name, err)
			result.Skipped[n.Name] = err
			continue
		}
		result.Registered++
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, t := range []nucleus.Tag{nucleus.Tail, nucleus.Head} {
		m, err := c.buildMedian(t, opts.Workers, logger)
		if err != nil {
			logger.Printf("Warning: no %s anchored median: %v", t, err)
			continue
		}
		c.medians[t] = m
	}
	return result, nil
}

// register moves the tail of n to the reference tail position scaled to its
// border length, sets the head opposite it and records how far the nucleus
// profile is from the median.
func register(n *nucleus.Nucleus, median *MedianProfile, referenceTail int) error {
	tail, err := n.Tag(nucleus.Tail)
	if err != nil {
		return err
	}
	tip, err := n.Tag(nucleus.Tip)
	if err != nil {
		return err
	}
	fromTip, err := n.ProfileFrom(nucleus.Tip)
	if err != nil {
		return err
	}

	interpolated, err := median.Median.Interpolate(n.Len())
	if err != nil {
		return err
	}
	distance, err := fromTip.AbsDifference(interpolated)
	if err != nil {
		return err
	}

	scaled := int(math.Round(float64(referenceTail) / float64(median.Len()) * float64(n.Len())))
	// scaled counts from the tip, which detection normally puts at index 0
	newTail := n.Border().Wrap(tip + scaled)
	offset := tail - newTail

	n.SetOffset(offset)
	n.SetTag(nucleus.Tail, newTail)
	n.SetTag(nucleus.Head, n.Border().OppositeIndex(newTail))
	n.SetDistanceToMedian(distance)
	return nil
}
