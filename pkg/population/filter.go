package population

import (
	"fmt"
	"io"
	"log"

	"nucleusmorph/pkg/nucleus"
)

// FilterOptions holds the population filter thresholds.
type FilterOptions struct {
	// MaxDifference is the largest accepted ratio between a statistic and
	// its population median, in either direction
	MaxDifference float64

	// MaxWobble is the largest accepted ratio between a path length and the
	// median path length
	MaxWobble float64

	// Logger receives one line per rejected nucleus. Nil discards them.
	Logger *log.Logger
}

// DefaultFilterOptions returns the standard thresholds.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{MaxDifference: 1.5, MaxWobble: 1.2}
}

// Rejection records why one nucleus was removed.
type Rejection struct {
	Name    string
	Failure nucleus.FailureCode
}

// FilterReport summarises one filter pass.
type FilterReport struct {
	Before   int
	Kept     int
	Rejected []Rejection
}

type bounds struct{ lo, hi float64 }

func around(median, ratio float64) bounds {
	return bounds{lo: median / ratio, hi: median * ratio}
}

func (b bounds) excludes(v float64) bool { return v < b.lo || v > b.hi }

// Filter rejects members whose statistics stray from the population medians.
// All medians are taken from the membership at the start of the pass. A
// rejected nucleus has its failure bits set and moves to the failed
// collection. When nothing is left, ErrEmptyCollection is returned along with
// the report.
func (c *Collection) Filter(opts FilterOptions) (*FilterReport, error) {
	report := &FilterReport{Before: len(c.nuclei)}
	if len(c.nuclei) == 0 {
		return report, ErrEmptyCollection
	}

	var logger *log.Logger
	if logger = opts.Logger; logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	area := around(c.Median(Area), opts.MaxDifference)
	perimeter := around(c.Median(Perimeter), opts.MaxDifference)
	arrayLength := around(c.Median(ArrayLength), opts.MaxDifference)
	maxPath := c.Median(PathLength) * opts.MaxWobble
	minFeret := c.Median(Feret) / opts.MaxDifference

	kept := make([]*nucleus.Nucleus, 0, len(c.nuclei))
	for _, n := range c.nuclei {
		m := n.Measurements()
		var code nucleus.FailureCode
		if area.excludes(m.Area) {
			code |= nucleus.FailureArea
		}
		if perimeter.excludes(m.Perimeter) {
			code |= nucleus.FailurePerimeter
		}
		if m.PathLength > maxPath {
			code |= nucleus.FailureThreshold
		}
		if arrayLength.excludes(float64(n.Len())) {
			code |= nucleus.FailureArray
		}
		if m.Feret < minFeret {
			code |= nucleus.FailureFeret
		}

		if code == 0 {
			kept = append(kept, n)
			continue
		}
		n.AddFailure(code)
		c.failed = append(c.failed, n)
		report.Rejected = append(report.Rejected, Rejection{Name: n.Name, Failure: code})
		logger.Printf("Rejected %s: %s", n.Name, code)
	}

	c.nuclei = kept
	report.Kept = len(kept)
	if len(report.Rejected) > 0 {
		c.Invalidate()
	}
	if len(kept) == 0 {
		return report, fmt.Errorf("filtering %s: %w", c.Name, ErrEmptyCollection)
	}
	return report, nil
}
