// Package nucleus holds a single segmented nucleus: its outline, angle
// profile, landmark tags, measurements and failure state.
package nucleus

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"nucleusmorph/pkg/border"
	"nucleusmorph/pkg/profile"
)

// ErrMissingLandmark is returned when a tag has not been detected yet.
var ErrMissingLandmark = errors.New("missing landmark")

// Measurements are the size statistics used for population filtering.
type Measurements struct {
	Area      float64
	Perimeter float64
	Feret     float64

	// PathLength is the length of the angle profile drawn as a curve from
	// the tip. It grows with outline noise.
	PathLength float64

	Centroid r2.Vec

	// Orientation is the principal axis angle in degrees
	Orientation float64
}

// Nucleus is one outline under analysis.
//
// A nucleus is owned by a single goroutine at a time. Detection works on a
// clone, and population stages only run after detection has finished.
type Nucleus struct {
	ID     uuid.UUID
	Name   string
	Family Family

	border *border.Border
	angles profile.Profile
	window int

	tags         map[Tag]int
	measurements Measurements
	failure      FailureCode

	// offset is the shift applied to the tail during registration
	offset           int
	distanceToMedian float64
}

// New creates a nucleus from its outline. Measurements are derived from the
// border; use SetMeasurements to override them with externally supplied
// values. windowProportion sets the angle window as a fraction of the
// border length.
func New(name string, family Family, b *border.Border, windowProportion float64) *Nucleus {
	shape := b.Measure()
	n := &Nucleus{
		ID:     uuid.New(),
		Name:   name,
		Family: family,
		border: b,
		window: b.Window(windowProportion),
		tags:   make(map[Tag]int),
		measurements: Measurements{
			Area:        shape.Area,
			Perimeter:   shape.Perimeter,
			Feret:       shape.Feret,
			Centroid:    b.Centroid(),
			Orientation: shape.Orientation,
		},
	}
	n.refresh()
	return n
}

// refresh recomputes everything derived from the border points.
func (n *Nucleus) refresh() {
	n.angles = n.border.AngleProfile(n.window)
	from := n.angles
	if i, ok := n.tags[Tip]; ok {
		from = n.angles.Offset(i)
	}
	n.measurements.PathLength = from.PathLength()
}

// Border returns the outline
func (n *Nucleus) Border() *border.Border { return n.border }

// Len returns the number of border points
func (n *Nucleus) Len() int { return n.border.Len() }

// Window returns the angle window in points
func (n *Nucleus) Window() int { return n.window }

// Angles returns a copy of the angle profile indexed from border point 0
func (n *Nucleus) Angles() profile.Profile { return n.angles.Copy() }

// Tag returns the index of a landmark.
func (n *Nucleus) Tag(t Tag) (int, error) {
	i, ok := n.tags[t]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingLandmark, t)
	}
	return i, nil
}

// HasTag reports whether a landmark has been set
func (n *Nucleus) HasTag(t Tag) bool {
	_, ok := n.tags[t]
	return ok
}

// SetTag records a landmark, wrapping the index onto the border.
func (n *Nucleus) SetTag(t Tag, i int) {
	n.tags[t] = n.border.Wrap(i)
	if t == Tip {
		n.measurements.PathLength = n.angles.Offset(n.tags[t]).PathLength()
	}
}

// Tags returns a copy of all landmarks
func (n *Nucleus) Tags() map[Tag]int {
	tags := make(map[Tag]int, len(n.tags))
	for t, i := range n.tags {
		tags[t] = i
	}
	return tags
}

// ProfileFrom returns the angle profile re-read so that the landmark is at
// index 0.
func (n *Nucleus) ProfileFrom(t Tag) (profile.Profile, error) {
	i, err := n.Tag(t)
	if err != nil {
		return nil, err
	}
	return n.angles.Offset(i), nil
}

// Measurements returns the size statistics
func (n *Nucleus) Measurements() Measurements { return n.measurements }

// SetMeasurements replaces the size statistics. The path length is always
// derived from the angle profile and is not overwritten.
func (n *Nucleus) SetMeasurements(m Measurements) {
	m.PathLength = n.measurements.PathLength
	n.measurements = m
}

// Failure returns the accumulated failure bits
func (n *Nucleus) Failure() FailureCode { return n.failure }

// AddFailure sets failure bits
func (n *Nucleus) AddFailure(c FailureCode) { n.failure |= c }

// Offset returns the registration offset of the tail
func (n *Nucleus) Offset() int { return n.offset }

// SetOffset records the registration offset
func (n *Nucleus) SetOffset(o int) { n.offset = o }

// DistanceToMedian returns the summed absolute difference between this
// nucleus' profile and the population median
func (n *Nucleus) DistanceToMedian() float64 { return n.distanceToMedian }

// SetDistanceToMedian records the distance to the population median
func (n *Nucleus) SetDistanceToMedian(d float64) { n.distanceToMedian = d }

// Reverse flips the direction of the border. Every landmark keeps pointing at
// the same physical point.
func (n *Nucleus) Reverse() {
	last := n.border.Len() - 1
	n.border = n.border.Reversed()
	for t, i := range n.tags {
		n.tags[t] = last - i
	}
	n.refresh()
}

// Rebase renumbers the border so that index k becomes 0. Every landmark keeps
// pointing at the same physical point.
func (n *Nucleus) Rebase(k int) {
	k = n.border.Wrap(k)
	n.border = n.border.Rebased(k)
	for t, i := range n.tags {
		n.tags[t] = n.border.Wrap(i - k)
	}
	n.refresh()
}

// Clone returns a deep copy sharing only the immutable border.
func (n *Nucleus) Clone() *Nucleus {
	c := *n
	c.tags = n.Tags()
	c.angles = n.angles.Copy()
	return &c
}
