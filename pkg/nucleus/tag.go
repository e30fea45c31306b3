package nucleus

import (
	"fmt"
	"strings"
)

// Tag names a landmark on the border.
type Tag string

const (
	// Tip is the sharpest point of the outline and the reference for every
	// profile offset
	Tip Tag = "tip"

	// Tail is where the flagellum attaches
	Tail Tag = "tail"

	// Head is the border point opposite the tail through the centroid
	Head Tag = "head"

	// IntersectionPoint is where the line from the tail through the
	// centroid meets the far side of the border
	IntersectionPoint Tag = "intersectionPoint"
)

// FailureCode is a bitmask recording why a nucleus was rejected.
type FailureCode uint

const (
	FailureThreshold FailureCode = 1 << iota
	FailureFeret
	FailureArray
	FailureArea
	FailurePerimeter
	FailureOther
	FailureSignals

	// FailureTip marks an outline whose sharpest point is too blunt to
	// call a tip
	FailureTip FailureCode = 512
)

var failureNames = []struct {
	code FailureCode
	name string
}{
	{FailureThreshold, "threshold"},
	{FailureFeret, "feret"},
	{FailureArray, "array"},
	{FailureArea, "area"},
	{FailurePerimeter, "perimeter"},
	{FailureOther, "other"},
	{FailureSignals, "signals"},
	{FailureTip, "tip"},
}

// Has reports whether every bit of c is set.
func (f FailureCode) Has(c FailureCode) bool { return f&c == c }

func (f FailureCode) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, fn := range failureNames {
		if f.Has(fn.code) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}

// Family selects the landmark detection rules for a nucleus shape.
type Family int

const (
	RodentSperm Family = iota
	PigSperm
	Round
)

var familyNames = map[Family]string{
	RodentSperm: "rodentSperm",
	PigSperm:    "pigSperm",
	Round:       "round",
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// ParseFamily converts a family name as written in configuration files.
func ParseFamily(s string) (Family, error) {
	for f, name := range familyNames {
		if strings.EqualFold(name, s) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown nucleus family %q", s)
}
