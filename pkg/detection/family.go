package detection

import (
	"fmt"

	"nucleusmorph/pkg/nucleus"
)

// Rules describe how landmarks are found for one family of nucleus shapes.
type Rules struct {
	// SharpTip rejects outlines whose tip angle exceeds Options.MaxTipAngle
	SharpTip bool

	// CheckOrientation enables the reflex angle direction test
	CheckOrientation bool

	// TailDetectors each propose a tail position
	TailDetectors []Detector

	// Combine merges the proposals into one index on a border of n points
	Combine func(n int, candidates []int) int
}

var familyRules = map[nucleus.Family]Rules{
	nucleus.RodentSperm: {
		SharpTip:         true,
		CheckOrientation: true,
		TailDetectors:    []Detector{MinimaDistance, Deltas, NarrowestDiameter},
		Combine:          Consensus,
	},
	nucleus.PigSperm: {
		TailDetectors: []Detector{Maxima, NarrowestDiameter},
		Combine:       Consensus,
	},
	nucleus.Round: {
		TailDetectors: []Detector{MaxAngle},
		Combine:       First,
	},
}

// RulesFor returns the detection rules of a family.
func RulesFor(f nucleus.Family) (Rules, error) {
	r, ok := familyRules[f]
	if !ok {
		return Rules{}, fmt.Errorf("no detection rules for family %s", f)
	}
	return r, nil
}
