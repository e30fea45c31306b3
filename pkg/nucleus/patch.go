package nucleus

import "fmt"

// Patch is the outcome of one detection stage. Detectors describe what they
// found as a patch and the stage driver applies it, so detectors never
// mutate a nucleus themselves.
type Patch struct {
	// Tags are landmark indices in the nucleus' current numbering
	Tags map[Tag]int

	// Reverse flips the border direction after the tags are set
	Reverse bool

	// RebaseTo renumbers the border from this landmark, last of all
	RebaseTo Tag

	// Failure bits to add
	Failure FailureCode
}

// Apply sets the patch tags, then reverses, then rebases.
func (n *Nucleus) Apply(p Patch) error {
	for t, i := range p.Tags {
		n.SetTag(t, i)
	}
	n.AddFailure(p.Failure)

	if p.Reverse {
		n.Reverse()
	}
	if p.RebaseTo != "" {
		i, err := n.Tag(p.RebaseTo)
		if err != nil {
			return fmt.Errorf("rebasing %s: %w", n.Name, err)
		}
		n.Rebase(i)
	}
	return nil
}
