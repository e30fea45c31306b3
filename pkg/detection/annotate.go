package detection

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime"
	"sync"

	"nucleusmorph/pkg/nucleus"
	"nucleusmorph/pkg/profile"
)

// Options holds the detection parameters shared by all families.
type Options struct {
	// Extrema controls local minimum and maximum detection
	Extrema profile.ExtremaOptions

	// MaxTipAngle is the bluntest angle, in degrees, still accepted as a tip
	// for families that require a sharp tip
	MaxTipAngle float64

	// Harmonics, when positive, low-pass filters the angle profile seen by
	// the detectors to that many frequency components
	Harmonics int

	// Logger receives per-nucleus warnings. Nil discards them.
	Logger *log.Logger
}

// DefaultOptions returns the standard detection parameters.
func DefaultOptions() Options {
	return Options{
		Extrema:     profile.DefaultExtremaOptions(),
		MaxTipAngle: 110,
	}
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return o.Logger
}

// stage proposes a patch from a snapshot of the nucleus.
type stage func(v View, r Rules, opts Options) nucleus.Patch

// stages run in order; each sees the result of the previous one.
var stages = []struct {
	name string
	run  stage
}{
	{"tip", tipStage},
	{"orientation", orientationStage},
	{"tail", tailStage},
	{"head", headStage},
}

func tipStage(v View, r Rules, opts Options) nucleus.Patch {
	tip := Tip(v)
	p := nucleus.Patch{
		Tags:     map[nucleus.Tag]int{nucleus.Tip: tip},
		RebaseTo: nucleus.Tip,
	}
	if r.SharpTip && v.Angles[tip] > opts.MaxTipAngle {
		p.Failure = nucleus.FailureTip
	}
	return p
}

func orientationStage(v View, r Rules, _ Options) nucleus.Patch {
	if !r.CheckOrientation || OrientationOK(v.Angles.Offset(v.tag(nucleus.Tip))) {
		return nucleus.Patch{}
	}
	return nucleus.Patch{Reverse: true, RebaseTo: nucleus.Tip}
}

func tailStage(v View, r Rules, _ Options) nucleus.Patch {
	candidates := make([]int, 0, len(r.TailDetectors))
	for _, d := range r.TailDetectors {
		candidates = append(candidates, d(v))
	}
	return nucleus.Patch{
		Tags: map[nucleus.Tag]int{nucleus.Tail: r.Combine(v.Border.Len(), candidates)},
	}
}

func headStage(v View, _ Rules, _ Options) nucleus.Patch {
	tail := v.tag(nucleus.Tail)
	return nucleus.Patch{
		Tags: map[nucleus.Tag]int{
			nucleus.Head:              v.Border.OppositeIndex(tail),
			nucleus.IntersectionPoint: IntersectionPoint(v, tail),
		},
	}
}

// Annotate runs every detection stage on a copy of n and returns the copy.
// The input nucleus is left untouched.
func Annotate(n *nucleus.Nucleus, opts Options) (*nucleus.Nucleus, error) {
	rules, err := RulesFor(n.Family)
	if err != nil {
		return nil, err
	}

	work := n.Clone()
	for _, s := range stages {
		v := ViewOf(work, opts.Extrema)
		if opts.Harmonics > 0 {
			v.Angles = v.Angles.LowPass(opts.Harmonics)
		}
		patch := s.run(v, rules, opts)
		if err := work.Apply(patch); err != nil {
			return nil, fmt.Errorf("%s stage: %w", s.name, err)
		}
	}
	return work, nil
}

// AnnotateAll annotates nuclei in parallel and returns the results in input
// order. A nucleus that cannot be annotated is returned unchanged apart from
// FailureOther, and never stops the batch. Cancelling ctx stops handing out
// work and returns the context error.
func AnnotateAll(ctx context.Context, nuclei []*nucleus.Nucleus, opts Options, workers int) ([]*nucleus.Nucleus, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.logger()
	results := make([]*nucleus.Nucleus, len(nuclei))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				annotated, err := Annotate(nuclei[i], opts)
				if err != nil {
					logger.Printf("Warning: detection failed for %s: %v", nuclei[i].Name, err)
					annotated = nuclei[i].Clone()
					annotated.AddFailure(nucleus.FailureOther)
				}
				results[i] = annotated
			}
		}()
	}

feed:
	for i := range nuclei {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
