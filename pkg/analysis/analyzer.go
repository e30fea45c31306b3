// Package analysis drives a whole population through landmark detection,
// alignment and filtering.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"gonum.org/v1/gonum/spatial/r2"

	"nucleusmorph/internal/models"
	"nucleusmorph/pkg/border"
	"nucleusmorph/pkg/config"
	"nucleusmorph/pkg/detection"
	"nucleusmorph/pkg/nucleus"
	"nucleusmorph/pkg/population"
)

// Params holds the analysis parameters.
type Params struct {
	// Config supplies every numeric threshold. Nil means the defaults.
	Config *config.Config

	// NumWorkers overrides Config.Processing.NumWorkers when positive
	NumWorkers int

	// Logger receives warnings about individual nuclei. Nil discards them.
	Logger *log.Logger

	// Progress receives one line per pipeline step when the config is
	// verbose. Nil discards it.
	Progress io.Writer
}

// Summary reports the outcome of one analysis run.
type Summary struct {
	Input int

	// DetectionFailures counts nuclei rejected during landmark detection,
	// such as outlines without a sharp enough tip
	DetectionFailures int

	// Rejected counts nuclei removed by the population filter
	Rejected int

	Final int

	Align  *population.AlignResult
	Filter *population.FilterReport

	MedianArea       float64
	MedianPerimeter  float64
	MedianFeret      float64
	MedianPathLength float64
}

// Analyzer runs the population pipeline:
// 1. Detecting landmarks on every nucleus in parallel
// 2. Moving nuclei that failed detection aside
// 3. Aligning the population against its median profile
// 4. Filtering nuclei that stray from the population medians
// 5. Re-aligning the survivors when the filter removed anything
type Analyzer struct {
	params *Params
	cfg    *config.Config
	logger *log.Logger

	collection *population.Collection
}

// NewAnalyzer validates the configuration and creates an analyzer.
func NewAnalyzer(params *Params) (*Analyzer, error) {
	cfg := params.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := params.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Analyzer{params: params, cfg: cfg, logger: logger}, nil
}

func (a *Analyzer) workers() int {
	if a.params.NumWorkers > 0 {
		return a.params.NumWorkers
	}
	return a.cfg.Processing.NumWorkers
}

func (a *Analyzer) step(format string, args ...interface{}) {
	if a.params.Progress == nil || !a.cfg.Processing.Verbose {
		return
	}
	fmt.Fprintf(a.params.Progress, format+"\n", args...)
}

// BuildNuclei converts outline records to nuclei. Outlines that cannot form a
// border are logged and skipped.
func (a *Analyzer) BuildNuclei(set *models.OutlineSet) []*nucleus.Nucleus {
	defaultFamily, _ := a.cfg.Family()

	var nuclei []*nucleus.Nucleus
	for i, o := range set.Outlines {
		name := o.Name
		if name == "" {
			name = fmt.Sprintf("%s_%03d", set.Name, i)
		}
		n, err := a.buildNucleus(name, o, defaultFamily)
		if err != nil {
			a.logger.Printf("Warning: skipping outline %s: %v", name, err)
			continue
		}
		nuclei = append(nuclei, n)
	}
	return nuclei
}

func (a *Analyzer) buildNucleus(name string, o models.Outline, family nucleus.Family) (*nucleus.Nucleus, error) {
	if o.Family != "" {
		f, err := nucleus.ParseFamily(o.Family)
		if err != nil {
			return nil, err
		}
		family = f
	}

	points := o.Vectors()
	if o.Spacing > 0 {
		points = border.Resample(points, o.Spacing)
	}

	var b *border.Border
	var err error
	if o.Centroid != nil {
		b, err = border.New(points, r2.Vec{X: o.Centroid[0], Y: o.Centroid[1]})
	} else {
		b, err = border.FromPoints(points)
	}
	if err != nil {
		return nil, err
	}

	n := nucleus.New(name, family, b, a.cfg.Profile.AngleWindowProportion)
	if o.Measurements != nil {
		m := n.Measurements()
		m.Area = o.Measurements.Area
		m.Perimeter = o.Measurements.Perimeter
		m.Feret = o.Measurements.Feret
		n.SetMeasurements(m)
	}
	return n, nil
}

// Collection returns the population after Process, or nil before it.
func (a *Analyzer) Collection() *population.Collection { return a.collection }

// Process runs the complete pipeline. Individual nuclei that fail are moved
// to the failed collection; the run only fails when nothing survives or ctx
// is cancelled.
func (a *Analyzer) Process(ctx context.Context, name string, nuclei []*nucleus.Nucleus) (*Summary, error) {
	summary := &Summary{Input: len(nuclei)}
	if len(nuclei) == 0 {
		return summary, population.ErrEmptyCollection
	}

	// Step 1: Detect landmarks
	a.step("Step 1: Detecting landmarks on %d nuclei with %d workers...", len(nuclei), a.workers())
	detectOpts := a.cfg.DetectionOptions()
	detectOpts.Logger = a.logger
	annotated, err := detection.AnnotateAll(ctx, nuclei, detectOpts, a.workers())
	if err != nil {
		return summary, fmt.Errorf("failed to detect landmarks: %w", err)
	}

	// Step 2: Move failed detections aside
	a.collection = population.NewCollection(name, annotated, a.cfg.Profile.BinWidth)
	summary.DetectionFailures = a.collection.RejectFailed()
	a.step("Step 2: %d nuclei failed landmark detection", summary.DetectionFailures)
	if a.collection.Len() == 0 {
		return summary, fmt.Errorf("no nuclei passed detection: %w", population.ErrEmptyCollection)
	}

	// Step 3: Align against the median profile
	a.step("Step 3: Aligning %d nuclei to the median profile...", a.collection.Len())
	alignOpts := a.cfg.AlignOptions()
	alignOpts.Workers = a.workers()
	alignOpts.Logger = a.logger
	if summary.Align, err = a.collection.Align(ctx, alignOpts); err != nil {
		return summary, fmt.Errorf("failed to align population: %w", err)
	}

	// Step 4: Filter outliers
	a.step("Step 4: Filtering nuclei against population medians...")
	filterOpts := a.cfg.FilterOptions()
	filterOpts.Logger = a.logger
	summary.Filter, err = a.collection.Filter(filterOpts)
	if summary.Filter != nil {
		summary.Rejected = len(summary.Filter.Rejected)
	}
	if err != nil {
		return summary, fmt.Errorf("failed to filter population: %w", err)
	}

	// Step 5: Re-align if membership changed
	if summary.Rejected > 0 {
		a.step("Step 5: Re-aligning %d remaining nuclei...", a.collection.Len())
		if summary.Align, err = a.collection.Align(ctx, alignOpts); err != nil {
			return summary, fmt.Errorf("failed to re-align population: %w", err)
		}
	}

	summary.Final = a.collection.Len()
	summary.MedianArea = a.collection.Median(population.Area)
	summary.MedianPerimeter = a.collection.Median(population.Perimeter)
	summary.MedianFeret = a.collection.Median(population.Feret)
	summary.MedianPathLength = a.collection.Median(population.PathLength)
	return summary, nil
}

// IsEmpty reports whether err means that no nuclei were left to analyse.
func IsEmpty(err error) bool {
	return errors.Is(err, population.ErrEmptyCollection)
}
