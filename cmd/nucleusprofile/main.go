package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"

	"nucleusmorph/internal/models"
	"nucleusmorph/internal/shapes"
	"nucleusmorph/pkg/analysis"
	"nucleusmorph/pkg/config"
	"nucleusmorph/pkg/nucleus"
	"nucleusmorph/pkg/population"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "nucleusprofile",
		Short: "Detect landmarks on nucleus outlines and align them across a population",
	}
	root.AddCommand(newAnalyzeCommand(), newDemoCommand(), newConfigCommand())
	return root
}

type runOptions struct {
	configPath string
	workers    int
	family     string
}

func (o *runOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.configPath, "config", "nucleusprofile.yaml", "Configuration file (defaults are used when missing)")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "Number of detection workers (default: from config)")
	cmd.Flags().StringVar(&o.family, "family", "", "Nucleus family: rodentSperm, pigSperm or round (default: from config)")
}

func (o *runOptions) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.family != "" {
		cfg.Detection.Family = o.family
	}
	return cfg, cfg.Validate()
}

func newAnalyzeCommand() *cobra.Command {
	var opts runOptions
	var input string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyse a YAML file of segmented outlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("failed to open outlines: %w", err)
			}
			defer f.Close()

			set, err := models.ReadOutlines(f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts.workers, set)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&input, "input", "", "YAML file of outlines to analyse")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newDemoCommand() *cobra.Command {
	var opts runOptions
	var count int
	var seed int64
	var output string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Analyse a generated population of hooked outlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			set := generateOutlines(count, rand.New(rand.NewSource(seed)))
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				if err := models.WriteOutlines(f, set); err != nil {
					return err
				}
				fmt.Printf("Generated outlines saved to: %s\n", output)
			}
			return run(cmd.Context(), cfg, opts.workers, set)
		},
	}
	opts.bind(cmd)
	cmd.Flags().IntVar(&count, "count", 40, "Number of outlines to generate")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	cmd.Flags().StringVar(&output, "output", "", "Also save the generated outlines to this YAML file")
	return cmd
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}

	var path string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfigFile(path); err != nil {
				return err
			}
			fmt.Printf("Default configuration written to: %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "nucleusprofile.yaml", "Where to write the configuration")
	cmd.AddCommand(initCmd)
	return cmd
}

// generateOutlines builds hooked outlines with random size, rotation,
// starting point and direction. A few are made blunt, oversized or noisy so
// the filters have something to reject.
func generateOutlines(count int, rng *rand.Rand) *models.OutlineSet {
	set := &models.OutlineSet{Name: "demo"}
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("demo_%03d", i)
		radius := 45 + rng.Float64()*10
		points := shapes.Hooked(180+rng.Intn(60), radius, radius*(1.9+rng.Float64()*0.2), 10+rng.Float64()*4)

		switch {
		case i%17 == 5:
			name += "_blunt"
			points = shapes.Ellipse(200, radius, radius*0.9)
		case i%19 == 7:
			name += "_oversized"
			points = shapes.Transform(points, 0, 1.8, r2.Vec{})
		case i%23 == 11:
			name += "_noisy"
			points = shapes.Jitter(points, 2, rng)
		}

		if rng.Intn(2) == 0 {
			points = shapes.Reverse(points)
		}
		points = shapes.StartAt(points, rng.Intn(len(points)))
		points = shapes.Transform(points, rng.Float64()*360, 1, r2.Vec{X: rng.Float64() * 1000, Y: rng.Float64() * 1000})
		set.Outlines = append(set.Outlines, models.NewOutline(name, points))
	}
	return set
}

func run(ctx context.Context, cfg *config.Config, workers int, set *models.OutlineSet) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Println("================================")
	fmt.Println("NUCLEUS LANDMARK DETECTION AND POPULATION ALIGNMENT")
	fmt.Println("================================")

	analyzer, err := analysis.NewAnalyzer(&analysis.Params{
		Config:     cfg,
		NumWorkers: workers,
		Logger:     log.New(os.Stderr, "", log.LstdFlags),
		Progress:   os.Stdout,
	})
	if err != nil {
		return err
	}

	nuclei := analyzer.BuildNuclei(set)
	fmt.Printf("Loaded %d of %d outlines from %s (family %s)\n", len(nuclei), len(set.Outlines), set.Name, cfg.Detection.Family)

	startTime := time.Now()
	summary, err := analyzer.Process(ctx, set.Name, nuclei)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nAnalysis completed successfully in %.2f seconds!\n\n", processingTime.Seconds())
	printSummary(summary, analyzer.Collection())
	return nil
}

func printSummary(s *analysis.Summary, c *population.Collection) {
	fmt.Printf("Population Summary:\n")
	fmt.Printf("===================\n")
	fmt.Printf("Input nuclei: %d\n", s.Input)
	fmt.Printf("Failed detection: %d\n", s.DetectionFailures)
	fmt.Printf("Rejected by filter: %d\n", s.Rejected)
	fmt.Printf("Final nuclei: %d\n", s.Final)
	fmt.Printf("Reference tail: bin %d (%.1f%% from tip)\n", s.Align.ReferenceTail,
		float64(s.Align.ReferenceTail)*s.Align.Median.BinWidth)
	fmt.Printf("Median area: %.1f\n", s.MedianArea)
	fmt.Printf("Median perimeter: %.1f\n", s.MedianPerimeter)
	fmt.Printf("Median Feret diameter: %.1f\n", s.MedianFeret)
	fmt.Printf("Median path length: %.1f\n", s.MedianPathLength)

	fmt.Printf("\nNuclei:\n")
	for _, n := range c.Nuclei() {
		tail, _ := n.Tag(nucleus.Tail)
		head, _ := n.Tag(nucleus.Head)
		fmt.Printf("  %-22s points=%-4d tail=%-4d head=%-4d offset=%-5d distance=%-7.1f orientation=%.1f\n",
			n.Name, n.Len(), tail, head, n.Offset(), n.DistanceToMedian(), n.Measurements().Orientation)
	}

	if failed := c.Failed(); len(failed) > 0 {
		fmt.Printf("\nRejected:\n")
		for _, n := range failed {
			fmt.Printf("  %-22s %s\n", n.Name, n.Failure())
		}
	}
}
