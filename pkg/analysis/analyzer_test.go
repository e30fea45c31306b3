package analysis

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"nucleusmorph/internal/models"
	"nucleusmorph/internal/shapes"
	"nucleusmorph/pkg/config"
	"nucleusmorph/pkg/nucleus"
)

// createOutlineSet builds a sample of hooked outlines that differ in size,
// rotation, starting point and direction, plus one blunt outline and one
// oversized outline
func createOutlineSet(count int) *models.OutlineSet {
	set := &models.OutlineSet{Name: "synthetic"}
	for i := 0; i < count; i++ {
		points := shapes.Hooked(200, 50, 100, 12)
		if i%3 == 0 {
			points = shapes.Reverse(points)
		}
		points = shapes.StartAt(points, i*29)
		points = shapes.Transform(points, float64(i*47), 1+0.02*float64(i), r2.Vec{X: 200, Y: 150})
		set.Outlines = append(set.Outlines, models.NewOutline(fmt.Sprintf("hooked_%02d", i), points))
	}
	set.Outlines = append(set.Outlines,
		models.NewOutline("blunt", shapes.Circle(200, 50)),
		models.NewOutline("oversized", shapes.Transform(shapes.Hooked(200, 50, 100, 12), 0, math.Sqrt(3), r2.Vec{})),
	)
	return set
}

func TestBasicAnalyzer(t *testing.T) {
	// Skip this test for regular unit testing, as it runs the whole pipeline
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	var progress bytes.Buffer
	analyzer, err := NewAnalyzer(&Params{NumWorkers: 4, Progress: &progress})
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}

	nuclei := analyzer.BuildNuclei(createOutlineSet(12))
	if len(nuclei) != 14 {
		t.Fatalf("Expected 14 nuclei, got %d", len(nuclei))
	}

	summary, err := analyzer.Process(context.Background(), "synthetic", nuclei)
	if err != nil {
		t.Fatalf("Analysis failed: %v", err)
	}

	if summary.Input != 14 {
		t.Errorf("Expected 14 input nuclei, got %d", summary.Input)
	}
	if summary.DetectionFailures != 1 {
		t.Errorf("Expected 1 detection failure, got %d", summary.DetectionFailures)
	}
	if summary.Rejected != 1 {
		t.Errorf("Expected 1 filtered nucleus, got %d", summary.Rejected)
	}
	if summary.Final != 12 {
		t.Errorf("Expected 12 final nuclei, got %d", summary.Final)
	}
	if summary.Align == nil || summary.Align.Registered != 12 {
		t.Errorf("Expected 12 registered nuclei after re-alignment, got %+v", summary.Align)
	}

	failed := map[string]nucleus.FailureCode{}
	for _, n := range analyzer.Collection().Failed() {
		failed[n.Name] = n.Failure()
	}
	if !failed["blunt"].Has(nucleus.FailureTip) {
		t.Errorf("Expected blunt to fail tip detection, got %s", failed["blunt"])
	}
	if !failed["oversized"].Has(nucleus.FailureArea) {
		t.Errorf("Expected oversized to fail the area filter, got %s", failed["oversized"])
	}

	for _, n := range analyzer.Collection().Nuclei() {
		if tip, _ := n.Tag(nucleus.Tip); tip != 0 {
			t.Errorf("Expected %s to start at its tip, got %d", n.Name, tip)
		}
		if !n.HasTag(nucleus.Tail) || !n.HasTag(nucleus.Head) {
			t.Errorf("Expected %s to have tail and head", n.Name)
		}
	}

	if !strings.Contains(progress.String(), "Step 5") {
		t.Errorf("Expected re-alignment progress, got:\n%s", progress.String())
	}
}

func TestBuildNuclei(t *testing.T) {
	analyzer, err := NewAnalyzer(&Params{})
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}

	square := models.NewOutline("", []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}})
	square.Spacing = 1
	square.Family = "round"
	square.Centroid = &[2]float64{5, 5}
	square.Measurements = &models.Measurements{Area: 99, Perimeter: 41, Feret: 14}

	set := &models.OutlineSet{
		Name: "set",
		Outlines: []models.Outline{
			square,
			models.NewOutline("line", []r2.Vec{{X: 0}, {X: 1}}),
			{Name: "odd", Family: "hamster", Points: square.Points},
		},
	}

	nuclei := analyzer.BuildNuclei(set)
	if len(nuclei) != 1 {
		t.Fatalf("Expected 1 nucleus, got %d", len(nuclei))
	}
	n := nuclei[0]
	if n.Name != "set_000" {
		t.Errorf("Expected a generated name, got %s", n.Name)
	}
	if n.Family != nucleus.Round {
		t.Errorf("Expected round, got %s", n.Family)
	}
	if n.Len() != 40 {
		t.Errorf("Expected the border resampled to 40 points, got %d", n.Len())
	}
	if m := n.Measurements(); m.Area != 99 || m.Feret != 14 {
		t.Errorf("Expected supplied measurements, got %+v", m)
	}
}

func TestProcessEmpty(t *testing.T) {
	analyzer, err := NewAnalyzer(&Params{})
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	if _, err := analyzer.Process(context.Background(), "none", nil); !IsEmpty(err) {
		t.Errorf("Expected an empty collection error, got %v", err)
	}
}

func TestProcessAllBlunt(t *testing.T) {
	analyzer, err := NewAnalyzer(&Params{NumWorkers: 2})
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	set := &models.OutlineSet{Name: "blunt"}
	for i := 0; i < 3; i++ {
		set.Outlines = append(set.Outlines, models.NewOutline("", shapes.Circle(100, 20+float64(i))))
	}

	summary, err := analyzer.Process(context.Background(), "blunt", analyzer.BuildNuclei(set))
	if !IsEmpty(err) {
		t.Errorf("Expected an empty collection error, got %v", err)
	}
	if summary.DetectionFailures != 3 {
		t.Errorf("Expected 3 detection failures, got %d", summary.DetectionFailures)
	}
}

func TestNewAnalyzerRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Profile.BinWidth = -1
	if _, err := NewAnalyzer(&Params{Config: cfg}); err == nil {
		t.Error("Expected an error for a negative bin width")
	}
}
