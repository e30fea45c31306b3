package population

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"nucleusmorph/internal/shapes"
	"nucleusmorph/pkg/border"
	"nucleusmorph/pkg/detection"
	"nucleusmorph/pkg/nucleus"
)

func createNucleus(t *testing.T, name string, points []r2.Vec) *nucleus.Nucleus {
	t.Helper()
	b, err := border.FromPoints(points)
	if err != nil {
		t.Fatalf("Failed to create border: %v", err)
	}
	return nucleus.New(name, nucleus.RodentSperm, b, 0.05)
}

// createPopulation builds count hooked nuclei that differ in size, rotation
// and starting point
func createPopulation(t *testing.T, count int) []*nucleus.Nucleus {
	t.Helper()
	var nuclei []*nucleus.Nucleus
	for i := 0; i < count; i++ {
		points := shapes.Hooked(200, 50, 100, 12)
		points = shapes.StartAt(points, i*23)
		points = shapes.Transform(points, float64(i*31), 1+0.02*float64(i), r2.Vec{X: float64(i), Y: 5})
		nuclei = append(nuclei, createNucleus(t, fmt.Sprintf("nucleus_%02d", i), points))
	}
	return nuclei
}

func annotate(t *testing.T, nuclei []*nucleus.Nucleus) []*nucleus.Nucleus {
	t.Helper()
	out := make([]*nucleus.Nucleus, len(nuclei))
	for i, n := range nuclei {
		a, err := detection.Annotate(n, detection.DefaultOptions())
		if err != nil {
			t.Fatalf("Failed to annotate %s: %v", n.Name, err)
		}
		out[i] = a
	}
	return out
}

func TestCollectionStatistics(t *testing.T) {
	nuclei := createPopulation(t, 5)
	c := NewCollection("test", nuclei, 0.5)

	areas := c.Values(Area)
	if len(areas) != 5 {
		t.Fatalf("Expected 5 areas, got %d", len(areas))
	}
	for i := 1; i < len(areas); i++ {
		if areas[i] <= areas[i-1] {
			t.Errorf("Expected growing areas, got %v", areas)
			break
		}
	}

	med := c.Median(ArrayLength)
	if med != 200 {
		t.Errorf("Expected median array length 200, got %f", med)
	}
}

func TestOrientationValues(t *testing.T) {
	var nuclei []*nucleus.Nucleus
	for i, deg := range []float64{10, 45, 100} {
		points := shapes.Transform(shapes.Ellipse(200, 40, 10), deg, 1, r2.Vec{X: 5, Y: -5})
		nuclei = append(nuclei, createNucleus(t, fmt.Sprintf("ellipse_%d", i), points))
	}
	c := NewCollection("test", nuclei, 0.5)

	for i, got := range c.Values(Orientation) {
		want := []float64{10, 45, 100}[i]
		if math.Abs(got-want) > 0.5 {
			t.Errorf("Expected orientation %f, got %f", want, got)
		}
	}
}

func TestMedianProfileCachedAndInvalidated(t *testing.T) {
	c := NewCollection("test", annotate(t, createPopulation(t, 4)), 0.5)

	first, err := c.MedianProfile(nucleus.Tip)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, _ := c.MedianProfile(nucleus.Tip)
	if first != second {
		t.Error("Expected the cached median to be reused")
	}

	c.Add(annotate(t, createPopulation(t, 1))[0])
	third, _ := c.MedianProfile(nucleus.Tip)
	if third == first {
		t.Error("Expected a new median after membership changed")
	}

	for i, v := range first.Median {
		if math.IsNaN(v) {
			t.Fatalf("Expected every bin populated, bin %d is NaN", i)
		}
	}
}

func TestMedianProfileMissingLandmark(t *testing.T) {
	c := NewCollection("test", createPopulation(t, 2), 0.5)
	if _, err := c.MedianProfile(nucleus.Tail); !errors.Is(err, ErrEmptyCollection) {
		t.Errorf("Expected ErrEmptyCollection for unannotated nuclei, got %v", err)
	}
}

func TestRejectFailed(t *testing.T) {
	nuclei := createPopulation(t, 3)
	nuclei[1].AddFailure(nucleus.FailureTip)
	c := NewCollection("test", nuclei, 0.5)

	if moved := c.RejectFailed(); moved != 1 {
		t.Errorf("Expected 1 nucleus moved, got %d", moved)
	}
	if c.Len() != 2 || len(c.Failed()) != 1 || c.Failed()[0] != nuclei[1] {
		t.Errorf("Unexpected membership: %d kept, %d failed", c.Len(), len(c.Failed()))
	}
}

func TestFilterRemovesAreaOutlier(t *testing.T) {
	outlier := createNucleus(t, "outlier", shapes.Transform(shapes.Hooked(200, 50, 100, 12), 0, math.Sqrt(3), r2.Vec{}))
	nuclei := annotate(t, append(createPopulation(t, 10), outlier))
	outlier = nuclei[10]
	c := NewCollection("test", nuclei, 0.5)

	report, err := c.Filter(DefaultFilterOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.Before != 11 || report.Kept != 10 {
		t.Errorf("Expected 11 before and 10 kept, got %d and %d", report.Before, report.Kept)
	}
	if len(report.Rejected) != 1 || report.Rejected[0].Name != "outlier" {
		t.Fatalf("Expected only the outlier rejected, got %+v", report.Rejected)
	}
	if !outlier.Failure().Has(nucleus.FailureArea) {
		t.Errorf("Expected the area failure bit, got %s", outlier.Failure())
	}
	if len(c.Failed()) != 1 {
		t.Errorf("Expected the outlier in the failed collection")
	}

	// a second pass over the survivors removes nothing
	again, err := c.Filter(DefaultFilterOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(again.Rejected) != 0 {
		t.Errorf("Expected no further rejections, got %+v", again.Rejected)
	}
}

func TestFilterRemovesWobblyOutline(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	noisy := createNucleus(t, "noisy", shapes.Jitter(shapes.Hooked(200, 50, 100, 12), 1.5, rng))
	nuclei := annotate(t, append(createPopulation(t, 8), noisy))
	noisy = nuclei[8]
	c := NewCollection("test", nuclei, 0.5)

	if _, err := c.Filter(DefaultFilterOptions()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !noisy.Failure().Has(nucleus.FailureThreshold) {
		t.Errorf("Expected the path length failure bit, got %s", noisy.Failure())
	}
	if c.Len() != 8 {
		t.Errorf("Expected 8 nuclei kept, got %d", c.Len())
	}
}

func TestFilterEmpty(t *testing.T) {
	c := NewCollection("empty", nil, 0.5)
	if _, err := c.Filter(DefaultFilterOptions()); err != ErrEmptyCollection {
		t.Errorf("Expected ErrEmptyCollection, got %v", err)
	}
}
