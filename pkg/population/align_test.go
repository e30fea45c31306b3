package population

import (
	"context"
	"errors"
	"math"
	"testing"

	"nucleusmorph/pkg/nucleus"
	"nucleusmorph/pkg/profile"
)

// createMedian wraps a profile as a median profile with 0.5 percent bins
func createMedian(values profile.Profile) *MedianProfile {
	return &MedianProfile{BinWidth: 0.5, Median: values}
}

func dips(n int, base float64, depths map[int]float64) profile.Profile {
	p := make(profile.Profile, n)
	for i := range p {
		p[i] = base
	}
	for centre, depth := range depths {
		for d := -8; d <= 8; d++ {
			p[profile.WrapIndex(centre+d, n)] = base - depth*(1-math.Abs(float64(d))/9)
		}
	}
	return p
}

func TestLocateReferenceTail(t *testing.T) {
	opts := DefaultAlignOptions()

	m := createMedian(dips(200, 180, map[int]float64{30: 100, 80: 50, 100: 70}))
	if got := LocateReferenceTail(m, opts); got != 100 {
		t.Errorf("Expected the deepest minimum inside the window at 100, got %d", got)
	}

	ramp := make(profile.Profile, 200)
	for i := range ramp {
		ramp[i] = float64(i)
	}
	if got := LocateReferenceTail(createMedian(ramp), opts); got != 100 {
		t.Errorf("Expected the fallback bin 100, got %d", got)
	}
}

func TestAlignRegistersEveryNucleus(t *testing.T) {
	c := NewCollection("test", annotate(t, createPopulation(t, 10)), 0.5)

	result, err := c.Align(context.Background(), AlignOptions{
		TailSearchMin: 20,
		TailSearchMax: 60,
		Extrema:       profile.DefaultExtremaOptions(),
		Workers:       3,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Registered != 10 || len(result.Skipped) != 0 {
		t.Errorf("Expected 10 registered, got %d (skipped %v)", result.Registered, result.Skipped)
	}
	if result.Median.Len() != 200 {
		t.Errorf("Expected 200 median bins, got %d", result.Median.Len())
	}

	// every border has 200 points, so the scaled reference tail is the bin index
	for _, n := range c.Nuclei() {
		tail, err := n.Tag(nucleus.Tail)
		if err != nil {
			t.Fatalf("Expected a tail on %s: %v", n.Name, err)
		}
		if tail != result.ReferenceTail {
			t.Errorf("Expected %s tail at %d, got %d", n.Name, result.ReferenceTail, tail)
		}
		head, _ := n.Tag(nucleus.Head)
		if head != n.Border().OppositeIndex(tail) {
			t.Errorf("Expected %s head opposite its tail", n.Name)
		}
		if n.DistanceToMedian() < 0 {
			t.Errorf("Expected a non-negative distance, got %f", n.DistanceToMedian())
		}
	}

	for _, tag := range []nucleus.Tag{nucleus.Tip, nucleus.Tail, nucleus.Head} {
		if _, err := c.MedianProfile(tag); err != nil {
			t.Errorf("Expected a %s median: %v", tag, err)
		}
	}
}

func TestAlignSkipsMissingTail(t *testing.T) {
	nuclei := annotate(t, createPopulation(t, 4))
	bare := createPopulation(t, 1)[0]
	bare.Name = "bare"
	bare.SetTag(nucleus.Tip, 0)
	nuclei = append(nuclei, bare)

	c := NewCollection("test", nuclei, 0.5)
	result, err := c.Align(context.Background(), DefaultAlignOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Registered != 4 {
		t.Errorf("Expected 4 registered, got %d", result.Registered)
	}
	if !errors.Is(result.Skipped["bare"], nucleus.ErrMissingLandmark) {
		t.Errorf("Expected bare to be skipped for a missing landmark, got %v", result.Skipped["bare"])
	}

	// the rest of the population still gets tail and head medians
	for _, tag := range []nucleus.Tag{nucleus.Tail, nucleus.Head} {
		m, err := c.MedianProfile(tag)
		if err != nil {
			t.Fatalf("Expected a %s median, got %v", tag, err)
		}
		if m.Missing != 1 {
			t.Errorf("Expected 1 nucleus missing from the %s median, got %d", tag, m.Missing)
		}
	}
}

func TestAlignEmpty(t *testing.T) {
	c := NewCollection("empty", nil, 0.5)
	if _, err := c.Align(context.Background(), DefaultAlignOptions()); !errors.Is(err, ErrEmptyCollection) {
		t.Errorf("Expected ErrEmptyCollection, got %v", err)
	}
}

func TestAlignCancelled(t *testing.T) {
	c := NewCollection("test", annotate(t, createPopulation(t, 2)), 0.5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Align(ctx, DefaultAlignOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
