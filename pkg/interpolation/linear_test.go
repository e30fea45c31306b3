package interpolation

import (
	"errors"
	"math"
	"testing"
)

// createWave builds a smooth periodic curve between 60 and 300 degrees
func createWave(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 180 + 120*math.Sin(2*math.Pi*float64(i)/float64(n))
	}
	return values
}

func TestToLengthStaysWithinRange(t *testing.T) {
	input := createWave(200)
	output, err := ToLength(input, 300)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(output) != 300 {
		t.Fatalf("Expected 300 samples, got %d", len(output))
	}

	lo, hi := input[0], input[0]
	for _, v := range input {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	for i, v := range output {
		if v < lo-1e-9 || v > hi+1e-9 {
			t.Errorf("Sample %d = %f outside input range [%f, %f]", i, v, lo, hi)
		}
	}
}

func TestToLengthSameLengthCopies(t *testing.T) {
	input := []float64{1, 2, 3, 4}
	output, err := ToLength(input, 4)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	output[0] = 99
	if input[0] != 1 {
		t.Errorf("Expected input to be left untouched, got %f", input[0])
	}
	for i := 1; i < 4; i++ {
		if output[i] != input[i] {
			t.Errorf("Expected %f at %d, got %f", input[i], i, output[i])
		}
	}
}

func TestToLengthDoubling(t *testing.T) {
	output, err := ToLength([]float64{0, 10, 20, 30}, 8)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// the last sample interpolates between 30 and the wrapped 0
	expected := []float64{0, 5, 10, 15, 20, 25, 30, 15}
	for i := range expected {
		if math.Abs(output[i]-expected[i]) > 1e-9 {
			t.Errorf("Expected %f at %d, got %f", expected[i], i, output[i])
		}
	}
}

func TestToLengthErrors(t *testing.T) {
	if _, err := ToLength(nil, 10); !errors.Is(err, ErrEmptyCurve) {
		t.Errorf("Expected ErrEmptyCurve, got %v", err)
	}
	if _, err := ToLength([]float64{1, 2}, 0); err == nil {
		t.Error("Expected an error for a zero target length")
	}
}

func TestValueAtWraps(t *testing.T) {
	values := []float64{10, 20, 30}
	if v := ValueAt(values, 2.5); math.Abs(v-20) > 1e-9 {
		t.Errorf("Expected 20, got %f", v)
	}
	if v := ValueAt(values, -0.5); math.Abs(v-20) > 1e-9 {
		t.Errorf("Expected 20, got %f", v)
	}
}

func TestCircularJoinsEnds(t *testing.T) {
	curve, err := NewCircular([]float64{0, 10, 20, 30})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if curve.Len() != 4 {
		t.Errorf("Expected 4 samples, got %d", curve.Len())
	}

	tests := []struct {
		position float64
		want     float64
	}{
		{1.5, 15},
		{3.5, 15},
		{4, 0},
		{-1, 30},
		{9, 10},
	}
	for _, tc := range tests {
		if got := curve.At(tc.position); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("At(%f): expected %f, got %f", tc.position, tc.want, got)
		}
	}

	if _, err := NewCircular(nil); !errors.Is(err, ErrEmptyCurve) {
		t.Errorf("Expected ErrEmptyCurve, got %v", err)
	}
	if v := ValueAt(nil, 1); !math.IsNaN(v) {
		t.Errorf("Expected NaN for an empty curve, got %f", v)
	}
}
