package gradient

import (
	"errors"
	"reflect"
	"sort"
	"testing"
)

// TestClassifyByMagnitude verifies the gradient-magnitude strategy on
// the canonical mixed dataset: zero vectors are b=0, the rest are DWI,
// and acquisition order is preserved within each class.
func TestClassifyByMagnitude(t *testing.T) {
	gradients := [][]float64{
		{0, 0, 0},
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 0},
	}

	result, err := Classify(gradients, nil, DefaultBValueThreshold)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if !reflect.DeepEqual(result.B0Indices, []int{0, 1, 4}) {
		t.Errorf("B0Indices = %v, want [0 1 4]", result.B0Indices)
	}
	if !reflect.DeepEqual(result.DWIIndices, []int{2, 3}) {
		t.Errorf("DWIIndices = %v, want [2 3]", result.DWIIndices)
	}
}

// TestClassifyByBValue verifies that a supplied b-value table drives
// classification and gradient vectors are ignored entirely.
func TestClassifyByBValue(t *testing.T) {
	// Every gradient is non-zero, so the magnitude strategy would
	// classify all frames as DWI.
	gradients := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{1, 1, 0},
		{0, 1, 1},
	}
	bvalues := []float64{5, 10, 800, 900, 0}

	result, err := Classify(gradients, bvalues, 100)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if !reflect.DeepEqual(result.B0Indices, []int{0, 1, 4}) {
		t.Errorf("B0Indices = %v, want [0 1 4]", result.B0Indices)
	}
	if !reflect.DeepEqual(result.DWIIndices, []int{2, 3}) {
		t.Errorf("DWIIndices = %v, want [2 3]", result.DWIIndices)
	}
}

// TestThresholdBoundary verifies the strict comparison at the b-value
// cutoff: a frame exactly at the threshold is DWI, one unit below is b=0.
func TestThresholdBoundary(t *testing.T) {
	gradients := [][]float64{
		{1, 0, 0},
		{1, 0, 0},
	}
	bvalues := []float64{100, 99}

	result, err := Classify(gradients, bvalues, 100)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if !reflect.DeepEqual(result.B0Indices, []int{1}) {
		t.Errorf("B0Indices = %v, want [1]", result.B0Indices)
	}
	if !reflect.DeepEqual(result.DWIIndices, []int{0}) {
		t.Errorf("DWIIndices = %v, want [0]", result.DWIIndices)
	}
}

// TestMagnitudeBoundary verifies the strict comparison at the gradient
// norm cutoff of 0.01.
func TestMagnitudeBoundary(t *testing.T) {
	gradients := [][]float64{
		{0.01, 0, 0},
		{0.009999, 0, 0},
	}

	result, err := Classify(gradients, nil, DefaultBValueThreshold)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if !reflect.DeepEqual(result.B0Indices, []int{1}) {
		t.Errorf("B0Indices = %v, want [1]", result.B0Indices)
	}
	if !reflect.DeepEqual(result.DWIIndices, []int{0}) {
		t.Errorf("DWIIndices = %v, want [0]", result.DWIIndices)
	}
}

// TestClassifyPartition verifies that the two index lists form an
// exhaustive, disjoint, ascending partition of the frame indices.
func TestClassifyPartition(t *testing.T) {
	gradients := [][]float64{
		{0, 0, 0},
		{1, 0, 0},
		{0, 0, 0},
		{0, 0.7, 0.7},
		{0.5, 0.5, 0.5},
		{0, 0, 0},
		{0, 0, 1},
		{0.001, 0.001, 0},
	}

	result, err := Classify(gradients, nil, DefaultBValueThreshold)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	for name, indices := range map[string][]int{"b0": result.B0Indices, "dwi": result.DWIIndices} {
		if !sort.IntsAreSorted(indices) {
			t.Errorf("%s indices %v are not ascending", name, indices)
		}
	}

	seen := make(map[int]int)
	for _, idx := range result.B0Indices {
		seen[idx]++
	}
	for _, idx := range result.DWIIndices {
		seen[idx]++
	}
	if len(seen) != len(gradients) {
		t.Errorf("partition covers %d of %d frames", len(seen), len(gradients))
	}
	for idx, count := range seen {
		if count != 1 {
			t.Errorf("frame %d appears %d times across the two classes", idx, count)
		}
		if idx < 0 || idx >= len(gradients) {
			t.Errorf("frame index %d out of range", idx)
		}
	}
}

// TestClassifyIdempotence verifies that classifying the same table
// twice yields identical results.
func TestClassifyIdempotence(t *testing.T) {
	gradients := [][]float64{
		{0, 0, 0},
		{1, 0, 0},
		{0, 0, 0},
		{0, 1, 0},
	}

	first, err := Classify(gradients, nil, DefaultBValueThreshold)
	if err != nil {
		t.Fatalf("first Classify failed: %v", err)
	}
	second, err := Classify(gradients, nil, DefaultBValueThreshold)
	if err != nil {
		t.Fatalf("second Classify failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("classification is not idempotent: %v vs %v", first, second)
	}
}

// TestTransposedTable verifies that a 3xN table classifies identically
// to its Nx3 transpose and that the transposition is reported.
func TestTransposedTable(t *testing.T) {
	byFrame := [][]float64{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 0},
	}
	// Same table stored as 3 rows of N components.
	byComponent := [][]float64{
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 0},
	}

	_, transposed, err := Normalize(byComponent)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !transposed {
		t.Error("Normalize did not report transposition of a 3xN table")
	}

	want, err := Classify(byFrame, nil, DefaultBValueThreshold)
	if err != nil {
		t.Fatalf("Classify(Nx3) failed: %v", err)
	}
	got, err := Classify(byComponent, nil, DefaultBValueThreshold)
	if err != nil {
		t.Fatalf("Classify(3xN) failed: %v", err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("transposed table classified as %v, want %v", got, want)
	}
}

// TestSingleFrameTable verifies that one 3-component row is treated as
// a single frame, never as a 3x1 table.
func TestSingleFrameTable(t *testing.T) {
	normalized, transposed, err := Normalize([][]float64{{0, 0, 0}})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if transposed {
		t.Error("single 3-component row was transposed")
	}
	if len(normalized) != 1 {
		t.Fatalf("normalized table has %d frames, want 1", len(normalized))
	}

	result, err := Classify([][]float64{{0, 0, 0}}, nil, DefaultBValueThreshold)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if !reflect.DeepEqual(result.B0Indices, []int{0}) {
		t.Errorf("B0Indices = %v, want [0]", result.B0Indices)
	}
}

// TestNoB0Frames verifies the fatal error when no frame qualifies as b=0.
func TestNoB0Frames(t *testing.T) {
	gradients := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}

	if _, err := Classify(gradients, nil, DefaultBValueThreshold); !errors.Is(err, ErrNoB0Frames) {
		t.Errorf("Classify error = %v, want ErrNoB0Frames", err)
	}
}

// TestMalformedTable verifies that rows without exactly 3 components
// after orientation handling are rejected.
func TestMalformedTable(t *testing.T) {
	cases := []struct {
		name  string
		table [][]float64
	}{
		{"four components per frame", [][]float64{{1, 0, 0, 0}, {0, 1, 0, 0}}},
		{"ragged rows", [][]float64{{1, 0}, {0, 1, 0}}},
		{"empty row", [][]float64{{0, 0, 0}, {}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Classify(tc.table, nil, DefaultBValueThreshold)
			var malformed *MalformedTableError
			if !errors.As(err, &malformed) {
				t.Errorf("Classify error = %v, want MalformedTableError", err)
			}
		})
	}
}

// TestClassifyInputValidation covers the remaining argument errors.
func TestClassifyInputValidation(t *testing.T) {
	t.Run("empty table", func(t *testing.T) {
		if _, err := Classify(nil, nil, DefaultBValueThreshold); err == nil {
			t.Error("expected error for empty gradient table")
		}
	})

	t.Run("negative threshold", func(t *testing.T) {
		if _, err := Classify([][]float64{{0, 0, 0}}, []float64{0}, -1); err == nil {
			t.Error("expected error for negative threshold")
		}
	})

	t.Run("b-value length mismatch", func(t *testing.T) {
		gradients := [][]float64{{0, 0, 0}, {1, 0, 0}}
		if _, err := Classify(gradients, []float64{0}, DefaultBValueThreshold); err == nil {
			t.Error("expected error for mismatched b-value table length")
		}
	})
}
