// Package gradient reads diffusion gradient metadata tables and
// classifies acquisition frames into b=0 and diffusion-weighted (DWI)
// classes. Classification is a pure function over in-memory tables; it
// performs no image I/O.
package gradient

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"dmriseparate/internal/models"
)

const (
	// DefaultBValueThreshold is the b-value (in s/mm2) below which a
	// frame is considered b=0 when a b-value table is supplied.
	DefaultBValueThreshold = 100.0

	// GradientNormThreshold is the gradient-vector magnitude below
	// which a frame is considered b=0 when no b-value table is
	// supplied. A near-zero vector indicates no diffusion
	// sensitization.
	GradientNormThreshold = 0.01
)

// ErrNoB0Frames is returned when classification finds no b=0 frame at
// all. A dataset without a b=0 reference cannot be separated.
var ErrNoB0Frames = errors.New("no b=0 images detected")

// MalformedTableError reports a gradient table row that does not have
// exactly 3 components after orientation handling.
type MalformedTableError struct {
	// Row is the offending zero-based row index.
	Row int

	// Components is the number of components found in that row.
	Components int
}

func (e *MalformedTableError) Error() string {
	return fmt.Sprintf("gradient table row %d has %d components, expected 3", e.Row, e.Components)
}

// Normalize returns the gradient table in N×3 orientation. A table
// whose first row does not have exactly 3 components is assumed to be
// stored transposed (3×N) and is flipped back; the returned flag
// reports whether that happened so callers can warn. A single
// 3-component row is always treated as one frame, never as a 3×1
// table. Any row that still does not have exactly 3 components yields
// a MalformedTableError.
func Normalize(table [][]float64) ([][]float64, bool, error) {
	if len(table) == 0 {
		return nil, false, fmt.Errorf("gradient table is empty")
	}

	transposed := false
	if len(table[0]) != 3 {
		flipped, err := transpose(table)
		if err != nil {
			return nil, false, err
		}
		table = flipped
		transposed = true
	}

	for i, row := range table {
		if len(row) != 3 {
			return nil, transposed, &MalformedTableError{Row: i, Components: len(row)}
		}
	}

	return table, transposed, nil
}

// transpose flips a rectangular table. Ragged input is rejected so a
// 3×N table with a short row cannot silently produce garbage vectors.
func transpose(table [][]float64) ([][]float64, error) {
	cols := len(table[0])
	for i, row := range table {
		if len(row) != cols {
			return nil, &MalformedTableError{Row: i, Components: len(row)}
		}
	}

	out := make([][]float64, cols)
	for j := 0; j < cols; j++ {
		out[j] = make([]float64, len(table))
		for i := range table {
			out[j][i] = table[i][j]
		}
	}
	return out, nil
}

// Classify partitions the frame indices 0..N-1 of an N-frame diffusion
// acquisition into b=0 and DWI classes.
//
// When bvalues is non-nil it must hold one entry per frame, and a frame
// is b=0 exactly when its b-value is strictly below threshold (gradient
// vectors are ignored). When bvalues is nil, a frame is b=0 exactly
// when the Euclidean norm of its gradient vector is strictly below
// GradientNormThreshold. The strategy is selected once up front.
//
// The gradient table may be supplied in either orientation; see
// Normalize. Indices are emitted in ascending acquisition order. A
// result with no b=0 frame is reported as ErrNoB0Frames.
func Classify(gradients [][]float64, bvalues []float64, threshold float64) (*models.Classification, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("b-value threshold must be non-negative, got %g", threshold)
	}

	grads, _, err := Normalize(gradients)
	if err != nil {
		return nil, err
	}
	n := len(grads)

	// Select the classification strategy once.
	var isB0 func(i int) bool
	if bvalues != nil {
		if len(bvalues) != n {
			return nil, fmt.Errorf("b-value table has %d entries for %d gradient directions", len(bvalues), n)
		}
		isB0 = func(i int) bool { return bvalues[i] < threshold }
	} else {
		isB0 = func(i int) bool { return floats.Norm(grads[i], 2) < GradientNormThreshold }
	}

	result := &models.Classification{}
	for i := 0; i < n; i++ {
		if isB0(i) {
			result.B0Indices = append(result.B0Indices, i)
		} else {
			result.DWIIndices = append(result.DWIIndices, i)
		}
	}

	if len(result.B0Indices) == 0 {
		return nil, ErrNoB0Frames
	}

	return result, nil
}
