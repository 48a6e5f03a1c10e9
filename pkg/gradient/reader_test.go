package gradient

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// writeTestTable writes a metadata table file for reader tests
func writeTestTable(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test table: %v", err)
	}
	return path
}

func TestReadGradientTable(t *testing.T) {
	path := writeTestTable(t, "bvecs", "0 0 0\n1 0 0\n\n0 1 0\n")

	table, err := ReadGradientTable(path)
	if err != nil {
		t.Fatalf("ReadGradientTable failed: %v", err)
	}

	want := [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	if !reflect.DeepEqual(table, want) {
		t.Errorf("table = %v, want %v", table, want)
	}
}

// TestReadGradientTableTransposed verifies that a 3xN file parses and,
// after normalization, classifies identically to its Nx3 form.
func TestReadGradientTableTransposed(t *testing.T) {
	rowMajor := writeTestTable(t, "bvecs_nx3", "0 0 0\n1 0 0\n0 1 0\n0 0 0\n")
	colMajor := writeTestTable(t, "bvecs_3xn", "0 1 0 0\n0 0 1 0\n0 0 0 0\n")

	rows, err := ReadGradientTable(rowMajor)
	if err != nil {
		t.Fatalf("ReadGradientTable(nx3) failed: %v", err)
	}
	cols, err := ReadGradientTable(colMajor)
	if err != nil {
		t.Fatalf("ReadGradientTable(3xn) failed: %v", err)
	}

	want, err := Classify(rows, nil, DefaultBValueThreshold)
	if err != nil {
		t.Fatalf("Classify(nx3) failed: %v", err)
	}
	got, err := Classify(cols, nil, DefaultBValueThreshold)
	if err != nil {
		t.Fatalf("Classify(3xn) failed: %v", err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("3xn file classified as %v, want %v", got, want)
	}
}

func TestReadGradientTableErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := ReadGradientTable(filepath.Join(t.TempDir(), "absent")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("non-numeric value", func(t *testing.T) {
		path := writeTestTable(t, "bvecs", "0 0 zero\n")
		if _, err := ReadGradientTable(path); err == nil {
			t.Error("expected error for non-numeric value")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeTestTable(t, "bvecs", "\n\n")
		if _, err := ReadGradientTable(path); err == nil {
			t.Error("expected error for empty table")
		}
	})
}

func TestReadBValueTable(t *testing.T) {
	t.Run("single row", func(t *testing.T) {
		path := writeTestTable(t, "bvals", "0 0 1000 1000 0\n")
		bvals, err := ReadBValueTable(path)
		if err != nil {
			t.Fatalf("ReadBValueTable failed: %v", err)
		}
		if !reflect.DeepEqual(bvals, []float64{0, 0, 1000, 1000, 0}) {
			t.Errorf("bvals = %v", bvals)
		}
	})

	t.Run("single column", func(t *testing.T) {
		path := writeTestTable(t, "bvals", "0\n0\n1000\n1000\n0\n")
		bvals, err := ReadBValueTable(path)
		if err != nil {
			t.Fatalf("ReadBValueTable failed: %v", err)
		}
		if !reflect.DeepEqual(bvals, []float64{0, 0, 1000, 1000, 0}) {
			t.Errorf("bvals = %v", bvals)
		}
	})

	t.Run("negative value", func(t *testing.T) {
		path := writeTestTable(t, "bvals", "0 -5 1000\n")
		if _, err := ReadBValueTable(path); err == nil {
			t.Error("expected error for negative b-value")
		}
	})
}
