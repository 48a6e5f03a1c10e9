package gradient

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadGradientTable parses a bvecs text file into a table of float
// rows, one row per non-blank line, columns separated by whitespace.
// The table is returned as stored on disk; orientation is resolved
// later by Normalize so that both N×3 and 3×N files are accepted.
func ReadGradientTable(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gradient table: %w", err)
	}
	defer f.Close()

	var table [][]float64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("gradient table line %d: invalid value %q: %w", lineNo, field, err)
			}
			row[i] = v
		}
		table = append(table, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gradient table: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("gradient table %s is empty", path)
	}

	return table, nil
}

// ReadBValueTable parses a bvals text file into a flat list of
// scalars. Files written as a single row and files written as a single
// column both parse to the same list, in order.
func ReadBValueTable(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open b-value table: %w", err)
	}
	defer f.Close()

	var bvals []float64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("b-value table: invalid value %q: %w", scanner.Text(), err)
		}
		if v < 0 {
			return nil, fmt.Errorf("b-value table: negative value %g", v)
		}
		bvals = append(bvals, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read b-value table: %w", err)
	}
	if len(bvals) == 0 {
		return nil, fmt.Errorf("b-value table %s is empty", path)
	}

	return bvals, nil
}
