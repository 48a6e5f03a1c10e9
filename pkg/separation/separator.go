// Package separation orchestrates the b=0 / DWI separation pipeline:
// read gradient metadata, classify frames, reassemble each class into
// its own volume, optionally average over time, and emit the outputs.
package separation

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dmriseparate/internal/models"
	"dmriseparate/pkg/gradient"
	"dmriseparate/pkg/visualization"
	"dmriseparate/pkg/volume"
)

// Params holds the separation parameters. These mirror the tool's
// command-line arguments and configuration file.
type Params struct {
	// InputFile is the 4D diffusion dataset (.nii or .nii.gz).
	InputFile string

	// BvecFile is the gradient-direction (bvecs) text table.
	BvecFile string

	// BvalFile is an optional b-value (bvals) text table. When empty,
	// classification falls back to gradient-vector magnitude.
	BvalFile string

	// BValueThreshold is the b-value below which a frame is b=0.
	// Zero or negative selects the default threshold.
	BValueThreshold float64

	// Average enables the temporal mean of each separated volume.
	Average bool

	// OutputDir is the folder receiving the output volumes.
	OutputDir string

	// RemoveTempFiles controls whether the staging directory is
	// deleted after the run.
	RemoveTempFiles bool

	// Verbose enables progress output.
	Verbose bool

	// PreviewDir, when non-empty, receives PNG frame previews of the
	// separated volumes.
	PreviewDir string
}

// Results reports the output files and per-class frame counts of a
// completed run. Mean paths are empty when averaging is disabled, and
// DWI paths are empty when the dataset has no diffusion-weighted frame.
type Results struct {
	B0File      string
	DWIFile     string
	B0MeanFile  string
	DWIMeanFile string
	NumB0       int
	NumDWI      int
}

// Separator runs the separation pipeline for one dataset.
type Separator struct {
	params *Params
}

// NewSeparator creates a separator with the provided parameters,
// filling in the default b-value threshold and output folder when
// unset.
func NewSeparator(params *Params) *Separator {
	if params.BValueThreshold <= 0 {
		params.BValueThreshold = gradient.DefaultBValueThreshold
	}
	if params.OutputDir == "" {
		params.OutputDir = "."
	}
	return &Separator{params: params}
}

// Process runs the complete pipeline and returns the output paths.
func (s *Separator) Process() (*Results, error) {
	if s.params.InputFile == "" {
		return nil, fmt.Errorf("no input dataset provided")
	}
	if s.params.BvecFile == "" {
		return nil, fmt.Errorf("no bvecs file provided")
	}

	s.logf("Input parameters:")
	s.logf("  input file ............ %s", s.params.InputFile)
	s.logf("  bvecs file ............ %s", s.params.BvecFile)
	s.logf("  bvals file ............ %s", s.params.BvalFile)
	s.logf("  average ............... %t", s.params.Average)

	// Step 1: classify frames from the gradient metadata.
	cls, err := s.classify()
	if err != nil {
		return nil, err
	}
	s.logf("Identified %d b=0 and %d DWI frames", cls.NumB0(), cls.NumDWI())

	// Step 2: load the 4D dataset.
	s.logf("Loading %s...", s.params.InputFile)
	vol, err := volume.Load(s.params.InputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load volume: %w", err)
	}
	s.logf("  dimensions: %d x %d x %d x %d", vol.Nx, vol.Ny, vol.Nz, vol.Nt)
	if vol.Nt != cls.NumFrames() {
		return nil, fmt.Errorf("volume has %d frames but gradient table describes %d", vol.Nt, cls.NumFrames())
	}

	// Step 3: stage outputs in a temporary folder, then place them in
	// the output folder.
	tmpDir, err := os.MkdirTemp("", "dmri_separate_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary folder: %w", err)
	}
	if s.params.RemoveTempFiles {
		defer os.RemoveAll(tmpDir)
	} else {
		s.logf("Keeping temporary files in %s", tmpDir)
	}

	base, ext := splitExtension(filepath.Base(s.params.InputFile))
	results := &Results{NumB0: cls.NumB0(), NumDWI: cls.NumDWI()}

	// Step 4: assemble and write the b=0 volume.
	s.logf("Assembling b=0 volume...")
	b0, err := volume.Assemble(vol, cls.B0Indices)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble b=0 volume: %w", err)
	}
	if results.B0File, err = s.stage(b0, tmpDir, base+"_b0"+ext); err != nil {
		return nil, err
	}

	// Step 5: assemble and write the DWI volume. An empty DWI class is
	// a degenerate but valid dataset.
	var dwi *volume.Volume
	if cls.NumDWI() > 0 {
		s.logf("Assembling DWI volume...")
		if dwi, err = volume.Assemble(vol, cls.DWIIndices); err != nil {
			return nil, fmt.Errorf("failed to assemble DWI volume: %w", err)
		}
		if results.DWIFile, err = s.stage(dwi, tmpDir, base+"_dwi"+ext); err != nil {
			return nil, err
		}
	} else {
		s.logf("No DWI frames in dataset, skipping DWI volume")
	}

	// Step 6: temporal averages.
	if s.params.Average {
		s.logf("Averaging b=0 volume...")
		if results.B0MeanFile, err = s.stage(volume.Mean(b0), tmpDir, base+"_b0_mean"+ext); err != nil {
			return nil, err
		}
		if dwi != nil {
			s.logf("Averaging DWI volume...")
			if results.DWIMeanFile, err = s.stage(volume.Mean(dwi), tmpDir, base+"_dwi_mean"+ext); err != nil {
				return nil, err
			}
		}
	}

	// Step 7: optional PNG previews. Preview failures are warnings.
	if s.params.PreviewDir != "" {
		s.savePreviews(b0, dwi, base)
	}

	return results, nil
}

// classify reads the metadata tables and partitions the frame indices.
func (s *Separator) classify() (*models.Classification, error) {
	raw, err := gradient.ReadGradientTable(s.params.BvecFile)
	if err != nil {
		return nil, err
	}
	grads, transposed, err := gradient.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if transposed {
		fmt.Printf("Warning: bvecs file %s is 3xn instead of nx3, transposing\n", s.params.BvecFile)
	}

	var bvals []float64
	if s.params.BvalFile != "" {
		if bvals, err = gradient.ReadBValueTable(s.params.BvalFile); err != nil {
			return nil, err
		}
	}

	return gradient.Classify(grads, bvals, s.params.BValueThreshold)
}

// stage writes a volume into the temporary folder and copies it into
// the output folder under the same name, returning the final path.
func (s *Separator) stage(v *volume.Volume, tmpDir, name string) (string, error) {
	tmpPath := filepath.Join(tmpDir, name)
	if err := v.Save(tmpPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.params.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output folder: %w", err)
	}
	outPath := filepath.Join(s.params.OutputDir, name)
	if err := copyFile(tmpPath, outPath); err != nil {
		return "", fmt.Errorf("failed to place output %s: %w", name, err)
	}
	s.logf("  wrote %s", outPath)
	return outPath, nil
}

// savePreviews writes PNG frame previews of the separated volumes.
func (s *Separator) savePreviews(b0, dwi *volume.Volume, base string) {
	if err := visualization.NewViewer(b0).SaveFrameSequence(s.params.PreviewDir, base+"_b0"); err != nil {
		fmt.Printf("Warning: failed to save b=0 previews: %v\n", err)
	}
	if dwi == nil {
		return
	}
	if err := visualization.NewViewer(dwi).SaveFrameSequence(s.params.PreviewDir, base+"_dwi"); err != nil {
		fmt.Printf("Warning: failed to save DWI previews: %v\n", err)
	}
}

func (s *Separator) logf(format string, args ...interface{}) {
	if s.params.Verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// splitExtension splits a volume filename into base name and
// extension, treating .nii.gz as a single extension.
func splitExtension(name string) (string, string) {
	if strings.HasSuffix(name, ".nii.gz") {
		return strings.TrimSuffix(name, ".nii.gz"), ".nii.gz"
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
