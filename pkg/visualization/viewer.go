package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"dmriseparate/pkg/volume"
)

// Viewer renders grayscale previews of the frames of a 4D volume. Each
// preview shows the middle axial slice of one frame, window-scaled to
// the slice maximum.
type Viewer struct {
	vol *volume.Volume
}

// NewViewer creates a viewer over the given volume.
func NewViewer(vol *volume.Volume) *Viewer {
	return &Viewer{vol: vol}
}

// FrameImage renders the middle axial slice of frame t.
func (v *Viewer) FrameImage(t int) (image.Image, error) {
	if t < 0 || t >= v.vol.Nt {
		return nil, fmt.Errorf("frame %d out of range for %d-frame volume", t, v.vol.Nt)
	}
	z := v.vol.Nz / 2

	maxIntensity := 0.0
	for y := 0; y < v.vol.Ny; y++ {
		for x := 0; x < v.vol.Nx; x++ {
			if intensity := float64(v.vol.At(x, y, z, t)); intensity > maxIntensity {
				maxIntensity = intensity
			}
		}
	}

	img := image.NewGray16(image.Rect(0, 0, v.vol.Nx, v.vol.Ny))
	for y := 0; y < v.vol.Ny; y++ {
		for x := 0; x < v.vol.Nx; x++ {
			img.SetGray16(x, y, color.Gray16{Y: windowScale(float64(v.vol.At(x, y, z, t)), maxIntensity)})
		}
	}

	return img, nil
}

// SaveFrame writes a rendered frame as a PNG image.
func (v *Viewer) SaveFrame(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SaveFrameSequence renders every frame of the volume and saves the
// previews as <prefix>_t<index>.png in outputDir.
func (v *Viewer) SaveFrameSequence(outputDir, prefix string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for t := 0; t < v.vol.Nt; t++ {
		img, err := v.FrameImage(t)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("%s_t%04d.png", prefix, t))
		if err := v.SaveFrame(img, filename); err != nil {
			return err
		}
	}

	return nil
}

// windowScale maps an intensity into the 16-bit grayscale range,
// clamping negatives to zero.
func windowScale(intensity, maxIntensity float64) uint16 {
	if intensity < 0 || maxIntensity <= 0 {
		return 0
	}
	return uint16(float64(math.MaxUint16) * intensity / maxIntensity)
}
