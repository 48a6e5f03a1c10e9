// Package volume provides an in-memory model of a 4D imaging volume
// together with the frame operations the separation pipeline needs:
// splitting along the temporal axis, ordered reassembly of selected
// frames, and temporal averaging. NIfTI reading and writing live in
// nifti.go; everything here is a pure in-memory transformation.
package volume

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptyClass is returned when a volume is requested from an empty
// frame list.
var ErrEmptyClass = errors.New("cannot assemble a volume from an empty frame list")

// Volume is a 3D voxel grid replicated over a temporal axis of length
// Nt. Voxel data is stored x-fastest: the sample at (x, y, z, t) lives
// at index ((t*Nz+z)*Ny+y)*Nx + x.
type Volume struct {
	// Data holds the voxel intensities.
	Data []float32

	// Nx, Ny, Nz are the spatial dimensions; Nt is the frame count.
	Nx, Ny, Nz, Nt int

	// VoxelSize is the physical voxel extent in mm along x, y, z.
	VoxelSize [3]float64

	// TR is the temporal spacing between frames in seconds. It is
	// zero on assembled volumes, whose frames are not contiguous in
	// original acquisition time.
	TR float64
}

// New allocates a zero-filled volume with the given dimensions.
func New(nx, ny, nz, nt int) *Volume {
	return &Volume{
		Data: make([]float32, nx*ny*nz*nt),
		Nx:   nx,
		Ny:   ny,
		Nz:   nz,
		Nt:   nt,
	}
}

// FrameSize returns the number of voxels in a single frame.
func (v *Volume) FrameSize() int {
	return v.Nx * v.Ny * v.Nz
}

// At returns the intensity at (x, y, z, t). Coordinates are not bounds
// checked beyond what the underlying slice enforces.
func (v *Volume) At(x, y, z, t int) float32 {
	return v.Data[((t*v.Nz+z)*v.Ny+y)*v.Nx+x]
}

// SetAt stores an intensity at (x, y, z, t).
func (v *Volume) SetAt(x, y, z, t int, value float32) {
	v.Data[((t*v.Nz+z)*v.Ny+y)*v.Nx+x] = value
}

// Frame returns a copy of the single frame at temporal index t.
func (v *Volume) Frame(t int) (*Volume, error) {
	if t < 0 || t >= v.Nt {
		return nil, fmt.Errorf("frame index %d out of range for %d-frame volume", t, v.Nt)
	}
	fs := v.FrameSize()
	frame := &Volume{
		Data:      make([]float32, fs),
		Nx:        v.Nx,
		Ny:        v.Ny,
		Nz:        v.Nz,
		Nt:        1,
		VoxelSize: v.VoxelSize,
	}
	copy(frame.Data, v.Data[t*fs:(t+1)*fs])
	return frame, nil
}

// Split breaks the volume into its single-frame sub-volumes, in
// ascending temporal order.
func Split(v *Volume) []*Volume {
	frames := make([]*Volume, v.Nt)
	for t := 0; t < v.Nt; t++ {
		frame, _ := v.Frame(t)
		frames[t] = frame
	}
	return frames
}

// Concat builds a new volume by concatenating single-frame volumes
// along the temporal axis, in the order given. All frames must share
// the same spatial dimensions. Spatial metadata is inherited from the
// first frame; the temporal spacing is reset since the frames are not
// contiguous in acquisition time.
func Concat(frames []*Volume) (*Volume, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyClass
	}

	first := frames[0]
	out := New(first.Nx, first.Ny, first.Nz, len(frames))
	out.VoxelSize = first.VoxelSize

	fs := first.FrameSize()
	for i, frame := range frames {
		if frame.Nx != first.Nx || frame.Ny != first.Ny || frame.Nz != first.Nz {
			return nil, fmt.Errorf("frame %d has dimensions %dx%dx%d, expected %dx%dx%d",
				i, frame.Nx, frame.Ny, frame.Nz, first.Nx, first.Ny, first.Nz)
		}
		if frame.Nt != 1 {
			return nil, fmt.Errorf("frame %d is a %d-frame volume, expected a single frame", i, frame.Nt)
		}
		copy(out.Data[i*fs:(i+1)*fs], frame.Data)
	}

	return out, nil
}

// Assemble extracts the frames of v named by indices, in list order,
// and concatenates them into a new volume. The output frame count
// equals len(indices) and the output frame order is exactly the order
// of indices. An empty index list is reported as ErrEmptyClass.
func Assemble(v *Volume, indices []int) (*Volume, error) {
	if len(indices) == 0 {
		return nil, ErrEmptyClass
	}

	frames := Split(v)
	selected := make([]*Volume, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(frames) {
			return nil, fmt.Errorf("frame index %d out of range for %d-frame volume", idx, len(frames))
		}
		selected[i] = frames[idx]
	}

	return Concat(selected)
}

// Mean reduces the volume to a single frame holding the unweighted
// arithmetic mean across the temporal axis.
func Mean(v *Volume) *Volume {
	out := New(v.Nx, v.Ny, v.Nz, 1)
	out.VoxelSize = v.VoxelSize

	fs := v.FrameSize()
	series := make([]float64, v.Nt)
	for i := 0; i < fs; i++ {
		for t := 0; t < v.Nt; t++ {
			series[t] = float64(v.Data[t*fs+i])
		}
		out.Data[i] = float32(stat.Mean(series, nil))
	}

	return out
}
