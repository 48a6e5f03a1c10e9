package models

// FrameClass identifies the diffusion-weighting class of a single
// acquired frame in a 4D dataset.
type FrameClass int

const (
	// B0 marks a frame with negligible diffusion sensitization,
	// usable as an unweighted structural reference.
	B0 FrameClass = iota

	// DWI marks a frame acquired with a non-negligible diffusion
	// gradient, carrying diffusion-contrast signal.
	DWI
)

// String returns the conventional short name of the class.
func (c FrameClass) String() string {
	switch c {
	case B0:
		return "b0"
	case DWI:
		return "dwi"
	}
	return "unknown"
}

// Classification partitions the temporal frame indices of a diffusion
// acquisition into the b=0 class and the DWI class. Every frame index
// appears in exactly one of the two lists, and each list is kept in
// ascending acquisition order.
type Classification struct {
	// B0Indices are the frame indices classified as b=0.
	B0Indices []int

	// DWIIndices are the frame indices classified as diffusion-weighted.
	DWIIndices []int
}

// NumB0 returns the number of frames classified as b=0.
func (c *Classification) NumB0() int {
	return len(c.B0Indices)
}

// NumDWI returns the number of frames classified as diffusion-weighted.
func (c *Classification) NumDWI() int {
	return len(c.DWIIndices)
}

// NumFrames returns the total number of classified frames.
func (c *Classification) NumFrames() int {
	return len(c.B0Indices) + len(c.DWIIndices)
}

// Class returns the class of frame index i, or B0 when i is present in
// the b=0 list. Indices absent from both lists report DWI.
func (c *Classification) Class(i int) FrameClass {
	for _, idx := range c.B0Indices {
		if idx == i {
			return B0
		}
	}
	return DWI
}
