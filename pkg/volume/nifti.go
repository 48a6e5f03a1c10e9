package volume

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/henghuang/nifti"
)

const (
	niftiHeaderSize = 348
	niftiVoxOffset  = 352

	// NIfTI-1 datatype code for 32-bit IEEE floats.
	niftiTypeFloat32 = 16

	// xyzt_units: spatial millimeters, temporal seconds.
	niftiUnitsMMSec = 2 | 8
)

// Load reads a NIfTI-1 volume (.nii or .nii.gz) into memory. A 3D file
// loads as a volume with a single frame.
func Load(path string) (*Volume, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot read volume: %w", err)
	}

	var img nifti.Nifti1Image
	img.LoadImage(path, true)

	var hdr nifti.Nifti1Header
	hdr.LoadHeader(path)

	dims := img.GetDims()
	nx, ny, nz, nt := dims[0], dims[1], dims[2], dims[3]
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("volume %s has invalid dimensions %dx%dx%d", path, nx, ny, nz)
	}
	if nt < 1 {
		nt = 1
	}

	v := New(nx, ny, nz, nt)
	v.VoxelSize = [3]float64{
		float64(hdr.Pixdim[1]),
		float64(hdr.Pixdim[2]),
		float64(hdr.Pixdim[3]),
	}
	v.TR = float64(hdr.Pixdim[4])

	for t := 0; t < nt; t++ {
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					v.SetAt(x, y, z, t, float32(img.GetAt(x, y, z, t)))
				}
			}
		}
	}

	return v, nil
}

// nifti1Header mirrors the 348-byte on-disk NIfTI-1 header. Every
// field is fixed-size so encoding/binary writes it without padding.
type nifti1Header struct {
	SizeofHdr     int32
	DataType      [10]byte
	DBName        [18]byte
	Extents       int32
	SessionError  int16
	Regular       byte
	DimInfo       byte
	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XyztUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32
	Glmin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QoffsetX      float32
	QoffsetY      float32
	QoffsetZ      float32
	SrowX         [4]float32
	SrowY         [4]float32
	SrowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

// header builds the NIfTI-1 header describing v. Data is always
// written as float32 with a scaled-identity sform derived from the
// voxel sizes.
func (v *Volume) header() nifti1Header {
	var h nifti1Header
	h.SizeofHdr = niftiHeaderSize

	ndim := int16(4)
	if v.Nt <= 1 {
		ndim = 3
	}
	h.Dim = [8]int16{ndim, int16(v.Nx), int16(v.Ny), int16(v.Nz), int16(v.Nt), 1, 1, 1}
	h.Datatype = niftiTypeFloat32
	h.Bitpix = 32
	h.Pixdim = [8]float32{
		1,
		float32(v.VoxelSize[0]),
		float32(v.VoxelSize[1]),
		float32(v.VoxelSize[2]),
		float32(v.TR),
	}
	h.VoxOffset = niftiVoxOffset
	h.SclSlope = 1
	h.XyztUnits = niftiUnitsMMSec
	h.SformCode = 1
	h.SrowX = [4]float32{float32(v.VoxelSize[0]), 0, 0, 0}
	h.SrowY = [4]float32{0, float32(v.VoxelSize[1]), 0, 0}
	h.SrowZ = [4]float32{0, 0, float32(v.VoxelSize[2]), 0}
	copy(h.Descrip[:], "dmriseparate")
	copy(h.Magic[:], "n+1\x00")

	return h
}

// Save writes the volume as a single-file NIfTI-1 image. Output is
// gzip-compressed when path ends in .gz.
func (v *Volume) Save(path string) error {
	if len(v.Data) != v.FrameSize()*v.Nt {
		return fmt.Errorf("volume data has %d voxels, dimensions imply %d", len(v.Data), v.FrameSize()*v.Nt)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create volume file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	var out io.Writer = bw
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(bw)
		out = gz
	}

	if err := v.encode(out); err != nil {
		return fmt.Errorf("failed to write volume %s: %w", path, err)
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("failed to finish compressed volume %s: %w", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write volume %s: %w", path, err)
	}
	return f.Close()
}

// encode writes the header, the 4-byte extension flag, and the voxel
// data, all little-endian per the NIfTI-1 convention.
func (v *Volume) encode(w io.Writer) error {
	hdr := v.header()
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, [4]byte{}); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, v.Data)
}
