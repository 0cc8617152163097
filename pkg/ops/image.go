package ops

import (
	"fmt"

	"github.com/valkyrie-os/valkforge/pkg/constants"
)

// ImageSpec describes the raw image file to allocate.
type ImageSpec struct {
	Path       string
	SizeBytes  uint64
	SectorSize uint64
}

// NewImageSpec validates the requested geometry.
func NewImageSpec(path string, sizeBytes uint64) (ImageSpec, error) {
	if path == "" {
		return ImageSpec{}, fmt.Errorf("image path is empty")
	}
	if sizeBytes == 0 {
		return ImageSpec{}, fmt.Errorf("image size must be greater than zero")
	}
	return ImageSpec{
		Path:       path,
		SizeBytes:  sizeBytes,
		SectorSize: constants.SectorSize,
	}, nil
}

// Sectors returns the image size in sectors, rounding up so the requested
// byte count always fits.
func (s ImageSpec) Sectors() uint64 {
	return (s.SizeBytes + s.SectorSize - 1) / s.SectorSize
}

// PartitionLayout describes the single primary partition carved out of the
// image.
type PartitionLayout struct {
	StartSector uint64
	Filesystem  FilesystemKind
}

// NewPartitionLayout validates that the partition start leaves room for at
// least one data sector inside the image.
func NewPartitionLayout(spec ImageSpec, startSector uint64, fs FilesystemKind) (PartitionLayout, error) {
	if startSector == 0 {
		startSector = constants.DefaultPartitionStart
	}
	total := spec.Sectors()
	if startSector >= total-1 {
		return PartitionLayout{}, fmt.Errorf("%w: partition start %d leaves no room in %d sector image", ErrInsufficientSpace, startSector, total)
	}
	return PartitionLayout{StartSector: startSector, Filesystem: fs}, nil
}

// OffsetBytes returns the partition start offset in bytes.
func (p PartitionLayout) OffsetBytes() uint64 {
	return p.StartSector * constants.SectorSize
}
