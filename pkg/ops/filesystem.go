package ops

import (
	"fmt"
	"sort"
	"strings"
)

// FilesystemKind describes one of the supported target filesystems and the
// knobs its formatter needs.
type FilesystemKind struct {
	Name string
	// PartedType is the filesystem name parted's mkpart understands.
	PartedType string
	// MBRId is the partition type byte written into the MBR entry.
	MBRId int
	// FATBits selects the FAT width for mkfs.fat, 0 for non-FAT kinds.
	FATBits int
	// ReservedExtra is added to the requested reserved sector count.
	// fat32 reserves one sector more than fat12/16 because of its larger
	// boot structures.
	ReservedExtra uint
	// SupportsSymlinks is false for all FAT variants.
	SupportsSymlinks bool
	// MountType is the kernel filesystem type used when mounting.
	MountType string
}

var filesystems = map[string]FilesystemKind{
	"fat12": {
		Name:          "fat12",
		PartedType:    "fat12",
		MBRId:         0x01,
		FATBits:       12,
		ReservedExtra: 1,
		MountType:     "vfat",
	},
	"fat16": {
		Name:          "fat16",
		PartedType:    "fat16",
		MBRId:         0x06,
		FATBits:       16,
		ReservedExtra: 1,
		MountType:     "vfat",
	},
	"fat32": {
		Name:          "fat32",
		PartedType:    "fat32",
		MBRId:         0x0c,
		FATBits:       32,
		ReservedExtra: 2,
		MountType:     "vfat",
	},
	"ext2": {
		Name:             "ext2",
		PartedType:       "ext2",
		MBRId:            0x83,
		SupportsSymlinks: true,
		MountType:        "ext2",
	},
}

// ParseFilesystem returns the FilesystemKind for the given name.
func ParseFilesystem(name string) (FilesystemKind, error) {
	k, ok := filesystems[strings.ToLower(name)]
	if !ok {
		return FilesystemKind{}, fmt.Errorf("%w: %q, supported: %v", ErrUnsupportedFilesystem, name, SupportedFilesystems())
	}
	return k, nil
}

// SupportedFilesystems returns the supported filesystem names, sorted.
func SupportedFilesystems() []string {
	names := make([]string, 0, len(filesystems))
	for name := range filesystems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (k FilesystemKind) IsFAT() bool {
	return k.FATBits != 0
}

// ReservedSectors returns the final reserved sector count for a FAT format
// given the requested base count.
func (k FilesystemKind) ReservedSectors(base uint) uint {
	return base + k.ReservedExtra
}
