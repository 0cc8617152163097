package ops

import (
	"fmt"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/partition/mbr"

	"github.com/valkyrie-os/valkforge/internal"
)

// VerifyImage reads the finished image back and checks the partition table
// matches what the pipeline was asked to build: an MBR label with a single
// bootable partition of the right type at the right start sector.
func VerifyImage(spec ImageSpec, layout PartitionLayout) error {
	d, err := diskfs.Open(spec.Path)
	if err != nil {
		return fmt.Errorf("opening image %s: %w", spec.Path, err)
	}
	defer d.Close()

	table, err := d.GetPartitionTable()
	if err != nil {
		return fmt.Errorf("reading partition table from %s: %w", spec.Path, err)
	}
	mbrTable, ok := table.(*mbr.Table)
	if !ok {
		return fmt.Errorf("image %s has a %s partition table, expected mbr", spec.Path, table.Type())
	}

	var parts []*mbr.Partition
	for _, p := range mbrTable.Partitions {
		if p != nil && p.Type != mbr.Empty {
			parts = append(parts, p)
		}
	}
	if len(parts) != 1 {
		return fmt.Errorf("image %s has %d partitions, expected 1", spec.Path, len(parts))
	}

	part := parts[0]
	if !part.Bootable {
		return fmt.Errorf("partition in %s is not marked bootable", spec.Path)
	}
	if uint64(part.Start) != layout.StartSector {
		return fmt.Errorf("partition in %s starts at sector %d, expected %d", spec.Path, part.Start, layout.StartSector)
	}
	if int(part.Type) != layout.Filesystem.MBRId {
		return fmt.Errorf("partition in %s has type %#02x, expected %#02x", spec.Path, int(part.Type), layout.Filesystem.MBRId)
	}

	internal.Log.Logger.Info().Str("image", spec.Path).Msg("Image verified")
	return nil
}
