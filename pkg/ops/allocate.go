package ops

import (
	"fmt"

	diskfs "github.com/diskfs/go-diskfs"

	"github.com/valkyrie-os/valkforge/internal"
)

// AllocateImage creates (or truncates) the raw image file at the spec's path,
// sized to a whole number of sectors.
func AllocateImage(spec ImageSpec) error {
	size := int64(spec.Sectors() * spec.SectorSize)
	internal.Log.Logger.Info().Str("path", spec.Path).Int64("size", size).Msg("Allocating raw image")
	d, err := diskfs.Create(spec.Path, size, diskfs.SectorSize512)
	if err != nil {
		return fmt.Errorf("allocating image %s: %w", spec.Path, err)
	}
	return d.Close()
}
