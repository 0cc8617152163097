package ops

import (
	"path/filepath"

	"github.com/kairos-io/kairos-sdk/types/runner"

	"github.com/valkyrie-os/valkforge/internal"
	"github.com/valkyrie-os/valkforge/pkg/constants"
)

// PackageISO masters the staging tree into an ISO 9660 image. When staging
// carries both a grub config and an El-Torito image the ISO is made
// bootable; without them a plain data ISO is produced with a warning.
func PackageISO(runner runner.Runner, staging, output, label string) error {
	bootImage := ""
	if HasGrubConfig(staging) {
		bootImage = filepath.ToSlash(filepath.Join(constants.GrubDir, constants.EltoritoImg))
	} else {
		internal.Log.Logger.Warn().Str("staging", staging).Msg("No grub config in staging tree, producing a non-bootable ISO")
	}

	args := constants.GetXorrisoArgs(staging, output, label, bootImage)
	internal.Log.Logger.Info().Str("output", output).Bool("bootable", bootImage != "").Msg("Packaging ISO")
	out, err := runner.Run("xorriso", args...)
	if err != nil {
		return newToolError("xorriso", args, out, err)
	}
	return nil
}
