package ops

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kairos-io/kairos-sdk/types/runner"
	vfs "github.com/twpayne/go-vfs/v5"

	"github.com/valkyrie-os/valkforge/internal"
	"github.com/valkyrie-os/valkforge/pkg/constants"
	"github.com/valkyrie-os/valkforge/pkg/utils"
)

// EnsureGrubConfig makes sure staging carries a boot/grub/grub.cfg, writing
// the default config for the given output format when the tree has none. A
// config already present in staging wins.
func EnsureGrubConfig(staging, format string) error {
	cfgPath := filepath.Join(staging, constants.GrubDir, constants.GrubCfg)
	if _, err := os.Stat(cfgPath); err == nil {
		internal.Log.Logger.Debug().Str("path", cfgPath).Msg("Keeping existing grub config")
		return nil
	}

	var cfg string
	switch format {
	case constants.FormatISO:
		cfg = constants.GrubCfgISO
	default:
		cfg = constants.GrubCfgHD
	}

	if err := utils.MkdirAll(vfs.OSFS, filepath.Dir(cfgPath), constants.DirPerm); err != nil {
		return err
	}
	internal.Log.Logger.Info().Str("path", cfgPath).Msg("Writing default grub config")
	return os.WriteFile(cfgPath, []byte(cfg), constants.FilePerm)
}

// HasGrubConfig reports whether staging carries a grub config.
func HasGrubConfig(staging string) bool {
	_, err := os.Stat(filepath.Join(staging, constants.GrubDir, constants.GrubCfg))
	return err == nil
}

// MakeEltorito builds a standalone BIOS grub image embedding the staging
// tree's grub config, placed where the ISO packaging step expects the
// El-Torito boot image.
func MakeEltorito(runner runner.Runner, staging string) error {
	cfgPath := filepath.Join(staging, constants.GrubDir, constants.GrubCfg)
	imgPath := filepath.Join(staging, constants.GrubDir, constants.EltoritoImg)

	args := []string{
		"--format=i386-pc-eltorito",
		fmt.Sprintf("--output=%s", imgPath),
		fmt.Sprintf("boot/grub/grub.cfg=%s", cfgPath),
	}
	internal.Log.Logger.Info().Str("output", imgPath).Msg("Building El-Torito boot image")
	out, err := runner.Run("grub-mkstandalone", args...)
	if err != nil {
		return newToolError("grub-mkstandalone", args, out, err)
	}
	return nil
}
