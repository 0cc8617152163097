package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/uuid"
	"github.com/kairos-io/kairos-sdk/types/runner"

	"github.com/valkyrie-os/valkforge/internal"
	"github.com/valkyrie-os/valkforge/pkg/constants"
)

// GuestfishBackend prepares images through libguestfs, which runs a small
// appliance VM and therefore needs no root or loop devices. It cannot
// install the bootloader: grub-install has to see the host loop device.
type GuestfishBackend struct {
	runner runner.Runner
}

func NewGuestfishBackend(runner runner.Runner) *GuestfishBackend {
	return &GuestfishBackend{runner: runner}
}

func (b *GuestfishBackend) Name() string {
	return constants.BackendGuestfish
}

// run executes a guestfish session against the image. Commands are passed
// in argv form separated by ":" tokens.
func (b *GuestfishBackend) run(image string, commands ...[]string) error {
	args := []string{"--rw", "-a", image, "run"}
	for _, cmd := range commands {
		args = append(args, ":")
		args = append(args, cmd...)
	}
	out, err := b.runner.Run("guestfish", args...)
	if err != nil {
		return newToolError("guestfish", args, out, err)
	}
	return nil
}

func (b *GuestfishBackend) PartitionTable(spec ImageSpec, layout PartitionLayout) error {
	internal.Log.Logger.Info().Str("image", spec.Path).Msg("Writing partition table")
	return b.run(spec.Path,
		[]string{"part-init", "/dev/sda", "mbr"},
		[]string{"part-add", "/dev/sda", "p", strconv.FormatUint(layout.StartSector, 10), "-1"},
		[]string{"part-set-bootable", "/dev/sda", "1", "true"},
		[]string{"part-set-mbr-id", "/dev/sda", "1", strconv.Itoa(layout.Filesystem.MBRId)},
	)
}

func (b *GuestfishBackend) Format(spec ImageSpec, layout PartitionLayout, opts FormatOptions) error {
	fs := layout.Filesystem
	internal.Log.Logger.Info().Str("image", spec.Path).Str("filesystem", fs.Name).Msg("Formatting partition")
	mkfsType := fs.Name
	if fs.IsFAT() {
		mkfsType = "vfat"
	}
	if err := b.run(spec.Path, []string{"mkfs", mkfsType, "/dev/sda1"}); err != nil {
		return err
	}
	if opts.Label != "" {
		// A bad label must not sink the build.
		if err := b.run(spec.Path, []string{"set-label", "/dev/sda1", opts.Label}); err != nil {
			internal.Log.Logger.Warn().Str("label", opts.Label).Err(err).Msg("Setting filesystem label failed")
		}
	}
	return nil
}

func (b *GuestfishBackend) Populate(spec ImageSpec, layout PartitionLayout, staging string, installBoot bool) error {
	if installBoot {
		return fmt.Errorf("%w: the guestfish backend cannot install a bootloader", ErrUnsupportedFeature)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	tarPath := filepath.Join(os.TempDir(), fmt.Sprintf("valkforge-%s.tar", id.String()))
	defer os.Remove(tarPath)

	// FAT cannot hold symlinks, so the archive materializes them.
	if err := TarDir(staging, tarPath, !layout.Filesystem.SupportsSymlinks); err != nil {
		return err
	}

	internal.Log.Logger.Info().Str("staging", staging).Str("image", spec.Path).Msg("Populating image")
	args := []string{"--rw", "-a", spec.Path, "-m", "/dev/sda1", "tar-in", tarPath, "/"}
	out, err := b.runner.Run("guestfish", args...)
	if err != nil {
		return newToolError("guestfish", args, out, err)
	}
	return nil
}

var _ Backend = (*GuestfishBackend)(nil)
var _ Backend = (*LoopbackBackend)(nil)
