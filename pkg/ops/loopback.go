package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/kairos-io/kairos-sdk/types/runner"
	"golang.org/x/sys/unix"

	"github.com/valkyrie-os/valkforge/internal"
	"github.com/valkyrie-os/valkforge/pkg/constants"
)

// LoopbackBackend prepares images with parted and mkfs on the image file and
// attaches them through loop devices for population. It needs root.
type LoopbackBackend struct {
	runner runner.Runner
}

func NewLoopbackBackend(runner runner.Runner) *LoopbackBackend {
	return &LoopbackBackend{runner: runner}
}

func (b *LoopbackBackend) Name() string {
	return constants.BackendLoopback
}

func (b *LoopbackBackend) PartitionTable(spec ImageSpec, layout PartitionLayout) error {
	internal.Log.Logger.Info().Str("image", spec.Path).Msg("Writing partition table")
	steps := [][]string{
		{"-s", spec.Path, "mklabel", "msdos"},
		{"-s", spec.Path, "mkpart", "primary", layout.Filesystem.PartedType,
			fmt.Sprintf("%ds", layout.StartSector), "100%"},
		{"-s", spec.Path, "set", "1", "boot", "on"},
	}
	for _, args := range steps {
		out, err := b.runner.Run("parted", args...)
		if err != nil {
			return newToolError("parted", args, out, err)
		}
	}
	return nil
}

func (b *LoopbackBackend) Format(spec ImageSpec, layout PartitionLayout, opts FormatOptions) error {
	fs := layout.Filesystem
	internal.Log.Logger.Info().Str("image", spec.Path).Str("filesystem", fs.Name).Msg("Formatting partition")

	tool, args := formatCommand(spec, layout, opts, true)
	out, err := b.runner.Run(tool, args...)
	if err != nil && opts.Label != "" {
		// A bad label must not sink the build. Retry unlabeled once, but
		// keep the first attempt's diagnostics on record.
		internal.Log.Logger.Warn().Str("label", opts.Label).Str("output", string(out)).Err(err).Msg("Formatting with label failed, retrying without it")
		tool, args = formatCommand(spec, layout, opts, false)
		out, err = b.runner.Run(tool, args...)
	}
	if err != nil {
		return newToolError(tool, args, out, err)
	}
	return nil
}

// formatCommand builds the mkfs invocation run directly against the image
// file at the partition offset.
func formatCommand(spec ImageSpec, layout PartitionLayout, opts FormatOptions, withLabel bool) (string, []string) {
	fs := layout.Filesystem
	if fs.IsFAT() {
		args := []string{"-F", strconv.Itoa(fs.FATBits)}
		if withLabel && opts.Label != "" {
			args = append(args, "-n", opts.Label)
		}
		args = append(args,
			"-R", strconv.FormatUint(uint64(fs.ReservedSectors(opts.ReservedSectors)), 10),
			"--offset", strconv.FormatUint(layout.StartSector, 10),
			spec.Path)
		return "mkfs.fat", args
	}
	var args []string
	if withLabel && opts.Label != "" {
		args = append(args, "-L", opts.Label)
	}
	args = append(args,
		"-E", fmt.Sprintf("offset=%d", layout.OffsetBytes()),
		spec.Path)
	return "mkfs.ext2", args
}

// Attach binds the image to a free loop device, waits for the kernel to
// surface the partition node and mounts it. The returned handle owns all
// teardown.
func (b *LoopbackBackend) Attach(spec ImageSpec, layout PartitionLayout) (*MountHandle, error) {
	out, err := b.runner.Run("losetup", "-fP", "--show", spec.Path)
	if err != nil {
		return nil, newToolError("losetup", []string{"-fP", "--show", spec.Path}, out, err)
	}
	handle := &MountHandle{Device: strings.TrimSpace(string(out))}
	handle.addCleanup(func() error {
		dOut, dErr := b.runner.Run("losetup", "-d", handle.Device)
		if dErr != nil {
			return newToolError("losetup", []string{"-d", handle.Device}, dOut, dErr)
		}
		return nil
	})

	if pOut, pErr := b.runner.Run("partprobe", handle.Device); pErr != nil {
		internal.Log.Logger.Warn().Str("device", handle.Device).Str("output", string(pOut)).Msg("partprobe failed")
	}

	handle.Partition = fmt.Sprintf("%sp1", handle.Device)
	if err := waitForPartition(handle.Partition); err != nil {
		return nil, abortAttach(handle, err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, abortAttach(handle, err)
	}
	handle.Mountpoint = filepath.Join(os.TempDir(), fmt.Sprintf("valkforge-%s", id.String()))
	if err := os.MkdirAll(handle.Mountpoint, constants.DirPerm); err != nil {
		return nil, abortAttach(handle, err)
	}
	handle.addCleanup(func() error {
		return os.RemoveAll(handle.Mountpoint)
	})

	if err := unix.Mount(handle.Partition, handle.Mountpoint, layout.Filesystem.MountType, 0, ""); err != nil {
		return nil, abortAttach(handle, fmt.Errorf("mounting %s on %s: %w", handle.Partition, handle.Mountpoint, err))
	}
	handle.addCleanup(func() error {
		unix.Sync()
		if uErr := unix.Unmount(handle.Mountpoint, 0); uErr != nil {
			return fmt.Errorf("unmounting %s: %w", handle.Mountpoint, uErr)
		}
		return nil
	})

	internal.Log.Logger.Debug().Str("device", handle.Device).Str("mountpoint", handle.Mountpoint).Msg("Image attached")
	return handle, nil
}

// abortAttach releases whatever the partial attach acquired and folds any
// release failure into the original error message.
func abortAttach(handle *MountHandle, err error) error {
	if rErr := handle.Release(); rErr != nil {
		internal.Log.Logger.Warn().Err(rErr).Msg("Cleanup after failed attach reported errors")
	}
	return err
}

// waitForPartition polls for the partition device node. The kernel can take
// a moment to register loop partitions after losetup returns.
func waitForPartition(path string) error {
	for i := 0; i < constants.DeviceWaitAttempts; i++ {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		time.Sleep(constants.DeviceWaitDelayMs * time.Millisecond)
	}
	return fmt.Errorf("%w: %s did not appear after %d attempts", ErrDeviceNotReady, path, constants.DeviceWaitAttempts)
}

func (b *LoopbackBackend) Populate(spec ImageSpec, layout PartitionLayout, staging string, installBoot bool) error {
	handle, err := b.Attach(spec, layout)
	if err != nil {
		return err
	}
	defer func() {
		if rErr := handle.Release(); rErr != nil {
			internal.Log.Logger.Warn().Err(rErr).Msg("Releasing image reported errors")
		}
	}()

	internal.Log.Logger.Info().Str("staging", staging).Str("mountpoint", handle.Mountpoint).Msg("Populating image")
	if err := CopyStaging(staging, handle.Mountpoint, layout.Filesystem); err != nil {
		return err
	}
	if installBoot {
		return b.installGrub(handle)
	}
	return nil
}

// installGrub installs the BIOS bootloader onto the attached image's MBR,
// pointing GRUB's boot directory at the mounted partition.
func (b *LoopbackBackend) installGrub(handle *MountHandle) error {
	args := []string{
		"--target=i386-pc",
		fmt.Sprintf("--boot-directory=%s", filepath.Join(handle.Mountpoint, constants.BootDir)),
		"--recheck",
		handle.Device,
	}
	internal.Log.Logger.Info().Str("device", handle.Device).Msg("Installing bootloader")
	out, err := b.runner.Run("grub-install", args...)
	if err != nil {
		return newToolError("grub-install", args, out, err)
	}
	return nil
}
