package ops

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/hashicorp/go-multierror"
	"github.com/kairos-io/kairos-sdk/types/runner"

	"github.com/valkyrie-os/valkforge/internal"
	"github.com/valkyrie-os/valkforge/pkg/constants"
)

// FormatOptions carries the formatter knobs shared by both backends.
type FormatOptions struct {
	Label string
	// ReservedSectors is the requested reserved sector base count for FAT
	// filesystems, before the per-variant adjustment.
	ReservedSectors uint
}

// Backend prepares a raw image: partition table, filesystem, contents and
// optionally the bootloader. Implementations shell out to different tool
// stacks but expose the same contract so the pipeline picks one once and
// never branches again.
type Backend interface {
	Name() string
	// PartitionTable writes an MBR label and a single bootable primary
	// partition described by layout.
	PartitionTable(spec ImageSpec, layout PartitionLayout) error
	// Format creates the filesystem inside the partition.
	Format(spec ImageSpec, layout PartitionLayout, opts FormatOptions) error
	// Populate copies the staging tree into the partition. When
	// installBoot is set the bootloader is installed in the same
	// attach session; backends that cannot do this return
	// ErrUnsupportedFeature and leave the image populated.
	Populate(spec ImageSpec, layout PartitionLayout, staging string, installBoot bool) error
}

// MountHandle tracks an attached image so its resources can be released
// exactly once, in reverse order, even after partial failures.
type MountHandle struct {
	Device     string
	Partition  string
	Mountpoint string

	cleanups []func() error
	released bool
}

func (h *MountHandle) addCleanup(fn func() error) {
	h.cleanups = append(h.cleanups, fn)
}

// Release tears down the mount, detaches the device and removes the
// mountpoint. It is idempotent and collects every teardown failure instead
// of stopping at the first one.
func (h *MountHandle) Release() error {
	if h == nil || h.released {
		return nil
	}
	h.released = true
	var result *multierror.Error
	for i := len(h.cleanups) - 1; i >= 0; i-- {
		if err := h.cleanups[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// DetectBackend picks the image preparation backend. An explicit preference
// is honored or fails; auto prefers loopback when running as root with
// losetup available and falls back to guestfish otherwise.
func DetectBackend(preference string, runner runner.Runner) (Backend, error) {
	switch preference {
	case constants.BackendLoopback:
		return NewLoopbackBackend(runner), nil
	case constants.BackendGuestfish:
		return NewGuestfishBackend(runner), nil
	case "", constants.BackendAuto:
	default:
		return nil, fmt.Errorf("unknown backend %q, supported: %s, %s, %s",
			preference, constants.BackendAuto, constants.BackendLoopback, constants.BackendGuestfish)
	}

	if os.Geteuid() == 0 {
		if _, err := exec.LookPath("losetup"); err == nil {
			internal.Log.Logger.Debug().Msg("Using loopback backend")
			return NewLoopbackBackend(runner), nil
		}
	}
	if _, err := exec.LookPath("guestfish"); err == nil {
		internal.Log.Logger.Debug().Msg("Using guestfish backend")
		return NewGuestfishBackend(runner), nil
	}
	return nil, fmt.Errorf("no usable backend: loopback needs root and losetup, guestfish not found in PATH")
}
