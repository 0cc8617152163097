package ops

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	process "github.com/mudler/go-processmanager"
	"github.com/phayes/freeport"

	"github.com/valkyrie-os/valkforge/internal"
	"github.com/valkyrie-os/valkforge/pkg/arch"
)

const (
	DefaultQemuMemory = "4G"
	DefaultQemuSMP    = 1

	MediaDisk   = "disk"
	MediaFloppy = "floppy"
	MediaCdrom  = "cdrom"
)

// QemuOptions configures a single emulator launch.
type QemuOptions struct {
	Media  string
	Image  string
	Memory string
	SMP    int
	// Gdb freezes the CPU at startup and opens a gdb stub on a free TCP
	// port.
	Gdb bool
	// Detach runs the emulator in the background under a state
	// directory instead of taking over the terminal.
	Detach    bool
	StateDir  string
	ExtraArgs []string
}

// BuildQemuArgs assembles the emulator argument list for the given
// architecture. It returns the args and the gdb port when one was opened,
// or 0.
func BuildQemuArgs(cfg arch.Config, opts QemuOptions) ([]string, int, error) {
	memory := opts.Memory
	if memory == "" {
		memory = DefaultQemuMemory
	}
	smp := opts.SMP
	if smp == 0 {
		smp = DefaultQemuSMP
	}

	args := []string{
		"-m", memory,
		"-machine", cfg.QemuMachine,
		"-smp", strconv.Itoa(smp),
		"-debugcon", "stdio",
	}

	switch opts.Media {
	case MediaFloppy:
		args = append(args, "-fda", opts.Image)
	case MediaDisk:
		args = append(args, "-drive", fmt.Sprintf("file=%s,format=raw,if=ide,index=0,media=disk", opts.Image))
	case MediaCdrom:
		args = append(args, "-cdrom", opts.Image)
	default:
		return nil, 0, fmt.Errorf("unknown media type %q, supported: %s, %s, %s",
			opts.Media, MediaDisk, MediaFloppy, MediaCdrom)
	}

	gdbPort := 0
	if opts.Gdb {
		port, err := freeport.GetFreePort()
		if err != nil {
			return nil, 0, fmt.Errorf("finding a free gdb port: %w", err)
		}
		gdbPort = port
		args = append(args, "-gdb", fmt.Sprintf("tcp::%d", port), "-S")
	}

	return append(args, opts.ExtraArgs...), gdbPort, nil
}

// RunQemu launches the emulator for the given architecture. In the default
// foreground mode it hands the terminal to the emulator and blocks until it
// exits; with Detach set it runs under go-processmanager with stdout and
// stderr captured in the state directory.
func RunQemu(cfg arch.Config, opts QemuOptions) error {
	args, gdbPort, err := BuildQemuArgs(cfg, opts)
	if err != nil {
		return err
	}
	if gdbPort != 0 {
		internal.Log.Logger.Info().Int("port", gdbPort).Msg("CPU frozen at startup, gdb stub listening")
	}

	if !opts.Detach {
		internal.Log.Logger.Info().Str("emulator", cfg.QemuSystem).Strs("args", args).Msg("Starting emulator")
		cmd := exec.Command(cfg.QemuSystem, args...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}

	p := process.New(
		process.WithName(cfg.QemuSystem),
		process.WithArgs(args...),
		process.WithStateDir(opts.StateDir),
	)
	if err := p.Run(); err != nil {
		return fmt.Errorf("starting emulator: %w", err)
	}
	internal.Log.Logger.Info().Str("state", opts.StateDir).Str("stdout", p.StdoutPath()).Msg("Emulator running in background")
	return nil
}
