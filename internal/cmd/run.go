package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/valkyrie-os/valkforge/pkg/arch"
	"github.com/valkyrie-os/valkforge/pkg/ops"
	"github.com/valkyrie-os/valkforge/pkg/schema"
)

var RunCmd = cli.Command{
	Name:      "run",
	Aliases:   []string{"r"},
	Usage:     "Runs a built artifact in the emulator",
	ArgsUsage: "<image>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "arch",
			Aliases: []string{"a"},
			Value:   "i686",
			Usage:   fmt.Sprintf("Arch to emulate [%s]", strings.Join(arch.Supported(), ", ")),
		},
		&cli.StringFlag{
			Name:  "media",
			Value: ops.MediaDisk,
			Usage: fmt.Sprintf("Media type of the image [%s, %s, %s]", ops.MediaDisk, ops.MediaFloppy, ops.MediaCdrom),
		},
		&cli.StringFlag{
			Name:    "memory",
			Aliases: []string{"m"},
			Value:   ops.DefaultQemuMemory,
			Usage:   "Memory size, e.g. 4G, 512M",
		},
		&cli.IntFlag{
			Name:  "smp",
			Value: ops.DefaultQemuSMP,
			Usage: "Number of CPU cores",
		},
		&cli.BoolFlag{
			Name:  "gdb",
			Usage: "Freeze the CPU at startup and open a gdb stub on a free port",
		},
		&cli.BoolFlag{
			Name:  "detach",
			Usage: "Run the emulator in the background",
		},
		&cli.StringFlag{
			Name:  "state-dir",
			Usage: "Base directory for detached run state (defaults to /tmp)",
		},
	},
	Action: func(ctx *cli.Context) error {
		prepareLogger(ctx)

		image := ctx.Args().First()
		if image == "" {
			return fmt.Errorf("no image given")
		}
		cfg, err := arch.Get(ctx.String("arch"))
		if err != nil {
			return err
		}
		state := schema.Config{State: ctx.String("state-dir")}.StateDir("valkforge-qemu")

		return ops.RunQemu(cfg, ops.QemuOptions{
			Media:    ctx.String("media"),
			Image:    image,
			Memory:   ctx.String("memory"),
			SMP:      ctx.Int("smp"),
			Gdb:      ctx.Bool("gdb"),
			Detach:   ctx.Bool("detach"),
			StateDir: state,
		})
	},
}
