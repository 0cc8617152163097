package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/valkyrie-os/valkforge/builder"
	"github.com/valkyrie-os/valkforge/pkg/arch"
	"github.com/valkyrie-os/valkforge/pkg/constants"
	"github.com/valkyrie-os/valkforge/pkg/ops"
	"github.com/valkyrie-os/valkforge/pkg/schema"
)

var BuildDiskCmd = cli.Command{
	Name:    "build-disk",
	Aliases: []string{"d"},
	Usage:   "Builds a partitioned, bootable raw disk image from a staging directory",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "staging",
			Aliases:  []string{"s"},
			Usage:    "Directory whose contents become the image",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "Basename of the generated image file",
		},
		&cli.StringFlag{
			Name:  "profile",
			Value: "release",
			Usage: "Profile tag folded into the artifact name",
		},
		&cli.StringFlag{
			Name:    "arch",
			Aliases: []string{"a"},
			Value:   "i686",
			Usage:   fmt.Sprintf("Arch to build the image for [%s]", strings.Join(arch.Supported(), ", ")),
		},
		&cli.StringFlag{
			Name:    "filesystem",
			Aliases: []string{"f"},
			Value:   "fat32",
			Usage:   fmt.Sprintf("Filesystem for the partition [%s]", strings.Join(ops.SupportedFilesystems(), ", ")),
		},
		&cli.StringFlag{
			Name:  "size",
			Value: "64M",
			Usage: "Image size, e.g. 64M, 1.5G",
		},
		&cli.Uint64Flag{
			Name:  "partition-start",
			Usage: "First sector of the partition (defaults to 2048)",
		},
		&cli.UintFlag{
			Name:  "reserved-sectors",
			Usage: "Reserved sector count for FAT filesystems",
		},
		&cli.StringFlag{
			Name:  "label",
			Value: constants.DefaultLabel,
			Usage: "Volume label",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Value:   ".",
			Usage:   "Output directory (defaults to current directory)",
		},
		&cli.StringFlag{
			Name:  "backend",
			Value: constants.BackendAuto,
			Usage: "Image preparation backend [auto, loopback, guestfish]",
		},
		&cli.StringFlag{
			Name:  "toolchain-prefix",
			Usage: "Cross toolchain prefix whose sysroot C library is copied into the image",
		},
		&cli.BoolFlag{
			Name:  "skip-bootloader",
			Usage: "Leave the image without a bootloader",
		},
		&cli.BoolFlag{
			Name:  "compress",
			Usage: "Also write a zstd-compressed artifact",
		},
	},
	Before: func(ctx *cli.Context) error {
		// The loopback backend mounts through real loop devices.
		if ctx.String("backend") == constants.BackendLoopback {
			if err := CheckRoot(); err != nil {
				return err
			}
		}
		// Ops may run from other directories, pin the staging path down.
		absolutePath, err := filepath.Abs(ctx.String("staging"))
		if err != nil {
			return err
		}
		viper.Set("staging", absolutePath)
		return nil
	},
	Action: func(ctx *cli.Context) error {
		prepareLogger(ctx)

		c := schema.Config{
			Backend: ctx.String("backend"),
			Targets: []schema.Target{
				{
					Name:            ctx.String("name"),
					Profile:         ctx.String("profile"),
					Arch:            ctx.String("arch"),
					Format:          constants.FormatHD,
					Filesystem:      ctx.String("filesystem"),
					Size:            ctx.String("size"),
					PartitionStart:  ctx.Uint64("partition-start"),
					ReservedSectors: ctx.Uint("reserved-sectors"),
					Label:           ctx.String("label"),
					Staging:         viper.GetString("staging"),
					OutputDir:       ctx.String("output"),
					ToolchainPrefix: ctx.String("toolchain-prefix"),
					SkipBootloader:  ctx.Bool("skip-bootloader"),
					Compress:        ctx.Bool("compress"),
				},
			},
		}

		b, err := builder.NewBuilder(c)
		if err != nil {
			return err
		}
		if err := builder.RegisterAll(b); err != nil {
			return err
		}

		if err := b.Run(ctx.Context); err != nil {
			return err
		}

		return b.CollectErrors()
	},
}
