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
	"github.com/valkyrie-os/valkforge/pkg/schema"
)

var BuildISOCmd = cli.Command{
	Name:    "build-iso",
	Aliases: []string{"b"},
	Usage:   "Builds a bootable ISO from a staging directory",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "staging",
			Aliases:  []string{"s"},
			Usage:    "Directory whose contents become the ISO",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "Basename of the generated ISO file",
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
			Name:  "label",
			Value: constants.DefaultLabel,
			Usage: "Label of the ISO volume",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Value:   ".",
			Usage:   "Output directory (defaults to current directory)",
		},
		&cli.StringFlag{
			Name:  "toolchain-prefix",
			Usage: "Cross toolchain prefix whose sysroot C library is copied into the staging tree",
		},
		&cli.BoolFlag{
			Name:  "skip-bootloader",
			Usage: "Never generate a default grub config; staging without one yields a non-bootable ISO",
		},
		&cli.BoolFlag{
			Name:  "compress",
			Usage: "Also write a zstd-compressed artifact",
		},
	},
	Before: func(ctx *cli.Context) error {
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
			Targets: []schema.Target{
				{
					Name:            ctx.String("name"),
					Profile:         ctx.String("profile"),
					Arch:            ctx.String("arch"),
					Format:          constants.FormatISO,
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
