package cmd

import (
	"errors"
	"os"

	"github.com/kairos-io/kairos-sdk/types/logger"
	"github.com/spectrocloud-labs/herd"
	"github.com/urfave/cli/v2"

	"github.com/valkyrie-os/valkforge/builder"
	"github.com/valkyrie-os/valkforge/internal"
	"github.com/valkyrie-os/valkforge/internal/config"
	"github.com/valkyrie-os/valkforge/pkg/constants"
)

func GetApp(version string) *cli.App {
	return &cli.App{
		Name:     "valkforge",
		Version:  version,
		Usage:    "valkforge",
		Commands: []*cli.Command{&BuildDiskCmd, &BuildISOCmd, &RunCmd},
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name: "set",
			},
			&cli.BoolFlag{
				Name: "debug",
			},
		},
		Description: "valkforge assembles bootable Valkyrie OS artifacts: partitioned raw disk images and El-Torito ISOs, built from a staging directory tree.",
		UsageText:   ``,
		Action: func(ctx *cli.Context) error {
			prepareLogger(ctx)

			c, err := config.ReadConfig(ctx.Args().First(), ctx.StringSlice("set"))
			if err != nil {
				return err
			}
			if c.Backend == constants.BackendLoopback {
				if err := CheckRoot(); err != nil {
					return err
				}
			}

			b, err := builder.NewBuilder(*c, herd.CollectOrphans)
			if err != nil {
				return err
			}
			if err := builder.RegisterAll(b); err != nil {
				return err
			}

			b.WriteDag()
			if err := b.Run(ctx.Context); err != nil {
				return err
			}

			return b.CollectErrors()
		},
	}
}

func prepareLogger(ctx *cli.Context) {
	internal.Log = logger.NewKairosLogger("valkforge", "info", false)
	if ctx.Bool("debug") {
		internal.Log.SetLevel("debug")
	}
}

// CheckRoot is a helper which can add it to commands that require root
func CheckRoot() error {
	if os.Geteuid() != 0 {
		return errors.New("this command requires root privileges")
	}
	return nil
}
