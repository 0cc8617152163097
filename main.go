package main

import (
	"os"

	"github.com/valkyrie-os/valkforge/internal"
	"github.com/valkyrie-os/valkforge/internal/cmd"
)

var version = "v0.0.0-dev"

func main() {
	if err := cmd.GetApp(version).Run(os.Args); err != nil {
		internal.Log.Logger.Fatal().Err(err).Msg("build failed")
	}
}
