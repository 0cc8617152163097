package utils

import (
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/twpayne/go-vfs/v5"

	"github.com/valkyrie-os/valkforge/internal"
	"github.com/valkyrie-os/valkforge/pkg/constants"
)

// ReadRelease reads the optional etc/valkyrie-release file from a staging
// tree. The file uses env format (KEY=value). A missing file is not an
// error, it simply yields an empty map.
func ReadRelease(fs vfs.FS, staging string) (map[string]string, error) {
	path := filepath.Join(staging, constants.ReleaseFile)
	if ok, _ := Exists(fs, path); !ok {
		return map[string]string{}, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	release, err := godotenv.Parse(f)
	if err != nil {
		internal.Log.Logger.Error().Err(err).Str("file", path).Msg("failed to parse release file")
		return nil, err
	}
	return release, nil
}

// NameFromStaging returns the artifact base name for a staging tree,
// preferring the NAME and VERSION of its release file over the fallback.
func NameFromStaging(fs vfs.FS, staging, fallback string) string {
	release, err := ReadRelease(fs, staging)
	if err != nil || release["NAME"] == "" {
		return fallback
	}
	name := release["NAME"]
	if release["VERSION"] != "" {
		name = name + "-" + release["VERSION"]
	}
	internal.Log.Logger.Debug().Str("name", name).Str("staging", staging).Msg("Got artifact name from release file")
	return name
}
