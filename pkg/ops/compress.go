package ops

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/valkyrie-os/valkforge/internal"
)

// CompressArtifact writes a zstd-compressed copy of the artifact next to it
// with a .zst suffix and returns the compressed path. The uncompressed
// artifact is kept.
func CompressArtifact(path string) (string, error) {
	out := path + ".zst"
	internal.Log.Logger.Info().Str("source", path).Str("output", out).Msg("Compressing artifact")

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(out)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	enc, err := zstd.NewWriter(dst)
	if err != nil {
		return "", fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		os.Remove(out)
		return "", fmt.Errorf("compressing %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		os.Remove(out)
		return "", err
	}
	return out, nil
}
