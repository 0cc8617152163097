package schema

import (
	"fmt"
	"path/filepath"

	"github.com/valkyrie-os/valkforge/pkg/constants"
)

// ArtifactName builds the final artifact file name from the base name, the
// profile and the architecture. The extension follows the target format.
func (t Target) ArtifactName(baseName string) string {
	if baseName == "" {
		baseName = t.Name
	}
	ext := "img"
	if t.Format == constants.FormatISO {
		ext = "iso"
	}
	return fmt.Sprintf("%s_%s_%s.%s", baseName, t.Profile, t.Arch, ext)
}

// ArtifactPath returns the artifact's full output path.
func (t Target) ArtifactPath(baseName string) string {
	return filepath.Join(t.OutputDir, t.ArtifactName(baseName))
}

// IsISO reports whether the target produces an ISO instead of a raw image.
func (t Target) IsISO() bool {
	return t.Format == constants.FormatISO
}
