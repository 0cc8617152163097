package schema

import (
	"fmt"
	"path/filepath"

	"github.com/valkyrie-os/valkforge/pkg/constants"
)

// Config represents the valkforge
// build configuration
type Config struct {
	// State directory for intermediate files and emulator state
	State string `yaml:"state_dir"`

	// Backend selects how images are prepared: auto, loopback or
	// guestfish
	Backend string `yaml:"backend"`

	// Targets are the images to build
	Targets []Target `yaml:"targets"`
}

// Target describes one image to assemble.
type Target struct {
	// Name is the artifact base name, overridden by the staging tree's
	// release file when present
	Name string `yaml:"name"`

	// Profile tag folded into the artifact name (release, debug, ...)
	Profile string `yaml:"profile"`

	Arch string `yaml:"arch"`

	// Format of the artifact: hd or iso
	Format string `yaml:"format"`

	// Filesystem for hd images: fat12, fat16, fat32 or ext2
	Filesystem string `yaml:"filesystem"`

	// Size of the raw image, e.g. 64M, 1.5G
	Size string `yaml:"size"`

	// PartitionStart sector, 0 means the default 2048
	PartitionStart uint64 `yaml:"partition_start"`

	// ReservedSectors requested for FAT filesystems, before the
	// per-variant adjustment
	ReservedSectors uint `yaml:"reserved_sectors"`

	Label string `yaml:"label"`

	// Staging directory whose contents become the image
	Staging string `yaml:"staging"`

	// OutputDir receives the finished artifact
	OutputDir string `yaml:"output_dir"`

	// ToolchainPrefix locates the cross toolchain whose sysroot C
	// library is copied into the image. Empty skips the copy.
	ToolchainPrefix string `yaml:"toolchain_prefix"`

	// SkipBootloader leaves the hd image without a bootloader
	SkipBootloader bool `yaml:"skip_bootloader"`

	// Compress writes an additional zstd-compressed artifact
	Compress bool `yaml:"compress"`
}

func (c Config) StateDir(s ...string) string {
	d := "/tmp"
	if c.State != "" {
		d = c.State
	}

	return filepath.Join(append([]string{d}, s...)...)
}

// Sanitize applies defaults and validates the parts that do not need any
// tool or filesystem access.
func (c *Config) Sanitize() error {
	if c.Backend == "" {
		c.Backend = constants.BackendAuto
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("no targets configured")
	}
	seen := map[string]bool{}
	for i := range c.Targets {
		t := &c.Targets[i]
		t.applyDefaults()
		if t.Staging == "" {
			return fmt.Errorf("target %q has no staging directory", t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate target name %q", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

func (t *Target) applyDefaults() {
	if t.Name == "" {
		t.Name = "valkyrie"
	}
	if t.Profile == "" {
		t.Profile = "release"
	}
	if t.Arch == "" {
		t.Arch = "i686"
	}
	if t.Format == "" {
		t.Format = constants.FormatHD
	}
	if t.Filesystem == "" {
		t.Filesystem = "fat32"
	}
	if t.Size == "" {
		t.Size = "64M"
	}
	if t.Label == "" {
		t.Label = constants.DefaultLabel
	}
	if t.OutputDir == "" {
		t.OutputDir = "."
	}
}
