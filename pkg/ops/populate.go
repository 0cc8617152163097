package ops

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	cp "github.com/otiai10/copy"
	vfs "github.com/twpayne/go-vfs/v5"

	"github.com/valkyrie-os/valkforge/internal"
	"github.com/valkyrie-os/valkforge/pkg/arch"
	"github.com/valkyrie-os/valkforge/pkg/constants"
	"github.com/valkyrie-os/valkforge/pkg/utils"
)

// CheckCapacity fails with ErrInsufficientSpace when the staging tree's
// accumulated file size cannot fit the image. Filesystem metadata overhead
// is not accounted for, so this only catches the hopeless cases early.
func CheckCapacity(fsys vfs.FS, staging string, spec ImageSpec) error {
	used, err := utils.DirSize(fsys, staging)
	if err != nil {
		return err
	}
	if uint64(used) > spec.SizeBytes {
		return fmt.Errorf("%w: staging tree holds %d bytes, image holds %d", ErrInsufficientSpace, used, spec.SizeBytes)
	}
	return nil
}

// CopyStaging copies the staging tree into dst, adapting symlink handling to
// the target filesystem. On FAT every symlink is materialized as a copy of
// its resolved target; ext2 keeps them as links.
func CopyStaging(staging, dst string, fsKind FilesystemKind) error {
	if fsKind.SupportsSymlinks {
		return cp.Copy(staging, dst, cp.Options{
			OnSymlink:     func(string) cp.SymlinkAction { return cp.Shallow },
			PreserveTimes: true,
		})
	}

	if err := checkSymlinksResolve(staging); err != nil {
		return err
	}
	return cp.Copy(staging, dst, cp.Options{
		OnSymlink: func(src string) cp.SymlinkAction {
			internal.Log.Logger.Warn().Str("path", src).Str("filesystem", fsKind.Name).Msg("Materializing symlink, target filesystem has no symlink support")
			return cp.Deep
		},
		PreserveTimes: true,
	})
}

// checkSymlinksResolve walks the tree and fails on any symlink whose target
// cannot be resolved. Materializing a dangling link has no sane meaning.
func checkSymlinksResolve(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&os.ModeSymlink == 0 {
			return nil
		}
		if _, sErr := os.Stat(path); sErr != nil {
			return fmt.Errorf("%w: symlink %s does not resolve", ErrUnsupportedFeature, path)
		}
		return nil
	})
}

// CopySysroot copies the toolchain C library and startup objects into the
// staging tree's lib directory, and duplicates libc.so under the dynamic
// linker name since the image filesystem may not support symlinks. A missing
// sysroot is only a warning: kernel-only images boot fine without it.
func CopySysroot(staging, toolchainPrefix string, cfg arch.Config) error {
	sysrootLib := filepath.Join(toolchainPrefix, cfg.TargetTriple, "sysroot", "usr", "lib")
	if _, err := os.Stat(sysrootLib); err != nil {
		internal.Log.Logger.Warn().Str("path", sysrootLib).Msg("Toolchain sysroot not found, skipping C library")
		return nil
	}

	targetLib := filepath.Join(staging, "lib")
	if err := os.MkdirAll(targetLib, constants.DirPerm); err != nil {
		return err
	}

	for _, name := range append([]string{"libc.so"}, constants.CrtFiles...) {
		src := filepath.Join(sysrootLib, name)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := utils.CopyFile(vfs.OSFS, src, targetLib); err != nil {
			return fmt.Errorf("copying %s: %w", name, err)
		}
	}

	libc := filepath.Join(targetLib, "libc.so")
	if _, err := os.Stat(libc); err == nil {
		internal.Log.Logger.Debug().Str("linker", cfg.LdMuslName).Msg("Duplicating libc.so as dynamic linker")
		if err := utils.CopyFile(vfs.OSFS, libc, filepath.Join(targetLib, cfg.LdMuslName)); err != nil {
			return fmt.Errorf("copying dynamic linker: %w", err)
		}
	}
	return nil
}
