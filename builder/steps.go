package builder

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spectrocloud-labs/herd"

	"github.com/valkyrie-os/valkforge/internal"
	"github.com/valkyrie-os/valkforge/pkg/constants"
	"github.com/valkyrie-os/valkforge/pkg/ops"
	"github.com/valkyrie-os/valkforge/pkg/utils"
)

func (b *Builder) StepPrepStaging(tb *targetBuild) error {
	return b.Add(opName(constants.OpPrepStaging, tb.target.Name), herd.WithCallback(
		func(ctx context.Context) error {
			return b.prepStaging(tb)
		},
	))
}

// prepStaging readies the staging tree: a default grub config unless the
// bootloader is skipped, and the toolchain C library when a prefix is set.
func (b *Builder) prepStaging(tb *targetBuild) error {
	if _, err := os.Stat(tb.target.Staging); err != nil {
		internal.Log.Logger.Error().Str("staging", tb.target.Staging).Msg("Staging directory not found")
		return err
	}
	if !tb.target.SkipBootloader {
		if err := ops.EnsureGrubConfig(tb.target.Staging, tb.target.Format); err != nil {
			return err
		}
	}
	if tb.target.ToolchainPrefix != "" {
		return ops.CopySysroot(tb.target.Staging, tb.target.ToolchainPrefix, tb.arch)
	}
	return nil
}

func (b *Builder) StepAllocate(tb *targetBuild) error {
	return b.Add(opName(constants.OpAllocate, tb.target.Name), herd.WithCallback(
		func(ctx context.Context) error {
			if err := utils.MkdirAll(b.fs, filepath.Dir(tb.spec.Path), constants.DirPerm); err != nil {
				return err
			}
			return ops.AllocateImage(tb.spec)
		},
	))
}

func (b *Builder) StepPartition(tb *targetBuild) error {
	return b.Add(opName(constants.OpPartition, tb.target.Name),
		herd.WithDeps(opName(constants.OpAllocate, tb.target.Name)),
		herd.WithCallback(func(ctx context.Context) error {
			return b.Backend.PartitionTable(tb.spec, tb.layout)
		}))
}

func (b *Builder) StepFormat(tb *targetBuild) error {
	return b.Add(opName(constants.OpFormat, tb.target.Name),
		herd.WithDeps(opName(constants.OpPartition, tb.target.Name)),
		herd.WithCallback(func(ctx context.Context) error {
			return b.Backend.Format(tb.spec, tb.layout, ops.FormatOptions{
				Label:           tb.target.Label,
				ReservedSectors: tb.target.ReservedSectors,
			})
		}))
}

func (b *Builder) StepPopulate(tb *targetBuild) error {
	return b.Add(opName(constants.OpPopulate, tb.target.Name),
		herd.WithDeps(
			opName(constants.OpFormat, tb.target.Name),
			opName(constants.OpPrepStaging, tb.target.Name),
		),
		herd.WithCallback(func(ctx context.Context) error {
			if err := ops.CheckCapacity(b.fs, tb.target.Staging, tb.spec); err != nil {
				return err
			}
			installBoot := !tb.target.SkipBootloader
			return b.Backend.Populate(tb.spec, tb.layout, tb.target.Staging, installBoot)
		}))
}

func (b *Builder) StepVerify(tb *targetBuild) error {
	return b.Add(opName(constants.OpVerify, tb.target.Name),
		herd.WithDeps(opName(constants.OpPopulate, tb.target.Name)),
		herd.WithCallback(func(ctx context.Context) error {
			return ops.VerifyImage(tb.spec, tb.layout)
		}))
}

func (b *Builder) StepEltorito(tb *targetBuild) error {
	return b.Add(opName(constants.OpEltorito, tb.target.Name),
		herd.WithDeps(opName(constants.OpPrepStaging, tb.target.Name)),
		herd.WithCallback(func(ctx context.Context) error {
			if !ops.HasGrubConfig(tb.target.Staging) {
				return nil
			}
			return ops.MakeEltorito(b.runner, tb.target.Staging)
		}))
}

func (b *Builder) StepPackageISO(tb *targetBuild) error {
	return b.Add(opName(constants.OpPackageISO, tb.target.Name),
		herd.WithDeps(opName(constants.OpEltorito, tb.target.Name)),
		herd.WithCallback(func(ctx context.Context) error {
			if err := utils.MkdirAll(b.fs, filepath.Dir(tb.artifact), constants.DirPerm); err != nil {
				return err
			}
			return ops.PackageISO(b.runner, tb.target.Staging, tb.artifact, tb.target.Label)
		}))
}

func (b *Builder) StepCompress(tb *targetBuild) error {
	dep := constants.OpVerify
	if tb.target.IsISO() {
		dep = constants.OpPackageISO
	}
	return b.Add(opName(constants.OpCompress, tb.target.Name),
		herd.EnableIf(func() bool { return tb.target.Compress }),
		herd.WithDeps(opName(dep, tb.target.Name)),
		herd.WithCallback(func(ctx context.Context) error {
			out, err := ops.CompressArtifact(tb.artifact)
			if err != nil {
				return err
			}
			internal.Log.Logger.Info().Str("artifact", out).Msg("Compressed artifact ready")
			return nil
		}))
}
