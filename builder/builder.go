package builder

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/kairos-io/kairos-sdk/types/runner"
	"github.com/spectrocloud-labs/herd"
	vfs "github.com/twpayne/go-vfs/v5"

	"github.com/valkyrie-os/valkforge/internal"
	"github.com/valkyrie-os/valkforge/pkg/arch"
	"github.com/valkyrie-os/valkforge/pkg/ops"
	"github.com/valkyrie-os/valkforge/pkg/schema"
	"github.com/valkyrie-os/valkforge/pkg/utils"
)

// Builder drives the image assembly DAG. Each target contributes its own op
// chain, so independent targets build concurrently.
type Builder struct {
	*herd.Graph
	Config  schema.Config
	Backend ops.Backend

	runner runner.Runner
	fs     vfs.FS
}

// NewBuilder validates the configuration, picks the image backend and
// prepares an empty DAG.
func NewBuilder(config schema.Config, opts ...herd.GraphOption) (*Builder, error) {
	if err := config.Sanitize(); err != nil {
		return nil, err
	}

	runner := &utils.RealRunner{}
	b := &Builder{
		Graph:  herd.DAG(opts...),
		Config: config,
		runner: runner,
		fs:     vfs.OSFS,
	}

	// The backend only matters when a raw image has to be prepared.
	for _, t := range config.Targets {
		if !t.IsISO() {
			backend, err := ops.DetectBackend(config.Backend, runner)
			if err != nil {
				return nil, err
			}
			internal.Log.Logger.Info().Str("backend", backend.Name()).Msg("Selected image backend")
			b.Backend = backend
			break
		}
	}
	return b, nil
}

// targetBuild carries the per-target state resolved once at registration so
// size or architecture mistakes surface before any op runs.
type targetBuild struct {
	target   schema.Target
	arch     arch.Config
	fsKind   ops.FilesystemKind
	spec     ops.ImageSpec
	layout   ops.PartitionLayout
	artifact string
}

// resolve turns a raw target into a fully validated build plan.
func (b *Builder) resolve(t schema.Target) (*targetBuild, error) {
	archCfg, err := arch.Get(t.Arch)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", t.Name, err)
	}

	baseName := utils.NameFromStaging(b.fs, t.Staging, t.Name)
	tb := &targetBuild{
		target:   t,
		arch:     archCfg,
		artifact: t.ArtifactPath(baseName),
	}
	if t.IsISO() {
		return tb, nil
	}

	tb.fsKind, err = ops.ParseFilesystem(t.Filesystem)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", t.Name, err)
	}
	size, err := utils.ParseSize(t.Size)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", t.Name, err)
	}
	tb.spec, err = ops.NewImageSpec(tb.artifact, size)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", t.Name, err)
	}
	tb.layout, err = ops.NewPartitionLayout(tb.spec, t.PartitionStart, tb.fsKind)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", t.Name, err)
	}
	return tb, nil
}

// opName scopes an op name to a target so concurrent targets never collide
// in the DAG.
func opName(op, target string) string {
	return fmt.Sprintf("%s-%s", op, target)
}

// WriteDag prints the analyzed op graph, layer by layer.
func (b *Builder) WriteDag() {
	for i, layer := range b.Analyze() {
		internal.Log.Logger.Info().Msgf("%d.", i+1)
		for _, op := range layer {
			if op.Error != nil {
				internal.Log.Logger.Info().Msgf(" <%s> (error: %s) (background: %t)", op.Name, op.Error.Error(), op.Background)
			} else {
				internal.Log.Logger.Info().Msgf(" <%s> (background: %t)", op.Name, op.Background)
			}
		}
	}
}

// Run executes the registered DAG.
func (b *Builder) Run(ctx context.Context) error {
	return b.Graph.Run(ctx)
}

// CollectErrors walks the executed graph and folds every op failure into a
// single error.
func (b *Builder) CollectErrors() error {
	var result *multierror.Error
	for _, layer := range b.Analyze() {
		for _, op := range layer {
			if op.Error != nil {
				result = multierror.Append(result, fmt.Errorf("op %s failed: %w", op.Name, op.Error))
			}
		}
	}
	return result.ErrorOrNil()
}
