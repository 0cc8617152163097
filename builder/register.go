package builder

import (
	"github.com/valkyrie-os/valkforge/internal"
)

// RegisterAll registers the op dag for every configured target. Each target
// gets its own chain; the DAG runs independent targets in parallel.
func RegisterAll(b *Builder) error {
	for _, t := range b.Config.Targets {
		tb, err := b.resolve(t)
		if err != nil {
			return err
		}
		internal.Log.Logger.Info().Str("target", t.Name).Str("format", t.Format).Str("artifact", tb.artifact).Msg("Registering target")

		steps := []func(*targetBuild) error{b.StepPrepStaging}
		if t.IsISO() {
			steps = append(steps, b.StepEltorito, b.StepPackageISO)
		} else {
			steps = append(steps,
				b.StepAllocate,
				b.StepPartition,
				b.StepFormat,
				b.StepPopulate,
				b.StepVerify,
			)
		}
		steps = append(steps, b.StepCompress)

		for _, step := range steps {
			if err := step(tb); err != nil {
				return err
			}
		}
	}
	return nil
}
