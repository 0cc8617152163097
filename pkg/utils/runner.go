package utils

import (
	"os/exec"

	"github.com/kairos-io/kairos-sdk/types/logger"
	"github.com/kairos-io/kairos-sdk/types/runner"

	"github.com/valkyrie-os/valkforge/internal"
)

// RealRunner shells out to the host tools. It returns the combined
// stdout/stderr even when the tool fails, so callers can surface the full
// diagnostics of destructive commands.
type RealRunner struct {
	Logger *logger.KairosLogger
}

var _ runner.Runner = (*RealRunner)(nil)

func (r RealRunner) InitCmd(command string, args ...string) *exec.Cmd {
	return exec.Command(command, args...)
}

func (r RealRunner) Run(command string, args ...string) ([]byte, error) {
	r.log().Logger.Debug().Str("command", command).Strs("args", args).Msg("Running command")
	return r.RunCmd(r.InitCmd(command, args...))
}

func (r RealRunner) RunCmd(cmd *exec.Cmd) ([]byte, error) {
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.log().Logger.Debug().Str("command", cmd.Path).Str("output", string(out)).Msg("Command failed")
	}
	return out, err
}

func (r RealRunner) GetLogger() *logger.KairosLogger {
	return r.Logger
}

func (r *RealRunner) SetLogger(l *logger.KairosLogger) {
	r.Logger = l
}

func (r RealRunner) log() *logger.KairosLogger {
	if r.Logger != nil {
		return r.Logger
	}
	return &internal.Log
}

// FakeRunner records invocations and plays back canned results. Test helper.
type FakeRunner struct {
	// Commands holds every invocation, command name first.
	Commands [][]string
	// Outputs maps a command name to its returned output.
	Outputs map[string][]byte
	// Errors maps a command name to the error it should fail with.
	Errors map[string]error
	// SideEffect, when set, takes over the result computation entirely.
	SideEffect func(command string, args ...string) ([]byte, error)
}

var _ runner.Runner = (*FakeRunner)(nil)

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Outputs: map[string][]byte{},
		Errors:  map[string]error{},
	}
}

func (r *FakeRunner) InitCmd(command string, args ...string) *exec.Cmd {
	return exec.Command(command, args...)
}

func (r *FakeRunner) Run(command string, args ...string) ([]byte, error) {
	r.Commands = append(r.Commands, append([]string{command}, args...))
	if r.SideEffect != nil {
		return r.SideEffect(command, args...)
	}
	return r.Outputs[command], r.Errors[command]
}

func (r *FakeRunner) RunCmd(cmd *exec.Cmd) ([]byte, error) {
	return r.Run(cmd.Path, cmd.Args[1:]...)
}

func (r *FakeRunner) GetLogger() *logger.KairosLogger {
	return nil
}

func (r *FakeRunner) SetLogger(*logger.KairosLogger) {}

// CmdsFor returns the recorded invocations of the given command.
func (r *FakeRunner) CmdsFor(command string) [][]string {
	var matched [][]string
	for _, c := range r.Commands {
		if c[0] == command {
			matched = append(matched, c)
		}
	}
	return matched
}
