package ops

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInsufficientSpace is returned when the partition start offset
	// leaves no room for a single data sector.
	ErrInsufficientSpace = errors.New("partition offset leaves no usable sectors")

	// ErrUnsupportedFilesystem is returned for filesystem names outside
	// the supported set.
	ErrUnsupportedFilesystem = errors.New("unsupported filesystem")

	// ErrUnsupportedFeature is returned when the staging tree requires
	// something the target filesystem cannot represent, e.g. a symlink
	// whose target cannot be materialized on a FAT volume.
	ErrUnsupportedFeature = errors.New("unsupported feature for target filesystem")

	// ErrDeviceNotReady is returned when the partition device node does
	// not appear within the readiness poll budget after a loop attach.
	ErrDeviceNotReady = errors.New("partition device did not appear")
)

// ToolError wraps a failed external tool invocation, carrying the full
// combined output. These commands rewrite partition tables and filesystems,
// so the diagnostics are always surfaced to the user verbatim.
type ToolError struct {
	Tool   string
	Args   []string
	Output []byte
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s %s failed: %v\n%s", e.Tool, strings.Join(e.Args, " "), e.Err, string(e.Output))
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func newToolError(tool string, args []string, output []byte, err error) *ToolError {
	return &ToolError{Tool: tool, Args: args, Output: output, Err: err}
}
