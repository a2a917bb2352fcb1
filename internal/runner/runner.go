// Package runner launches the resolved image interactively and reports
// the contained process's exit code.
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"telcat/pkg/launch"
	"telcat/pkg/runtime"
)

// Runner starts one ephemeral, terminal-attached execution context per Run
// call. The resolver's post-condition (the image exists locally) is this
// component's precondition.
type Runner struct {
	containerRuntime runtime.ContainerRuntime
}

// New creates a Runner on top of the given container runtime.
func New(containerRuntime runtime.ContainerRuntime) *Runner {
	return &Runner{containerRuntime: containerRuntime}
}

// Run executes the image with args forwarded verbatim and in order, and
// returns the contained process's exit code. The execution context is
// removed on every exit path.
func (r *Runner) Run(ctx context.Context, ref launch.ImageRef, args []string) (int, error) {
	if ref.IsZero() {
		return -1, fmt.Errorf("cannot run an unresolved image reference")
	}

	slog.Info("Running image", "ref", ref.String(), "argc", len(args))

	exitCode, err := r.containerRuntime.RunInteractive(ctx, runtime.RunOptions{
		Image: ref.String(),
		Args:  args,
	})
	if err != nil {
		return exitCode, fmt.Errorf("failed to run image %s: %w", ref, err)
	}

	slog.Info("Run completed", "ref", ref.String(), "exitCode", exitCode)
	return exitCode, nil
}
