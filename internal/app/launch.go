// Package app orchestrates the launcher's two phases: resolve the image,
// then run it interactively. The sequence is strictly linear; a resolve
// failure means the run phase never starts.
package app

import (
	"context"
	"fmt"

	"telcat/internal/config"
	apperrors "telcat/internal/errors"
	"telcat/internal/resolver"
	"telcat/internal/runner"
	"telcat/internal/runtime"
	"telcat/internal/ui"
	"telcat/internal/workdir"
	"telcat/pkg/launch"
	runtimePkg "telcat/pkg/runtime"
)

// Launcher executes the resolve and run phases against a container
// runtime. It holds no state between invocations.
type Launcher struct {
	containerRuntime runtimePkg.ContainerRuntime
	cfg              *config.Config
	console          *ui.Console
}

// NewLauncher creates a Launcher on an already-connected runtime.
func NewLauncher(containerRuntime runtimePkg.ContainerRuntime, cfg *config.Config) *Launcher {
	return &Launcher{
		containerRuntime: containerRuntime,
		cfg:              cfg,
		console:          ui.NewConsole(),
	}
}

// Resolve ensures the target image exists per the mode policy and returns
// its reference.
func (l *Launcher) Resolve(ctx context.Context, mode launch.Mode) (launch.ImageRef, error) {
	ref := l.cfg.Ref()
	l.console.PrintStep(fmt.Sprintf("Resolving image %s (%s)", ref, mode))

	res := resolver.New(l.containerRuntime, ref, ".", l.cfg.Build.Dockerfile, l.cfg.Build.NoCache)
	resolved, err := res.Resolve(ctx, mode)
	if err != nil {
		return launch.ImageRef{}, apperrors.NewBuildError(
			fmt.Sprintf("Failed to resolve image %s", ref),
			err.Error(),
			"Check the Dockerfile next to the telcat executable and the build output above",
			err,
		)
	}

	return resolved, nil
}

// Launch resolves the image and runs it with args forwarded verbatim,
// returning the contained process's exit code.
func (l *Launcher) Launch(ctx context.Context, mode launch.Mode, args []string) (int, error) {
	ref, err := l.Resolve(ctx, mode)
	if err != nil {
		return -1, err
	}

	exitCode, err := runner.New(l.containerRuntime).Run(ctx, ref, args)
	if err != nil {
		return exitCode, apperrors.NewRunError(
			fmt.Sprintf("Failed to run image %s", ref),
			err.Error(),
			"The image may have been removed after the resolve step; retry to rebuild it",
			err,
		)
	}

	return exitCode, nil
}

// Launch wires the Docker runtime, repositions the working directory to
// the build-specification location, and runs the full sequence. The
// original working directory is restored on every exit path.
func Launch(ctx context.Context, cfg *config.Config, mode launch.Mode, args []string) (int, error) {
	launcher, cleanup, err := setup(cfg)
	if err != nil {
		return -1, err
	}
	defer cleanup()

	return launcher.Launch(ctx, mode, args)
}

// Build resolves the image without running it.
func Build(ctx context.Context, cfg *config.Config, mode launch.Mode) error {
	launcher, cleanup, err := setup(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ref, err := launcher.Resolve(ctx, mode)
	if err != nil {
		return err
	}

	launcher.console.PrintSuccess(fmt.Sprintf("Image %s is ready", ref))
	return nil
}

func setup(cfg *config.Config) (*Launcher, func(), error) {
	contextDir, err := cfg.ContextDir()
	if err != nil {
		return nil, nil, apperrors.NewFileSystemError(
			"Failed to locate the build specification directory",
			err.Error(),
			"",
			err,
		)
	}

	restore, err := workdir.Enter(contextDir)
	if err != nil {
		return nil, nil, apperrors.NewFileSystemError(
			fmt.Sprintf("Failed to enter the build specification directory %s", contextDir),
			err.Error(),
			"Ensure the directory exists and is accessible",
			err,
		)
	}

	dockerRuntime, err := runtime.NewDockerRuntime()
	if err != nil {
		restore()
		return nil, nil, apperrors.NewRuntimeUnavailableError(
			"Failed to connect to the container runtime",
			err.Error(),
			"Ensure Docker is installed and the daemon is running",
			err,
		)
	}

	cleanup := func() {
		_ = dockerRuntime.Close()
		restore()
	}

	return NewLauncher(dockerRuntime, cfg), cleanup, nil
}
