// Package resolver guarantees that the launcher's image reference exists
// in the local image store before anything is run from it.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"telcat/pkg/launch"
	"telcat/pkg/runtime"
)

// Resolver ensures the fixed image reference exists, building it from the
// local build specification when the policy requires it.
type Resolver struct {
	containerRuntime runtime.ContainerRuntime
	ref              launch.ImageRef
	contextDir       string
	dockerfile       string
	noCache          bool
}

// New creates a Resolver for the given target reference. contextDir is
// the build specification directory; dockerfile is the specification file
// name within it. noCache disables the builder's layer cache for every
// build the Resolver issues; the mode policy never touches the cache.
func New(containerRuntime runtime.ContainerRuntime, ref launch.ImageRef, contextDir, dockerfile string, noCache bool) *Resolver {
	return &Resolver{
		containerRuntime: containerRuntime,
		ref:              ref,
		contextDir:       contextDir,
		dockerfile:       dockerfile,
		noCache:          noCache,
	}
}

// Resolve applies the mode policy and returns the image reference, which
// is guaranteed to exist locally on a nil error. With BuildIfMissing an
// existing image is reused and no build runs; with AlwaysBuild a build is
// issued unconditionally, reusing cached layers where the builder can.
func (r *Resolver) Resolve(ctx context.Context, mode launch.Mode) (launch.ImageRef, error) {
	if mode == launch.BuildIfMissing {
		exists, err := r.containerRuntime.ImageExists(ctx, r.ref.String())
		if err != nil {
			return launch.ImageRef{}, fmt.Errorf("failed to check for image %s: %w", r.ref, err)
		}
		if exists {
			slog.Info("Image already exists, skipping build", "ref", r.ref.String())
			return r.ref, nil
		}
		slog.Info("Image not found locally, building it", "ref", r.ref.String())
	}

	if err := r.validateBuildSpec(); err != nil {
		return launch.ImageRef{}, err
	}

	if err := r.containerRuntime.BuildImage(ctx, runtime.BuildOptions{
		ContextDir: r.contextDir,
		Dockerfile: r.dockerfile,
		Ref:        r.ref.String(),
		NoCache:    r.noCache,
	}); err != nil {
		return launch.ImageRef{}, fmt.Errorf("failed to build image %s: %w", r.ref, err)
	}

	return r.ref, nil
}

// validateBuildSpec rejects a missing build specification before the
// context is shipped to the engine, for a clearer failure.
func (r *Resolver) validateBuildSpec() error {
	if _, err := os.Stat(r.contextDir); os.IsNotExist(err) {
		return fmt.Errorf("build context directory does not exist: %s", r.contextDir)
	}

	dockerfile := r.dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}
	specPath := filepath.Join(r.contextDir, dockerfile)
	if _, err := os.Stat(specPath); os.IsNotExist(err) {
		return fmt.Errorf("build specification not found: %s", specPath)
	}

	return nil
}
