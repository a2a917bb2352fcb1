// Package runtime defines the contract between the launcher and a
// container engine.
package runtime

import "context"

// BuildOptions defines the parameters for building an image from a local
// build specification.
type BuildOptions struct {
	// ContextDir is the build context directory containing the Dockerfile.
	ContextDir string
	// Dockerfile is the build specification file name, relative to ContextDir.
	Dockerfile string
	// Ref is the name:tag the built image is tagged with.
	Ref string
	// NoCache disables the builder's layer cache.
	NoCache bool
}

// RunOptions defines the parameters for one interactive, ephemeral run.
type RunOptions struct {
	// Image is the name:tag of the image to run. It must exist locally.
	Image string
	// Args is the contained process's argument vector, forwarded verbatim.
	Args []string
	// Name is the container name. Left empty, the runtime picks one.
	Name string
}

// ContainerRuntime defines the contract the launcher requires from the
// container engine: build an image, query local existence, and run an
// image interactively with guaranteed removal of the execution context.
type ContainerRuntime interface {
	BuildImage(ctx context.Context, opts BuildOptions) error
	ImageExists(ctx context.Context, ref string) (bool, error)

	// RunInteractive blocks until the contained process terminates and
	// returns its exit code. The execution context is removed on every
	// exit path, including cancellation.
	RunInteractive(ctx context.Context, opts RunOptions) (int, error)

	Close() error
}
