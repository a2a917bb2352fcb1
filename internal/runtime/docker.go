package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"golang.org/x/term"

	"telcat/pkg/runtime"
)

const (
	// containerNamePrefix marks every execution context created by telcat.
	containerNamePrefix = "telcat-run-"

	// removeTimeout bounds the forced removal of an execution context.
	removeTimeout = 10 * time.Second

	// stopGracePeriod is how long a signaled container gets to exit on
	// its own before the forced removal tears it down.
	stopGracePeriod = 3 * time.Second
)

// dockerAPI is the slice of the Docker client the runtime uses.
type dockerAPI interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerAttach(ctx context.Context, containerID string, options container.AttachOptions) (types.HijackedResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerKill(ctx context.Context, containerID, signal string) error
	ContainerResize(ctx context.Context, containerID string, options container.ResizeOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	Close() error
}

// DockerRuntime implements the ContainerRuntime interface using the Docker client.
type DockerRuntime struct {
	client dockerAPI
}

// NewDockerRuntime creates a new DockerRuntime instance using client.FromEnv.
// It pings the daemon so an unavailable engine is detected before any
// resolve or run work starts.
func NewDockerRuntime() (*DockerRuntime, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := dockerClient.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}

	return &DockerRuntime{
		client: dockerClient,
	}, nil
}

// Close releases the underlying Docker client.
func (d *DockerRuntime) Close() error {
	return d.client.Close()
}

// BuildImage builds an image from a local build context and tags it.
func (d *DockerRuntime) BuildImage(ctx context.Context, opts runtime.BuildOptions) error {
	dockerfile := opts.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}

	slog.Info("Building image", "ref", opts.Ref, "contextDir", opts.ContextDir, "dockerfile", dockerfile)

	buildCtx, err := archive.TarWithOptions(opts.ContextDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("failed to archive build context %s: %w", opts.ContextDir, err)
	}
	defer buildCtx.Close()

	resp, err := d.client.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{opts.Ref},
		Dockerfile: dockerfile,
		NoCache:    opts.NoCache,
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to build image %s: %w", opts.Ref, err)
	}
	defer resp.Body.Close()

	// Build progress goes to stderr; stdout stays clean for the run phase.
	errFd := os.Stderr.Fd()
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, os.Stderr, errFd, term.IsTerminal(int(errFd)), nil); err != nil {
		var jsonErr *jsonmessage.JSONError
		if errors.As(err, &jsonErr) {
			return fmt.Errorf("image build failed: %s", jsonErr.Message)
		}
		return fmt.Errorf("failed to stream image build output: %w", err)
	}

	slog.Info("Successfully built image", "ref", opts.Ref)
	return nil
}

// ImageExists reports whether an image matching ref exists in the local
// image store. The reference filter matches the exact name:tag.
func (d *DockerRuntime) ImageExists(ctx context.Context, ref string) (bool, error) {
	images, err := d.client.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return false, fmt.Errorf("failed to query local images for %s: %w", ref, err)
	}
	return len(images) > 0, nil
}

// RunInteractive creates an ephemeral container from opts.Image, bridges
// the invoking terminal to it, and blocks until the contained process
// exits. The container is removed on every exit path.
func (d *DockerRuntime) RunInteractive(ctx context.Context, opts runtime.RunOptions) (int, error) {
	tty := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))

	name := opts.Name
	if name == "" {
		name = containerNamePrefix + uuid.NewString()
	}

	cfg := &container.Config{
		Image:        opts.Image,
		Cmd:          opts.Args,
		Tty:          tty,
		OpenStdin:    true,
		StdinOnce:    true,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
	}

	resp, err := d.client.ContainerCreate(ctx, cfg, &container.HostConfig{}, nil, nil, name)
	if err != nil {
		return -1, fmt.Errorf("failed to create container from %s: %w", opts.Image, err)
	}
	containerID := resp.ID
	defer d.removeContainer(containerID)

	attach, err := d.client.ContainerAttach(ctx, containerID, container.AttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return -1, fmt.Errorf("failed to attach to container: %w", err)
	}
	defer attach.Close()

	// Register the wait before starting so a fast exit is never missed.
	waitCh, waitErrCh := d.client.ContainerWait(ctx, containerID, container.WaitConditionNextExit)

	if err := d.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return -1, fmt.Errorf("failed to start container: %w", err)
	}

	slog.Info("Started container", "containerID", containerID, "name", name, "tty", tty)

	if tty {
		restore, err := d.rawTerminal(ctx, containerID)
		if err != nil {
			return -1, err
		}
		defer restore()
	}

	outputDone := make(chan error, 1)
	go func() {
		var copyErr error
		if tty {
			_, copyErr = io.Copy(os.Stdout, attach.Reader)
		} else {
			_, copyErr = stdcopy.StdCopy(os.Stdout, os.Stderr, attach.Reader)
		}
		outputDone <- copyErr
	}()

	go func() {
		_, _ = io.Copy(attach.Conn, os.Stdin)
		_ = attach.CloseWrite()
	}()

	select {
	case err := <-waitErrCh:
		return -1, fmt.Errorf("failed to wait for container: %w", err)
	case status := <-waitCh:
		// Drain the remaining output; the hijacked stream closes on exit.
		if copyErr := <-outputDone; copyErr != nil {
			slog.Debug("Container output stream ended with error", "containerID", containerID, "error", copyErr)
		}
		if status.Error != nil {
			return int(status.StatusCode), fmt.Errorf("container exited abnormally: %s", status.Error.Message)
		}
		return int(status.StatusCode), nil
	case <-ctx.Done():
		// Forward a catchable signal first; the deferred removal still
		// force-kills whatever is left before we return.
		d.signalContainer(containerID, "SIGTERM")
		select {
		case status := <-waitCh:
			return int(status.StatusCode), ctx.Err()
		case <-time.After(stopGracePeriod):
			return -1, ctx.Err()
		}
	}
}

// rawTerminal puts stdin into raw mode and keeps the container TTY sized
// to the invoking terminal. The returned func restores the terminal.
func (d *DockerRuntime) rawTerminal(ctx context.Context, containerID string) (func(), error) {
	fd := int(os.Stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to put terminal into raw mode: %w", err)
	}

	d.resizeTTY(ctx, containerID)

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	go func() {
		for range winch {
			d.resizeTTY(ctx, containerID)
		}
	}()

	return func() {
		signal.Stop(winch)
		close(winch)
		if err := term.Restore(fd, state); err != nil {
			slog.Error("Failed to restore terminal state", "error", err)
		}
	}, nil
}

func (d *DockerRuntime) resizeTTY(ctx context.Context, containerID string) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return
	}
	if err := d.client.ContainerResize(ctx, containerID, container.ResizeOptions{
		Height: uint(height),
		Width:  uint(width),
	}); err != nil {
		slog.Debug("Failed to resize container TTY", "containerID", containerID, "error", err)
	}
}

// signalContainer delivers sig to the contained process. It uses a fresh
// context because the run context is already canceled when this runs.
func (d *DockerRuntime) signalContainer(containerID, sig string) {
	ctx, cancel := context.WithTimeout(context.Background(), removeTimeout)
	defer cancel()

	if err := d.client.ContainerKill(ctx, containerID, sig); err != nil && !client.IsErrNotFound(err) {
		slog.Debug("Failed to signal container", "containerID", containerID, "signal", sig, "error", err)
	}
}

// removeContainer force-removes an execution context. It uses a fresh
// context so removal still happens after the run context is canceled.
func (d *DockerRuntime) removeContainer(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), removeTimeout)
	defer cancel()

	if err := d.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil && !client.IsErrNotFound(err) {
		slog.Error("Failed to remove container", "containerID", containerID, "error", err)
	}
}
