package runtime

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telcat/pkg/runtime"
)

// fakeDockerClient implements dockerAPI and records the lifecycle calls
// RunInteractive issues against the engine.
type fakeDockerClient struct {
	createdConfig *container.Config
	createdName   string
	started       []string
	killed        []string
	removed       []string
	removeOpts    []container.RemoveOptions

	waitCh    chan container.WaitResponse
	waitErrCh chan error
	// exitOnKill makes a signaled container report this exit code.
	exitOnKill *container.WaitResponse

	buildBody string
	buildOpts types.ImageBuildOptions
	images    []image.Summary
	listOpts  image.ListOptions
	closed    bool
}

func newFakeDockerClient() *fakeDockerClient {
	return &fakeDockerClient{
		waitCh:    make(chan container.WaitResponse, 1),
		waitErrCh: make(chan error, 1),
	}
}

func (f *fakeDockerClient) ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
	f.buildOpts = options
	return types.ImageBuildResponse{Body: io.NopCloser(strings.NewReader(f.buildBody))}, nil
}

func (f *fakeDockerClient) ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error) {
	f.listOpts = options
	return f.images, nil
}

func (f *fakeDockerClient) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error) {
	f.createdConfig = config
	f.createdName = containerName
	return container.CreateResponse{ID: "ctr-1"}, nil
}

func (f *fakeDockerClient) ContainerAttach(ctx context.Context, containerID string, options container.AttachOptions) (types.HijackedResponse, error) {
	server, clientConn := net.Pipe()
	// No output; the hijacked stream ends immediately.
	_ = server.Close()
	return types.HijackedResponse{Conn: clientConn, Reader: bufio.NewReader(clientConn)}, nil
}

func (f *fakeDockerClient) ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error {
	f.started = append(f.started, containerID)
	return nil
}

func (f *fakeDockerClient) ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	return f.waitCh, f.waitErrCh
}

func (f *fakeDockerClient) ContainerKill(ctx context.Context, containerID, signal string) error {
	f.killed = append(f.killed, signal)
	if f.exitOnKill != nil {
		f.waitCh <- *f.exitOnKill
	}
	return nil
}

func (f *fakeDockerClient) ContainerResize(ctx context.Context, containerID string, options container.ResizeOptions) error {
	return nil
}

func (f *fakeDockerClient) ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error {
	f.removed = append(f.removed, containerID)
	f.removeOpts = append(f.removeOpts, options)
	return nil
}

func (f *fakeDockerClient) Close() error {
	f.closed = true
	return nil
}

func TestRunInteractive_RemovesContainerOnExit(t *testing.T) {
	fake := newFakeDockerClient()
	fake.waitCh <- container.WaitResponse{StatusCode: 3}

	d := &DockerRuntime{client: fake}
	exitCode, err := d.RunInteractive(context.Background(), runtime.RunOptions{
		Image: "telcat:latest",
		Args:  []string{"example.com", "9000"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, exitCode)

	require.Equal(t, []string{"ctr-1"}, fake.removed)
	assert.True(t, fake.removeOpts[0].Force)

	require.NotNil(t, fake.createdConfig)
	assert.Equal(t, "telcat:latest", fake.createdConfig.Image)
	assert.Equal(t, []string{"example.com", "9000"}, []string(fake.createdConfig.Cmd))
	assert.True(t, fake.createdConfig.OpenStdin)
	assert.True(t, strings.HasPrefix(fake.createdName, containerNamePrefix))
}

func TestRunInteractive_RemovesContainerOnWaitError(t *testing.T) {
	fake := newFakeDockerClient()
	fake.waitErrCh <- errors.New("wait transport broken")

	d := &DockerRuntime{client: fake}
	_, err := d.RunInteractive(context.Background(), runtime.RunOptions{Image: "telcat:latest"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to wait for container")

	// The execution context must not survive a failed wait.
	require.Equal(t, []string{"ctr-1"}, fake.removed)
	assert.True(t, fake.removeOpts[0].Force)
}

func TestRunInteractive_SignalsAndRemovesOnCancel(t *testing.T) {
	fake := newFakeDockerClient()
	fake.exitOnKill = &container.WaitResponse{StatusCode: 143}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &DockerRuntime{client: fake}
	_, err := d.RunInteractive(ctx, runtime.RunOptions{Image: "telcat:latest"})

	require.ErrorIs(t, err, context.Canceled)

	// The contained process gets a catchable signal, then the context is
	// force-removed before the call returns.
	assert.Equal(t, []string{"SIGTERM"}, fake.killed)
	require.Equal(t, []string{"ctr-1"}, fake.removed)
	assert.True(t, fake.removeOpts[0].Force)
}

func TestRunInteractive_CancelGracePeriodExpires(t *testing.T) {
	fake := newFakeDockerClient()
	// The signaled container never exits; removal still happens.

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &DockerRuntime{client: fake}
	start := time.Now()
	exitCode, err := d.RunInteractive(ctx, runtime.RunOptions{Image: "telcat:latest"})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, -1, exitCode)
	assert.GreaterOrEqual(t, time.Since(start), stopGracePeriod)
	assert.Equal(t, []string{"SIGTERM"}, fake.killed)
	assert.Equal(t, []string{"ctr-1"}, fake.removed)
}

func TestImageExists_ExactReferenceFilter(t *testing.T) {
	fake := newFakeDockerClient()
	fake.images = []image.Summary{{ID: "sha256:abc"}}

	d := &DockerRuntime{client: fake}
	exists, err := d.ImageExists(context.Background(), "telcat:latest")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []string{"telcat:latest"}, fake.listOpts.Filters.Get("reference"))
}

func TestBuildImage_JSONErrorIsBuildFailure(t *testing.T) {
	fake := newFakeDockerClient()
	fake.buildBody = `{"errorDetail":{"message":"COPY failed: no such file"},"error":"COPY failed: no such file"}` + "\n"

	d := &DockerRuntime{client: fake}
	err := d.BuildImage(context.Background(), runtime.BuildOptions{
		ContextDir: t.TempDir(),
		Ref:        "telcat:latest",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "image build failed: COPY failed")
	assert.Equal(t, []string{"telcat:latest"}, fake.buildOpts.Tags)
}

func TestNewDockerRuntime_RequiresDockerDaemon(t *testing.T) {
	// Succeeds when a daemon is reachable; otherwise the error must name
	// the failing step so the caller can classify it as RuntimeUnavailable.
	_, err := NewDockerRuntime()
	if err == nil {
		return
	}

	errorMsg := err.Error()
	if errorMsg == "" {
		t.Fatal("Error message should not be empty")
	}

	if !strings.HasPrefix(errorMsg, "failed to create Docker client") &&
		!strings.HasPrefix(errorMsg, "failed to connect to Docker daemon") {
		t.Errorf("Unexpected error format: %s", errorMsg)
	}
}

func TestContainerNamePrefix(t *testing.T) {
	if !strings.HasPrefix(containerNamePrefix, "telcat-") {
		t.Errorf("Execution contexts must be identifiable as telcat's, got prefix %q", containerNamePrefix)
	}
}
