package containerizer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"

	"stagehand/pkg/logging"
)

const runtimeSubsystem = "Runtime"

// defaultStartupTimeout bounds wait strategies that do not set their own timeout.
const defaultStartupTimeout = 3 * time.Minute

// TestcontainersRuntime implements Runtime on top of testcontainers-go and
// the Docker engine API.
type TestcontainersRuntime struct {
	logger *logging.Logger
}

// NewTestcontainersRuntime creates a runtime backed by the local Docker engine.
func NewTestcontainersRuntime(logger *logging.Logger) *TestcontainersRuntime {
	return &TestcontainersRuntime{logger: logger}
}

// CreateNetwork creates a new bridge network with a generated name.
func (r *TestcontainersRuntime) CreateNetwork(ctx context.Context) (Network, error) {
	nw, err := network.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}
	r.logger.Debug(runtimeSubsystem, "Created network %s", nw.Name)
	return &dockerNetwork{network: nw}, nil
}

// Run creates and starts a container from spec.
func (r *TestcontainersRuntime) Run(ctx context.Context, spec ContainerSpec) (Container, error) {
	req := testcontainers.ContainerRequest{
		Name:       spec.Name,
		Image:      spec.Image,
		Env:        spec.Env,
		Cmd:        spec.Cmd,
		Entrypoint: spec.Entrypoint,
	}

	for _, port := range spec.ExposedPorts {
		req.ExposedPorts = append(req.ExposedPorts, tcpPort(port))
	}

	if spec.Network != "" {
		req.Networks = []string{spec.Network}
		if len(spec.NetworkAliases) > 0 {
			req.NetworkAliases = map[string][]string{spec.Network: spec.NetworkAliases}
		}
	}

	for _, f := range spec.Files {
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		req.Files = append(req.Files, testcontainers.ContainerFile{
			HostFilePath:      expandPath(f.HostPath),
			ContainerFilePath: f.ContainerPath,
			FileMode:          mode,
		})
	}

	if spec.Wait != nil {
		req.WaitingFor = waitStrategy(*spec.Wait)
	}

	if spec.LogSink != nil {
		req.LogConsumerCfg = &testcontainers.LogConsumerConfig{
			Consumers: []testcontainers.LogConsumer{&sinkConsumer{sink: spec.LogSink}},
		}
	}

	r.logger.Debug(runtimeSubsystem, "Starting container from image %s (aliases: %s)", spec.Image, strings.Join(spec.NetworkAliases, ","))

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if c != nil {
			// A container that was created but failed its wait strategy
			// still has to be removed.
			_ = c.Terminate(context.Background())
		}
		return nil, fmt.Errorf("failed to start container from image %s: %w", spec.Image, err)
	}

	shortID := c.GetContainerID()
	if len(shortID) > 12 {
		shortID = shortID[:12]
	}
	r.logger.Debug(runtimeSubsystem, "Started container %s from image %s", shortID, spec.Image)

	aliases := make([]string, len(spec.NetworkAliases))
	copy(aliases, spec.NetworkAliases)

	return &dockerContainer{container: c, aliases: aliases}, nil
}

// ImageExists reports whether image is present in the local image store.
func (r *TestcontainersRuntime) ImageExists(ctx context.Context, image string) (bool, error) {
	cli, err := testcontainers.NewDockerClientWithOpts(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to create docker client: %w", err)
	}
	defer cli.Close()

	if _, _, err := cli.ImageInspectWithRaw(ctx, image); err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect image %s: %w", image, err)
	}
	return true, nil
}

// waitStrategy converts a WaitSpec into a testcontainers wait strategy.
func waitStrategy(spec WaitSpec) wait.Strategy {
	timeout := spec.Timeout
	if timeout == 0 {
		timeout = defaultStartupTimeout
	}

	switch spec.Kind {
	case WaitHTTP:
		codes := spec.StatusCodes
		if len(codes) == 0 {
			codes = []int{200}
		}
		return wait.ForHTTP(spec.Path).
			WithPort(nat.Port(tcpPort(spec.Port))).
			WithStatusCodeMatcher(func(status int) bool {
				for _, code := range codes {
					if status == code {
						return true
					}
				}
				return false
			}).
			WithStartupTimeout(timeout)
	case WaitLog:
		occurrence := spec.Occurrence
		if occurrence == 0 {
			occurrence = 1
		}
		return wait.ForLog(spec.LogMessage).WithOccurrence(occurrence).WithStartupTimeout(timeout)
	case WaitPort:
		return wait.ForListeningPort(nat.Port(tcpPort(spec.Port))).WithStartupTimeout(timeout)
	default:
		return nil
	}
}

func tcpPort(port int) string {
	return fmt.Sprintf("%d/tcp", port)
}

// dockerNetwork adapts a testcontainers network.
type dockerNetwork struct {
	network *testcontainers.DockerNetwork
}

func (n *dockerNetwork) Name() string {
	return n.network.Name
}

func (n *dockerNetwork) Remove(ctx context.Context) error {
	if err := n.network.Remove(ctx); err != nil {
		return fmt.Errorf("failed to remove network %s: %w", n.network.Name, err)
	}
	return nil
}

// dockerContainer adapts a testcontainers container.
type dockerContainer struct {
	container testcontainers.Container
	aliases   []string
}

func (c *dockerContainer) ID() string {
	return c.container.GetContainerID()
}

func (c *dockerContainer) Host(ctx context.Context) (string, error) {
	return c.container.Host(ctx)
}

func (c *dockerContainer) MappedPort(ctx context.Context, containerPort int) (int, error) {
	mapped, err := c.container.MappedPort(ctx, nat.Port(tcpPort(containerPort)))
	if err != nil {
		return 0, fmt.Errorf("failed to get mapped port for %d: %w", containerPort, err)
	}
	return mapped.Int(), nil
}

func (c *dockerContainer) NetworkAliases() []string {
	aliases := make([]string, len(c.aliases))
	copy(aliases, c.aliases)
	return aliases
}

func (c *dockerContainer) Exec(ctx context.Context, cmd []string) (ExecResult, error) {
	exitCode, reader, err := c.container.Exec(ctx, cmd)
	if err != nil {
		return ExecResult{}, fmt.Errorf("failed to exec %q: %w", strings.Join(cmd, " "), err)
	}

	var stdout, stderr bytes.Buffer
	if reader != nil {
		if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
			return ExecResult{ExitCode: exitCode}, fmt.Errorf("failed to read exec output: %w", err)
		}
	}

	return ExecResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

func (c *dockerContainer) Logs(ctx context.Context) (io.ReadCloser, error) {
	return c.container.Logs(ctx)
}

func (c *dockerContainer) Stop(ctx context.Context) error {
	if err := c.container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate container %s: %w", c.ID(), err)
	}
	return nil
}

// sinkConsumer forwards testcontainers log records to a LogSink, one call
// per line.
type sinkConsumer struct {
	sink LogSink
}

func (s *sinkConsumer) Accept(l testcontainers.Log) {
	scanner := bufio.NewScanner(bytes.NewReader(l.Content))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		s.sink(l.LogType, line)
	}
}

// expandPath expands tilde in paths to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
