package containerizer

import (
	"context"
	"io"
	"time"
)

// Runtime is the container runtime driver the orchestrator talks to.
// Implementations must be safe for concurrent use.
type Runtime interface {
	// CreateNetwork creates an isolated network for one platform run.
	CreateNetwork(ctx context.Context) (Network, error)

	// Run creates and starts a container and blocks until its wait
	// strategy (if any) is satisfied.
	Run(ctx context.Context, spec ContainerSpec) (Container, error)
}

// ImageInspector is implemented by runtimes that can tell whether an image
// is already present locally.
type ImageInspector interface {
	ImageExists(ctx context.Context, image string) (bool, error)
}

// Network is an isolated container network.
type Network interface {
	Name() string
	Remove(ctx context.Context) error
}

// Container is a started container.
type Container interface {
	// ID returns the runtime identifier of the container
	ID() string

	// Host returns the host on which mapped ports are reachable
	Host(ctx context.Context) (string, error)

	// MappedPort returns the host port mapped to the given container port
	MappedPort(ctx context.Context, containerPort int) (int, error)

	// NetworkAliases returns the aliases the container was started with
	NetworkAliases() []string

	// Exec runs a command inside the container
	Exec(ctx context.Context, cmd []string) (ExecResult, error)

	// Logs returns a reader over the container's combined output
	Logs(ctx context.Context) (io.ReadCloser, error)

	// Stop stops and removes the container
	Stop(ctx context.Context) error
}

// ExecResult is the outcome of Container.Exec.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// WaitKind selects the readiness strategy the runtime applies on start.
type WaitKind int

const (
	WaitNone WaitKind = iota
	WaitHTTP
	WaitLog
	WaitPort
)

// WaitSpec describes how the runtime decides a freshly started container is
// ready. It is a plain value so two specs can be compared with ==-style
// equality (see Equal).
type WaitSpec struct {
	Kind        WaitKind
	Path        string        // WaitHTTP
	Port        int           // WaitHTTP, WaitPort
	StatusCodes []int         // WaitHTTP; empty means 200
	LogMessage  string        // WaitLog
	Occurrence  int           // WaitLog; 0 means 1
	Timeout     time.Duration // 0 means the runtime default
}

// Equal reports whether two wait specs describe the same strategy.
func (w WaitSpec) Equal(other WaitSpec) bool {
	if w.Kind != other.Kind || w.Path != other.Path || w.Port != other.Port ||
		w.LogMessage != other.LogMessage || w.Occurrence != other.Occurrence || w.Timeout != other.Timeout {
		return false
	}
	if len(w.StatusCodes) != len(other.StatusCodes) {
		return false
	}
	for i := range w.StatusCodes {
		if w.StatusCodes[i] != other.StatusCodes[i] {
			return false
		}
	}
	return true
}

// FileMount copies a host file into the container before it starts.
type FileMount struct {
	HostPath      string
	ContainerPath string
	Mode          int64
}

// LogSink receives container output line by line.
type LogSink func(stream string, line string)

// ContainerSpec holds everything needed to start a container.
type ContainerSpec struct {
	Name           string            // Optional container name
	Image          string            // Container image
	Env            map[string]string // Environment variables
	ExposedPorts   []int             // Container ports (tcp) to publish on random host ports
	Cmd            []string          // Command override
	Entrypoint     []string          // Entrypoint override
	Network        string            // Network to attach to
	NetworkAliases []string          // Aliases on Network
	Wait           *WaitSpec         // Readiness strategy; nil means none
	Files          []FileMount       // Files copied in before start
	LogSink        LogSink           // Optional output consumer
}
