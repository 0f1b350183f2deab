package mock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"stagehand/internal/containerizer"
)

// ErrImageUnavailable is returned by Runtime.Run for images listed in
// FailImages.
var ErrImageUnavailable = errors.New("image unavailable")

// Runtime is an in-memory containerizer.Runtime. Containers never run; the
// runtime records every spec it was asked to start and hands out Containers
// with deterministic mapped ports.
type Runtime struct {
	mu sync.Mutex

	// FailImages makes Run fail for the listed images.
	FailImages map[string]bool
	// LocalImages are reported as present by ImageExists.
	LocalImages map[string]bool
	// NetworkErr makes CreateNetwork fail.
	NetworkErr error
	// RunHook, when set, is called before each start; a non-nil error fails Run.
	RunHook func(spec containerizer.ContainerSpec) error
	// ExecFunc is installed on every container started by this runtime.
	ExecFunc func(spec containerizer.ContainerSpec, cmd []string) (containerizer.ExecResult, error)
	// MapPort overrides the generated host port for a container port.
	MapPort func(spec containerizer.ContainerSpec, containerPort int) int

	nextPort   int
	specs      []containerizer.ContainerSpec
	containers []*Container
	networks   []*Network
}

// NewRuntime returns an empty fake runtime.
func NewRuntime() *Runtime {
	return &Runtime{
		FailImages:  make(map[string]bool),
		LocalImages: make(map[string]bool),
		nextPort:    40000,
	}
}

// CreateNetwork implements containerizer.Runtime.
func (r *Runtime) CreateNetwork(ctx context.Context) (containerizer.Network, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.NetworkErr != nil {
		return nil, r.NetworkErr
	}
	nw := &Network{name: fmt.Sprintf("stagehand-test-%d", len(r.networks)+1)}
	r.networks = append(r.networks, nw)
	return nw, nil
}

// Run implements containerizer.Runtime.
func (r *Runtime) Run(ctx context.Context, spec containerizer.ContainerSpec) (containerizer.Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	hook := r.RunHook
	failed := r.FailImages[spec.Image]
	r.mu.Unlock()

	if hook != nil {
		if err := hook(spec); err != nil {
			return nil, err
		}
	}
	if failed {
		return nil, fmt.Errorf("failed to start container from image %s: %w", spec.Image, ErrImageUnavailable)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Container{
		id:      fmt.Sprintf("fake-%d", len(r.containers)+1),
		spec:    spec,
		ports:   make(map[int]int),
		runtime: r,
	}
	for _, port := range spec.ExposedPorts {
		if r.MapPort != nil {
			c.ports[port] = r.MapPort(spec, port)
			continue
		}
		c.ports[port] = r.nextPort
		r.nextPort++
	}

	r.specs = append(r.specs, spec)
	r.containers = append(r.containers, c)
	return c, nil
}

// ImageExists implements containerizer.ImageInspector.
func (r *Runtime) ImageExists(ctx context.Context, image string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.LocalImages[image], nil
}

// Specs returns the specs of every successful Run in order.
func (r *Runtime) Specs() []containerizer.ContainerSpec {
	r.mu.Lock()
	defer r.mu.Unlock()
	specs := make([]containerizer.ContainerSpec, len(r.specs))
	copy(specs, r.specs)
	return specs
}

// Images returns the image of every successful Run in order.
func (r *Runtime) Images() []string {
	specs := r.Specs()
	images := make([]string, len(specs))
	for i, s := range specs {
		images[i] = s.Image
	}
	return images
}

// Containers returns every container started so far.
func (r *Runtime) Containers() []*Container {
	r.mu.Lock()
	defer r.mu.Unlock()
	containers := make([]*Container, len(r.containers))
	copy(containers, r.containers)
	return containers
}

// ContainerByAlias returns the first container started with alias.
func (r *Runtime) ContainerByAlias(alias string) *Container {
	for _, c := range r.Containers() {
		for _, a := range c.spec.NetworkAliases {
			if a == alias {
				return c
			}
		}
	}
	return nil
}

// Networks returns every network created so far.
func (r *Runtime) Networks() []*Network {
	r.mu.Lock()
	defer r.mu.Unlock()
	networks := make([]*Network, len(r.networks))
	copy(networks, r.networks)
	return networks
}

// Network is a fake containerizer.Network.
type Network struct {
	mu        sync.Mutex
	name      string
	removed   int
	RemoveErr error
}

// Name implements containerizer.Network.
func (n *Network) Name() string { return n.name }

// Remove implements containerizer.Network.
func (n *Network) Remove(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removed++
	return n.RemoveErr
}

// RemoveCalls returns how often Remove was called.
func (n *Network) RemoveCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.removed
}

// Container is a fake containerizer.Container.
type Container struct {
	mu      sync.Mutex
	id      string
	spec    containerizer.ContainerSpec
	ports   map[int]int
	runtime *Runtime

	execs   [][]string
	stopped int

	// StopErr is returned by Stop.
	StopErr error
	// ExecFunc overrides the runtime-wide exec behaviour for this container.
	ExecFunc func(cmd []string) (containerizer.ExecResult, error)
}

// ID implements containerizer.Container.
func (c *Container) ID() string { return c.id }

// Spec returns the spec the container was started with.
func (c *Container) Spec() containerizer.ContainerSpec { return c.spec }

// Host implements containerizer.Container.
func (c *Container) Host(ctx context.Context) (string, error) { return "localhost", nil }

// MappedPort implements containerizer.Container.
func (c *Container) MappedPort(ctx context.Context, containerPort int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	port, ok := c.ports[containerPort]
	if !ok {
		return 0, fmt.Errorf("port %d is not exposed", containerPort)
	}
	return port, nil
}

// NetworkAliases implements containerizer.Container.
func (c *Container) NetworkAliases() []string {
	aliases := make([]string, len(c.spec.NetworkAliases))
	copy(aliases, c.spec.NetworkAliases)
	return aliases
}

// Exec implements containerizer.Container. Without an exec function every
// command exits 0.
func (c *Container) Exec(ctx context.Context, cmd []string) (containerizer.ExecResult, error) {
	c.mu.Lock()
	c.execs = append(c.execs, append([]string(nil), cmd...))
	fn := c.ExecFunc
	c.mu.Unlock()

	if fn != nil {
		return fn(cmd)
	}

	c.runtime.mu.Lock()
	runtimeFn := c.runtime.ExecFunc
	c.runtime.mu.Unlock()
	if runtimeFn != nil {
		return runtimeFn(c.spec, cmd)
	}
	return containerizer.ExecResult{}, nil
}

// Execs returns every command passed to Exec.
func (c *Container) Execs() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	execs := make([][]string, len(c.execs))
	copy(execs, c.execs)
	return execs
}

// Logs implements containerizer.Container.
func (c *Container) Logs(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

// Stop implements containerizer.Container.
func (c *Container) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped++
	return c.StopErr
}

// StopCalls returns how often Stop was called.
func (c *Container) StopCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}
