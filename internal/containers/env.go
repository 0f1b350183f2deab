package containers

import (
	"context"
	"fmt"
	"strings"

	"stagehand/internal/config"
	"stagehand/internal/containerizer"
	"stagehand/internal/registry"
	"stagehand/pkg/logging"
)

// Env carries the collaborators every container start needs.
type Env struct {
	Runtime     containerizer.Runtime
	Network     string
	Logger      *logging.Logger
	Logging     config.LoggingSelection
	Provisioner Provisioner
}

// mergeEnv returns computed with overrides applied on top. Computed keys are
// only ever replaced, never removed.
func mergeEnv(computed, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(computed)+len(overrides))
	for k, v := range computed {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// resolveWait installs the built-in wait strategy unless the caller supplied
// a different one. Specs are compared by value.
func resolveWait(custom *containerizer.WaitSpec, builtin containerizer.WaitSpec) *containerizer.WaitSpec {
	if custom == nil || custom.Equal(builtin) {
		w := builtin
		return &w
	}
	w := *custom
	return &w
}

// logSink forwards container output to the logger when the selection
// allows alias.
func logSink(env Env, alias string) containerizer.LogSink {
	if !env.Logging.Allows(alias) {
		return nil
	}
	subsystem := "container/" + alias
	logger := env.Logger
	return func(stream, line string) {
		if strings.EqualFold(stream, "STDERR") {
			logger.Warn(subsystem, "%s", line)
			return
		}
		logger.Info(subsystem, "%s", line)
	}
}

// run starts spec on the platform network with alias as network alias.
func run(ctx context.Context, env Env, alias string, spec containerizer.ContainerSpec) (containerizer.Container, error) {
	if env.Runtime == nil {
		return nil, fmt.Errorf("no container runtime configured")
	}
	spec.Network = env.Network
	spec.NetworkAliases = []string{alias}
	spec.LogSink = logSink(env, alias)

	env.Logger.Debug("Containers", "Starting %s from %s", alias, spec.Image)
	c, err := env.Runtime.Run(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", alias, err)
	}
	return c, nil
}

// started is the part every started handle shares.
type started struct {
	key       registry.Key
	container containerizer.Container
	alias     string
	port      int
}

func (s *started) Key() registry.Key { return s.key }
func (s *started) Container() containerizer.Container { return s.container }
func (s *started) Alias() string { return s.alias }
func (s *started) Port() int { return s.port }

func (s *started) NetworkAliases() []string {
	return s.container.NetworkAliases()
}

func (s *started) MappedPort(ctx context.Context) (int, error) {
	return s.container.MappedPort(ctx, s.port)
}

func (s *started) Stop(ctx context.Context) error {
	return s.container.Stop(ctx)
}

// InternalURL is the address of the container on the platform network.
func (s *started) InternalURL() string {
	return fmt.Sprintf("http://%s:%d", s.alias, s.port)
}

// ExternalURL is the address of the container from the host.
func (s *started) ExternalURL(ctx context.Context) (string, error) {
	host, err := s.container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get host of %s: %w", s.key, err)
	}
	port, err := s.MappedPort(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get mapped port of %s: %w", s.key, err)
	}
	return fmt.Sprintf("http://%s:%d", host, port), nil
}

// probeURL joins the external URL with path.
func (s *started) probeURL(ctx context.Context, path string) (string, error) {
	base, err := s.ExternalURL(ctx)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path, nil
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func orDefaultInt(value, def int) int {
	if value == 0 {
		return def
	}
	return value
}
