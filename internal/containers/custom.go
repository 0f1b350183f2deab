package containers

import (
	"context"
	"fmt"
	"net/http"

	"stagehand/internal/config"
	"stagehand/internal/containerizer"
	"stagehand/internal/healthcheck"
	"stagehand/internal/registry"
)

// GenericSpec configures a user-declared container that needs no database.
// Without a health path it is probed with a skip probe.
type GenericSpec struct {
	Key        registry.Key
	Image      string
	Alias      string
	Port       int
	HealthPath string
	Env        map[string]string
	Wait       *containerizer.WaitSpec
}

func (s GenericSpec) withDefaults() GenericSpec {
	s.Alias = orDefault(s.Alias, string(s.Key))
	if s.Key == "" {
		s.Key = registry.Key(s.Alias)
	}
	return s
}

// DefaultWait waits on the health path when one is set, else on the port.
func (s GenericSpec) DefaultWait() containerizer.WaitSpec {
	switch {
	case s.Port != 0 && s.HealthPath != "":
		return containerizer.WaitSpec{
			Kind:        containerizer.WaitHTTP,
			Path:        s.HealthPath,
			Port:        s.Port,
			StatusCodes: []int{http.StatusOK},
		}
	case s.Port != 0:
		return containerizer.WaitSpec{Kind: containerizer.WaitPort, Port: s.Port}
	default:
		return containerizer.WaitSpec{Kind: containerizer.WaitNone}
	}
}

// Start runs the container.
func (s GenericSpec) Start(ctx context.Context, env Env) (*StartedGeneric, error) {
	s = s.withDefaults()
	if s.Alias == "" {
		return nil, config.NewMissingFieldError("custom container", "networkAlias")
	}
	if s.Image == "" {
		return nil, config.NewMissingFieldError(s.Alias, "image")
	}

	spec := containerizer.ContainerSpec{
		Image: s.Image,
		Env:   mergeEnv(nil, s.Env),
	}
	if s.Port != 0 {
		spec.ExposedPorts = []int{s.Port}
	}
	if w := resolveWait(s.Wait, s.DefaultWait()); w.Kind != containerizer.WaitNone {
		spec.Wait = w
	}

	c, err := run(ctx, env, s.Alias, spec)
	if err != nil {
		return nil, err
	}
	return &StartedGeneric{
		started:    started{key: s.Key, container: c, alias: s.Alias, port: s.Port},
		healthPath: s.HealthPath,
	}, nil
}

// StartedGeneric is a running user-declared container.
type StartedGeneric struct {
	started
	healthPath string
}

// MappedPort reports 0 when the container exposes no port.
func (g *StartedGeneric) MappedPort(ctx context.Context) (int, error) {
	if g.port == 0 {
		return 0, nil
	}
	return g.started.MappedPort(ctx)
}

// HealthProbe checks the health path, or skips when none was declared.
func (g *StartedGeneric) HealthProbe(ctx context.Context) (healthcheck.Probe, error) {
	if g.healthPath == "" || g.port == 0 {
		return healthcheck.Skip(fmt.Sprintf("%s declares no health path", g.alias)), nil
	}
	u, err := g.probeURL(ctx, g.healthPath)
	if err != nil {
		return healthcheck.Probe{}, err
	}
	return healthcheck.HTTP(u, healthcheck.DefaultProbeTimeout, http.StatusOK), nil
}

var _ registry.Handle = (*StartedGeneric)(nil)
var _ healthcheck.Checkable = (*StartedGeneric)(nil)
