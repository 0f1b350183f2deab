package containers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"stagehand/internal/config"
	"stagehand/internal/containerizer"
	"stagehand/internal/healthcheck"
	"stagehand/internal/registry"
)

const (
	gatewayPort       = 8080
	gatewayHealthPath = "/q/health"
)

// GatewaySpec configures the backend-for-frontend gateway.
type GatewaySpec struct {
	Key        registry.Key
	Image      string
	Alias      string
	Port       int
	HealthPath string
	Env        map[string]string
	Wait       *containerizer.WaitSpec
}

func (s GatewaySpec) withDefaults() GatewaySpec {
	if s.Key == "" {
		s.Key = config.KeyShellBFF
	}
	s.Alias = orDefault(s.Alias, string(s.Key))
	s.Port = orDefaultInt(s.Port, gatewayPort)
	s.HealthPath = orDefault(s.HealthPath, gatewayHealthPath)
	return s
}

// DefaultWait is the built-in readiness strategy. The gateway reports 503
// while some backend is still down, which still means it is serving.
func (s GatewaySpec) DefaultWait() containerizer.WaitSpec {
	s = s.withDefaults()
	return containerizer.WaitSpec{
		Kind:        containerizer.WaitHTTP,
		Path:        s.HealthPath,
		Port:        s.Port,
		StatusCodes: []int{http.StatusOK, http.StatusServiceUnavailable},
	}
}

// Start runs the gateway in front of backends, authenticating against kc.
func (s GatewaySpec) Start(ctx context.Context, env Env, kc *StartedKeycloak, backends ...*StartedService) (*StartedGateway, error) {
	s = s.withDefaults()
	if kc == nil {
		return nil, config.NewMissingDependencyError(string(s.Key), config.KeyKeycloak)
	}
	if s.Image == "" {
		return nil, config.NewMissingFieldError(string(s.Key), "image")
	}

	computed := map[string]string{
		"QUARKUS_HTTP_PORT":            fmt.Sprintf("%d", s.Port),
		"QUARKUS_OIDC_AUTH_SERVER_URL": kc.RealmURL(),
		"QUARKUS_OIDC_TOKEN_ISSUER":    "any",
	}
	for _, b := range backends {
		if b == nil {
			continue
		}
		computed[envName(string(b.Key()))+"_URL"] = b.InternalURL()
	}

	c, err := run(ctx, env, s.Alias, containerizer.ContainerSpec{
		Image:        s.Image,
		Env:          mergeEnv(computed, s.Env),
		ExposedPorts: []int{s.Port},
		Wait:         resolveWait(s.Wait, s.DefaultWait()),
	})
	if err != nil {
		return nil, err
	}

	return &StartedGateway{
		started:    started{key: s.Key, container: c, alias: s.Alias, port: s.Port},
		healthPath: s.HealthPath,
	}, nil
}

// StartedGateway is a running gateway.
type StartedGateway struct {
	started
	healthPath string
}

// HealthProbe checks the gateway health endpoint.
func (g *StartedGateway) HealthProbe(ctx context.Context) (healthcheck.Probe, error) {
	u, err := g.probeURL(ctx, g.healthPath)
	if err != nil {
		return healthcheck.Probe{}, err
	}
	return healthcheck.HTTP(u, healthcheck.DefaultProbeTimeout, http.StatusOK, http.StatusServiceUnavailable), nil
}

// envName turns a container key into an environment variable prefix.
func envName(key string) string {
	return "ONECX_" + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}

var _ registry.Handle = (*StartedGateway)(nil)
var _ healthcheck.Checkable = (*StartedGateway)(nil)
