package containers

import (
	"context"
	"fmt"

	"stagehand/internal/config"
	"stagehand/internal/containerizer"
	"stagehand/internal/healthcheck"
	"stagehand/internal/registry"
)

const (
	uiPort = 8080

	// DefaultClientID is the OIDC client the shell UI logs in with.
	DefaultClientID = "onecx-shell-ui-client"
)

// UISpec configures the UI shell.
type UISpec struct {
	Key      registry.Key
	Image    string
	Alias    string
	Port     int
	ClientID string
	Env      map[string]string
	Wait     *containerizer.WaitSpec
}

func (s UISpec) withDefaults() UISpec {
	if s.Key == "" {
		s.Key = config.KeyShellUI
	}
	s.Alias = orDefault(s.Alias, string(s.Key))
	s.Port = orDefaultInt(s.Port, uiPort)
	s.ClientID = orDefault(s.ClientID, DefaultClientID)
	return s
}

// DefaultWait waits for the UI port to accept connections.
func (s UISpec) DefaultWait() containerizer.WaitSpec {
	s = s.withDefaults()
	return containerizer.WaitSpec{
		Kind: containerizer.WaitPort,
		Port: s.Port,
	}
}

// Start runs the UI behind gw. kc may be nil when the UI does not need the
// identity provider URL.
func (s UISpec) Start(ctx context.Context, env Env, gw *StartedGateway, kc *StartedKeycloak) (*StartedUI, error) {
	s = s.withDefaults()
	if gw == nil {
		return nil, config.NewMissingDependencyError(string(s.Key), config.KeyShellBFF)
	}
	if s.Image == "" {
		return nil, config.NewMissingFieldError(string(s.Key), "image")
	}

	computed := map[string]string{
		"BFF_URL":   gw.InternalURL(),
		"CLIENT_ID": s.ClientID,
	}
	if kc != nil {
		computed["KEYCLOAK_URL"] = kc.InternalURL()
		computed["KEYCLOAK_REALM"] = kc.Realm()
		computed["KEYCLOAK_CLIENT_ID"] = s.ClientID
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

	return &StartedUI{
		started:  started{key: s.Key, container: c, alias: s.Alias, port: s.Port},
		clientID: s.ClientID,
	}, nil
}

// StartedUI is a running UI shell.
type StartedUI struct {
	started
	clientID string
}

// ClientID returns the OIDC client id of the UI.
func (u *StartedUI) ClientID() string {
	return u.clientID
}

// HealthProbe always skips; the UI has no health endpoint.
func (u *StartedUI) HealthProbe(ctx context.Context) (healthcheck.Probe, error) {
	return healthcheck.Skip(fmt.Sprintf("%s has no health endpoint", u.alias)), nil
}

var _ registry.Handle = (*StartedUI)(nil)
var _ healthcheck.Checkable = (*StartedUI)(nil)
