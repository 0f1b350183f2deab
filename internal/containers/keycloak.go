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

const (
	keycloakPort       = 8080
	keycloakHealthPath = "/health/ready"

	defaultKeycloakAlias = "keycloak-app"
	defaultRealm         = "onecx"
)

// KeycloakSpec configures the identity provider.
type KeycloakSpec struct {
	Image         string
	Alias         string
	AdminUser     string
	AdminPassword string
	Realm         string
	RealmUser     string
	RealmPassword string
	Database      config.DatabaseConfig
	Env           map[string]string
	Wait          *containerizer.WaitSpec
}

// KeycloakCredentials bundles the admin and realm user credentials.
type KeycloakCredentials struct {
	AdminUser     string
	AdminPassword string
	Realm         string
	RealmUser     string
	RealmPassword string
}

// DefaultWait is the built-in readiness strategy.
func (s KeycloakSpec) DefaultWait() containerizer.WaitSpec {
	return containerizer.WaitSpec{
		Kind:        containerizer.WaitHTTP,
		Path:        keycloakHealthPath,
		Port:        keycloakPort,
		StatusCodes: []int{http.StatusOK},
	}
}

func (s KeycloakSpec) withDefaults() KeycloakSpec {
	s.Alias = orDefault(s.Alias, defaultKeycloakAlias)
	s.AdminUser = orDefault(s.AdminUser, "admin")
	s.AdminPassword = orDefault(s.AdminPassword, "admin")
	s.Realm = orDefault(s.Realm, defaultRealm)
	s.RealmUser = orDefault(s.RealmUser, "onecx")
	s.RealmPassword = orDefault(s.RealmPassword, "onecx")
	s.Database.Name = orDefault(s.Database.Name, "keycloak")
	s.Database.Username = orDefault(s.Database.Username, "keycloak")
	s.Database.Password = orDefault(s.Database.Password, "keycloak")
	return s
}

// Start provisions the identity provider database on pg and runs the
// identity provider.
func (s KeycloakSpec) Start(ctx context.Context, env Env, pg *StartedPostgres) (*StartedKeycloak, error) {
	if pg == nil {
		return nil, config.NewMissingDependencyError(config.KeyKeycloak, config.KeyPostgres)
	}
	if s.Image == "" {
		return nil, config.NewMissingFieldError(config.KeyKeycloak, "image")
	}
	s = s.withDefaults()

	if err := pg.Provision(ctx, env.Provisioner, s.Database); err != nil {
		return nil, fmt.Errorf("failed to prepare %s: %w", config.KeyKeycloak, err)
	}

	computed := map[string]string{
		"KEYCLOAK_ADMIN":          s.AdminUser,
		"KEYCLOAK_ADMIN_PASSWORD": s.AdminPassword,
		"KC_DB":                   "postgres",
		"KC_DB_URL":               pg.JDBCURL(s.Database.Name),
		"KC_DB_USERNAME":          s.Database.Username,
		"KC_DB_PASSWORD":          s.Database.Password,
		"KC_HEALTH_ENABLED":       "true",
		"KC_HTTP_ENABLED":         "true",
		"KC_HOSTNAME_STRICT":      "false",
	}

	c, err := run(ctx, env, s.Alias, containerizer.ContainerSpec{
		Image:        s.Image,
		Env:          mergeEnv(computed, s.Env),
		Cmd:          []string{"start-dev", "--import-realm"},
		ExposedPorts: []int{keycloakPort},
		Wait:         resolveWait(s.Wait, s.DefaultWait()),
	})
	if err != nil {
		return nil, err
	}

	return &StartedKeycloak{
		started: started{key: config.KeyKeycloak, container: c, alias: s.Alias, port: keycloakPort},
		credentials: KeycloakCredentials{
			AdminUser:     s.AdminUser,
			AdminPassword: s.AdminPassword,
			Realm:         s.Realm,
			RealmUser:     s.RealmUser,
			RealmPassword: s.RealmPassword,
		},
	}, nil
}

// StartedKeycloak is a running identity provider.
type StartedKeycloak struct {
	started
	credentials KeycloakCredentials
}

// Credentials returns the admin and realm user credentials.
func (k *StartedKeycloak) Credentials() KeycloakCredentials {
	return k.credentials
}

// Realm returns the realm the platform uses.
func (k *StartedKeycloak) Realm() string {
	return k.credentials.Realm
}

// RealmURL is the realm issuer URL on the platform network.
func (k *StartedKeycloak) RealmURL() string {
	return fmt.Sprintf("%s/realms/%s", k.InternalURL(), k.credentials.Realm)
}

// HealthProbe checks the readiness endpoint.
func (k *StartedKeycloak) HealthProbe(ctx context.Context) (healthcheck.Probe, error) {
	u, err := k.probeURL(ctx, keycloakHealthPath)
	if err != nil {
		return healthcheck.Probe{}, err
	}
	return healthcheck.HTTP(u, healthcheck.DefaultProbeTimeout, http.StatusOK), nil
}

var _ registry.Handle = (*StartedKeycloak)(nil)
var _ healthcheck.Checkable = (*StartedKeycloak)(nil)
