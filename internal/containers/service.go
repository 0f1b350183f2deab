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
	// DefaultServicePort is the HTTP port of backend services, built-in or
	// user-declared, that do not name one.
	DefaultServicePort = 8080

	serviceHealthPath = "/q/health"
)

// ServiceSpec configures a database-backed backend service.
type ServiceSpec struct {
	Key        registry.Key
	Image      string
	Alias      string
	Port       int
	HealthPath string
	Database   config.DatabaseConfig
	Env        map[string]string
	Wait       *containerizer.WaitSpec
}

func (s ServiceSpec) withDefaults() ServiceSpec {
	s.Alias = orDefault(s.Alias, string(s.Key))
	s.Port = orDefaultInt(s.Port, DefaultServicePort)
	s.HealthPath = orDefault(s.HealthPath, serviceHealthPath)
	return s
}

// DefaultWait is the built-in readiness strategy.
func (s ServiceSpec) DefaultWait() containerizer.WaitSpec {
	s = s.withDefaults()
	return containerizer.WaitSpec{
		Kind:        containerizer.WaitHTTP,
		Path:        s.HealthPath,
		Port:        s.Port,
		StatusCodes: []int{http.StatusOK},
	}
}

// validate fails before any network operation when required values are
// missing.
func (s ServiceSpec) validate() error {
	component := string(s.Key)
	if component == "" {
		component = s.Alias
	}
	if s.Image == "" {
		return config.NewMissingFieldError(component, "image")
	}
	if s.Database.Name == "" {
		return config.NewMissingFieldError(component, "database.name")
	}
	if s.Database.Username == "" {
		return config.NewMissingFieldError(component, "database.username")
	}
	if s.Database.Password == "" {
		return config.NewMissingFieldError(component, "database.password")
	}
	return nil
}

// Start provisions the service database on pg and runs the service. kc may
// be nil for services that do not authenticate.
func (s ServiceSpec) Start(ctx context.Context, env Env, pg *StartedPostgres, kc *StartedKeycloak) (*StartedService, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if pg == nil {
		return nil, config.NewMissingDependencyError(string(s.Key), config.KeyPostgres)
	}
	s = s.withDefaults()

	if err := pg.Provision(ctx, env.Provisioner, s.Database); err != nil {
		return nil, fmt.Errorf("failed to prepare %s: %w", s.Key, err)
	}

	computed := map[string]string{
		"QUARKUS_DATASOURCE_JDBC_URL": pg.JDBCURL(s.Database.Name),
		"QUARKUS_DATASOURCE_USERNAME": s.Database.Username,
		"QUARKUS_DATASOURCE_PASSWORD": s.Database.Password,
		"QUARKUS_HTTP_PORT":           fmt.Sprintf("%d", s.Port),
	}
	if kc != nil {
		computed["QUARKUS_OIDC_AUTH_SERVER_URL"] = kc.RealmURL()
		computed["QUARKUS_OIDC_TOKEN_ISSUER"] = "any"
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

	return &StartedService{
		started:    started{key: s.Key, container: c, alias: s.Alias, port: s.Port},
		healthPath: s.HealthPath,
		database:   s.Database,
	}, nil
}

// StartedService is a running backend service.
type StartedService struct {
	started
	healthPath string
	database   config.DatabaseConfig
}

// Database returns the database the service was provisioned with.
func (s *StartedService) Database() config.DatabaseConfig {
	return s.database
}

// HealthProbe checks the service health endpoint.
func (s *StartedService) HealthProbe(ctx context.Context) (healthcheck.Probe, error) {
	u, err := s.probeURL(ctx, s.healthPath)
	if err != nil {
		return healthcheck.Probe{}, err
	}
	return healthcheck.HTTP(u, healthcheck.DefaultProbeTimeout, http.StatusOK), nil
}

var _ registry.Handle = (*StartedService)(nil)
var _ healthcheck.Checkable = (*StartedService)(nil)
