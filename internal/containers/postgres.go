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
	postgresPort          = 5432
	defaultPostgresAlias  = "postgresdb"
	defaultPostgresUser   = "postgres"
	defaultPostgresSecret = "postgres"
	defaultPostgresDB     = "postgres"
)

// PostgresSpec configures the shared database server.
type PostgresSpec struct {
	Image    string
	Alias    string
	User     string
	Password string
	Database string
	Env      map[string]string
	Wait     *containerizer.WaitSpec
}

// PostgresCredentials are the superuser credentials of the database server.
type PostgresCredentials struct {
	User     string
	Password string
	Database string
}

// DefaultWait is the built-in readiness strategy. Postgres logs the ready
// line twice: once for the init run and once for the real server.
func (s PostgresSpec) DefaultWait() containerizer.WaitSpec {
	return containerizer.WaitSpec{
		Kind:       containerizer.WaitLog,
		LogMessage: "database system is ready to accept connections",
		Occurrence: 2,
	}
}

func (s PostgresSpec) withDefaults() PostgresSpec {
	s.Alias = orDefault(s.Alias, defaultPostgresAlias)
	s.User = orDefault(s.User, defaultPostgresUser)
	s.Password = orDefault(s.Password, defaultPostgresSecret)
	s.Database = orDefault(s.Database, defaultPostgresDB)
	return s
}

// Start runs the database server.
func (s PostgresSpec) Start(ctx context.Context, env Env) (*StartedPostgres, error) {
	if s.Image == "" {
		return nil, config.NewMissingFieldError(config.KeyPostgres, "image")
	}
	s = s.withDefaults()

	computed := map[string]string{
		"POSTGRES_USER":     s.User,
		"POSTGRES_PASSWORD": s.Password,
		"POSTGRES_DB":       s.Database,
	}

	c, err := run(ctx, env, s.Alias, containerizer.ContainerSpec{
		Image:        s.Image,
		Env:          mergeEnv(computed, s.Env),
		ExposedPorts: []int{postgresPort},
		Wait:         resolveWait(s.Wait, s.DefaultWait()),
	})
	if err != nil {
		return nil, err
	}

	return &StartedPostgres{
		started: started{key: config.KeyPostgres, container: c, alias: s.Alias, port: postgresPort},
		credentials: PostgresCredentials{
			User:     s.User,
			Password: s.Password,
			Database: s.Database,
		},
	}, nil
}

// StartedPostgres is a running database server.
type StartedPostgres struct {
	started
	credentials PostgresCredentials
}

// Credentials returns the superuser credentials.
func (p *StartedPostgres) Credentials() PostgresCredentials {
	return p.credentials
}

// JDBCURL is the JDBC URL of database on the platform network.
func (p *StartedPostgres) JDBCURL(database string) string {
	return fmt.Sprintf("jdbc:postgresql://%s:%d/%s", p.alias, p.port, database)
}

// AdminURL is a lib/pq URL reaching the server from the host.
func (p *StartedPostgres) AdminURL(ctx context.Context) (string, error) {
	host, err := p.container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get postgres host: %w", err)
	}
	port, err := p.MappedPort(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get postgres port: %w", err)
	}
	return adminURL(p.credentials.User, p.credentials.Password, host, port, p.credentials.Database), nil
}

// Provision creates db and its owner role on this server.
func (p *StartedPostgres) Provision(ctx context.Context, provisioner Provisioner, db config.DatabaseConfig) error {
	if provisioner == nil {
		return fmt.Errorf("no database provisioner configured")
	}
	admin, err := p.AdminURL(ctx)
	if err != nil {
		return err
	}
	if err := provisioner.EnsureDatabase(ctx, admin, db.Name, db.Username, db.Password); err != nil {
		return fmt.Errorf("failed to provision database %s: %w", db.Name, err)
	}
	return nil
}

// HealthProbe runs pg_isready inside the container.
func (p *StartedPostgres) HealthProbe(ctx context.Context) (healthcheck.Probe, error) {
	return healthcheck.Command(p.container, healthcheck.DefaultProbeTimeout,
		"pg_isready", "-U", p.credentials.User, "-d", p.credentials.Database), nil
}

var _ registry.Handle = (*StartedPostgres)(nil)
var _ healthcheck.Checkable = (*StartedPostgres)(nil)
