package containers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/lib/pq"
)

// Provisioner creates a login role and a database owned by it on the shared
// Postgres server. It must be idempotent.
type Provisioner interface {
	EnsureDatabase(ctx context.Context, adminURL, name, owner, password string) error
}

// PostgresProvisioner provisions databases over a lib/pq connection.
type PostgresProvisioner struct {
	open func(dsn string) (*sql.DB, error)
}

// NewPostgresProvisioner creates a provisioner that connects with lib/pq.
func NewPostgresProvisioner() *PostgresProvisioner {
	return &PostgresProvisioner{
		open: func(dsn string) (*sql.DB, error) {
			return sql.Open("postgres", dsn)
		},
	}
}

// EnsureDatabase creates the role and the database unless they exist.
func (p *PostgresProvisioner) EnsureDatabase(ctx context.Context, adminURL, name, owner, password string) error {
	db, err := p.open(adminURL)
	if err != nil {
		return fmt.Errorf("failed to open admin connection: %w", err)
	}
	defer db.Close()

	roleExists, err := exists(ctx, db, "SELECT 1 FROM pg_roles WHERE rolname = $1", owner)
	if err != nil {
		return fmt.Errorf("failed to look up role %s: %w", owner, err)
	}
	if !roleExists {
		stmt := fmt.Sprintf("CREATE ROLE %s LOGIN PASSWORD %s", pq.QuoteIdentifier(owner), pq.QuoteLiteral(password))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create role %s: %w", owner, err)
		}
	}

	dbExists, err := exists(ctx, db, "SELECT 1 FROM pg_database WHERE datname = $1", name)
	if err != nil {
		return fmt.Errorf("failed to look up database %s: %w", name, err)
	}
	if !dbExists {
		// CREATE DATABASE cannot take bind parameters.
		stmt := fmt.Sprintf("CREATE DATABASE %s OWNER %s", pq.QuoteIdentifier(name), pq.QuoteIdentifier(owner))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create database %s: %w", name, err)
		}
	}
	return nil
}

func exists(ctx context.Context, db *sql.DB, query, arg string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// adminURL builds a lib/pq connection URL.
func adminURL(user, password, host string, port int, database string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		Path:     "/" + database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
