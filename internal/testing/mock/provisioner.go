package mock

import (
	"context"
	"sync"
)

// Database is one database provisioned through Provisioner.
type Database struct {
	AdminURL string
	Name     string
	Owner    string
	Password string
}

// Provisioner records database provisioning requests instead of talking to
// Postgres.
type Provisioner struct {
	mu        sync.Mutex
	databases []Database

	// Err, when set, is returned by EnsureDatabase.
	Err error
}

// EnsureDatabase records the request.
func (p *Provisioner) EnsureDatabase(ctx context.Context, adminURL, name, owner, password string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.databases = append(p.databases, Database{AdminURL: adminURL, Name: name, Owner: owner, Password: password})
	return nil
}

// Databases returns every recorded request in order.
func (p *Provisioner) Databases() []Database {
	p.mu.Lock()
	defer p.mu.Unlock()
	dbs := make([]Database, len(p.databases))
	copy(dbs, p.databases)
	return dbs
}
