package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"stagehand/internal/config"
	"stagehand/internal/containers"
	"stagehand/internal/registry"
)

// TokenValues tell the import runner how to obtain an access token.
type TokenValues struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Realm    string `json:"realm"`
	Alias    string `json:"alias"`
	Port     int    `json:"port"`
	ClientID string `json:"clientId"`
}

// ServiceAddress is where the runner reaches a service on the platform
// network.
type ServiceAddress struct {
	Alias string `json:"alias"`
	Port  int    `json:"port"`
}

// Descriptor is the container info file handed to the import runner.
type Descriptor struct {
	TokenValues TokenValues               `json:"tokenValues"`
	Services    map[string]ServiceAddress `json:"services"`
}

// BuildDescriptor derives the descriptor from the registered identity
// provider, the UI client id and every registered import-relevant service.
// Without a registered UI the default client id is used.
func BuildDescriptor(reg *registry.Registry) (Descriptor, error) {
	kc, ok := registry.GetAs[*containers.StartedKeycloak](reg, config.KeyKeycloak)
	if !ok {
		return Descriptor{}, config.NewMissingDependencyError(config.KeyImportManager, config.KeyKeycloak)
	}

	clientID := containers.DefaultClientID
	if ui, ok := registry.GetAs[*containers.StartedUI](reg, config.KeyShellUI); ok {
		clientID = ui.ClientID()
	}

	creds := kc.Credentials()
	d := Descriptor{
		TokenValues: TokenValues{
			Username: creds.RealmUser,
			Password: creds.RealmPassword,
			Realm:    creds.Realm,
			Alias:    kc.Alias(),
			Port:     kc.Port(),
			ClientID: clientID,
		},
		Services: make(map[string]ServiceAddress),
	}

	for _, entry := range containers.Builtins() {
		if !entry.Import {
			continue
		}
		svc, ok := registry.GetAs[*containers.StartedService](reg, entry.Key)
		if !ok {
			continue
		}
		d.Services[string(entry.Key)] = ServiceAddress{Alias: svc.Alias(), Port: svc.Port()}
	}
	return d, nil
}

// WriteDescriptor writes d as JSON to path, creating parent directories.
func WriteDescriptor(path string, d Descriptor) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode descriptor: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create descriptor directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write descriptor %s: %w", path, err)
	}
	return nil
}

// ReadDescriptor reads a descriptor written by WriteDescriptor.
func ReadDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to read descriptor %s: %w", path, err)
	}
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("failed to decode descriptor %s: %w", path, err)
	}
	return d, nil
}
