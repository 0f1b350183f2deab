package containers

import (
	"stagehand/internal/config"
	"stagehand/internal/registry"
)

// ServiceEntry describes one built-in backend service.
type ServiceEntry struct {
	Key      registry.Key
	Alias    string
	Database config.DatabaseConfig
	// Requires lists services that must be registered before this one,
	// taken from config.ServiceRequires.
	Requires []registry.Key
	// Import marks services whose alias and port go into the import
	// descriptor.
	Import bool
}

var catalog = map[string]ServiceEntry{
	config.KeyTenantSvc: {
		Key:      config.KeyTenantSvc,
		Alias:    "onecx-tenant-svc",
		Database: config.DatabaseConfig{Name: "onecx_tenant", Username: "onecx_tenant", Password: "onecx_tenant"},
		Import:   true,
	},
	config.KeyPermissionSvc: {
		Key:      config.KeyPermissionSvc,
		Alias:    "onecx-permission-svc",
		Database: config.DatabaseConfig{Name: "onecx_permission", Username: "onecx_permission", Password: "onecx_permission"},
		Import:   true,
	},
	config.KeyWorkspaceSvc: {
		Key:      config.KeyWorkspaceSvc,
		Alias:    "onecx-workspace-svc",
		Database: config.DatabaseConfig{Name: "onecx_workspace", Username: "onecx_workspace", Password: "onecx_workspace"},
		Import:   true,
	},
	config.KeyThemeSvc: {
		Key:      config.KeyThemeSvc,
		Alias:    "onecx-theme-svc",
		Database: config.DatabaseConfig{Name: "onecx_theme", Username: "onecx_theme", Password: "onecx_theme"},
		Import:   true,
	},
}

// Builtin returns the catalog entry of a built-in service.
func Builtin(name string) (ServiceEntry, bool) {
	e, ok := catalog[name]
	if !ok {
		return ServiceEntry{}, false
	}
	e.Requires = nil
	for _, dep := range config.ServiceRequires[name] {
		e.Requires = append(e.Requires, registry.Key(dep))
	}
	return e, true
}

// Builtins returns every built-in service in catalog order.
func Builtins() []ServiceEntry {
	out := make([]ServiceEntry, 0, len(config.BuiltinServices))
	for _, name := range config.BuiltinServices {
		e, _ := Builtin(name)
		out = append(out, e)
	}
	return out
}

// Spec builds the start spec of the entry with the given image.
func (e ServiceEntry) Spec(image string) ServiceSpec {
	return ServiceSpec{
		Key:      e.Key,
		Image:    image,
		Alias:    e.Alias,
		Database: e.Database,
	}
}
