package config

import "time"

// Keys of the built-in containers.
const (
	KeyPostgres      = "postgres"
	KeyKeycloak      = "keycloak"
	KeyTenantSvc     = "tenant-svc"
	KeyPermissionSvc = "permission-svc"
	KeyWorkspaceSvc  = "workspace-svc"
	KeyThemeSvc      = "theme-svc"
	KeyShellBFF      = "shell-bff"
	KeyShellUI       = "shell-ui"
	KeyImportManager = "import-manager"
)

// BuiltinServices lists the built-in backend services in catalog order.
var BuiltinServices = []string{
	KeyTenantSvc,
	KeyPermissionSvc,
	KeyWorkspaceSvc,
	KeyThemeSvc,
}

// ServiceRequires maps a built-in service to the services that must be
// enabled with it.
var ServiceRequires = map[string][]string{
	KeyPermissionSvc: {KeyTenantSvc},
}

// ReservedKeys are the keys custom containers may not use as networkAlias.
var ReservedKeys = []string{
	KeyPostgres,
	KeyKeycloak,
	KeyTenantSvc,
	KeyPermissionSvc,
	KeyWorkspaceSvc,
	KeyThemeSvc,
	KeyShellBFF,
	KeyShellUI,
	KeyImportManager,
}

const (
	// DefaultHeartbeatInterval is the heartbeat tick interval.
	DefaultHeartbeatInterval = 30 * time.Second

	// DefaultFailureThreshold is the number of consecutive failed checks
	// after which the heartbeat logs an error.
	DefaultFailureThreshold = 3

	// DefaultImportTimeout bounds the whole data import.
	DefaultImportTimeout = 5 * time.Minute

	// DefaultImportPollInterval is how often the import runner is polled.
	DefaultImportPollInterval = time.Second

	// DefaultImporterImage runs the fixture import.
	DefaultImporterImage = "ghcr.io/onecx/onecx-import-manager:main"

	// DefaultImportProcessName is matched with pgrep -f inside the runner.
	DefaultImportProcessName = "import-manager"
)

// Default returns the compiled-in configuration: every built-in container,
// no logs streamed, no import, heartbeat off.
func Default() PlatformConfig {
	return PlatformConfig{
		Heartbeat: HeartbeatConfig{
			Enabled:          false,
			Interval:         Millis(DefaultHeartbeatInterval),
			FailureThreshold: DefaultFailureThreshold,
		},
		Components: ComponentsConfig{
			BFF: true,
			UI:  true,
		},
		Importer: ImporterConfig{
			Image:        DefaultImporterImage,
			Timeout:      Millis(DefaultImportTimeout),
			PollInterval: Millis(DefaultImportPollInterval),
			ProcessName:  DefaultImportProcessName,
		},
	}
}

// IsReservedKey reports whether key belongs to a built-in container.
func IsReservedKey(key string) bool {
	for _, k := range ReservedKeys {
		if k == key {
			return true
		}
	}
	return false
}
