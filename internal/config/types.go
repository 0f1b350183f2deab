package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FileConfig is the top-level shape of an integration-tests.json file. Only
// platformConfig is interpreted; every other key is metadata.
type FileConfig struct {
	PlatformConfig *PlatformConfig `json:"platformConfig"`
}

// PlatformConfig is the effective configuration of one platform run.
type PlatformConfig struct {
	EnableLogging     LoggingSelection  `json:"enableLogging" yaml:"enableLogging"`
	ImportData        bool              `json:"importData" yaml:"importData"`
	Heartbeat         HeartbeatConfig   `json:"heartbeat" yaml:"heartbeat"`
	PlatformOverrides PlatformOverrides `json:"platformOverrides" yaml:"platformOverrides"`
	Components        ComponentsConfig  `json:"components" yaml:"components"`
	Container         CustomContainers  `json:"container" yaml:"container"`
	Importer          ImporterConfig    `json:"importer" yaml:"importer"`
}

// HeartbeatConfig configures the periodic health sweep.
type HeartbeatConfig struct {
	Enabled          bool   `json:"enabled" yaml:"enabled"`
	Interval         Millis `json:"interval" yaml:"interval"`
	FailureThreshold int    `json:"failureThreshold" yaml:"failureThreshold"`
}

// ImageOverride replaces the compiled-in image of one container.
type ImageOverride struct {
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

// CoreOverrides holds image overrides for the core containers.
type CoreOverrides struct {
	Postgres *ImageOverride `json:"postgres,omitempty" yaml:"postgres,omitempty"`
	Keycloak *ImageOverride `json:"keycloak,omitempty" yaml:"keycloak,omitempty"`
}

// PlatformOverrides holds optional image overrides per logical container.
type PlatformOverrides struct {
	Core     *CoreOverrides           `json:"core,omitempty" yaml:"core,omitempty"`
	Services map[string]ImageOverride `json:"services,omitempty" yaml:"services,omitempty"`
	BFF      *ImageOverride           `json:"bff,omitempty" yaml:"bff,omitempty"`
	UI       *ImageOverride           `json:"ui,omitempty" yaml:"ui,omitempty"`
}

// Overrides flattens the overrides into a map from container key to image.
// Empty images are left out.
func (o PlatformOverrides) Overrides() map[string]string {
	out := make(map[string]string)
	add := func(key string, ov *ImageOverride) {
		if ov != nil && ov.Image != "" {
			out[key] = ov.Image
		}
	}
	if o.Core != nil {
		add(KeyPostgres, o.Core.Postgres)
		add(KeyKeycloak, o.Core.Keycloak)
	}
	for name, ov := range o.Services {
		ov := ov
		add(name, &ov)
	}
	add(KeyShellBFF, o.BFF)
	add(KeyShellUI, o.UI)
	return out
}

// ComponentsConfig selects which stages run beyond the core.
type ComponentsConfig struct {
	// Services lists the built-in backend services to start. nil means all.
	Services []string `json:"services" yaml:"services"`
	BFF      bool     `json:"bff" yaml:"bff"`
	UI       bool     `json:"ui" yaml:"ui"`
}

// EnabledServices returns the selected built-in services in catalog order.
func (c ComponentsConfig) EnabledServices() []string {
	if c.Services == nil {
		out := make([]string, len(BuiltinServices))
		copy(out, BuiltinServices)
		return out
	}
	selected := make(map[string]bool, len(c.Services))
	for _, s := range c.Services {
		selected[s] = true
	}
	var out []string
	for _, s := range BuiltinServices {
		if selected[s] {
			out = append(out, s)
		}
	}
	return out
}

// DatabaseConfig names the database and login role of a backend service.
type DatabaseConfig struct {
	Name     string `json:"name" yaml:"name"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// ContainerDefinition declares a user-defined container.
type ContainerDefinition struct {
	NetworkAlias string            `json:"networkAlias" yaml:"networkAlias"`
	Image        string            `json:"image" yaml:"image"`
	Port         int               `json:"port,omitempty" yaml:"port,omitempty"`
	Env          map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	HealthPath   string            `json:"healthPath,omitempty" yaml:"healthPath,omitempty"`
	Database     *DatabaseConfig   `json:"database,omitempty" yaml:"database,omitempty"`
}

// Definitions is a list of container definitions. In JSON it may be written
// as a single object or as an array.
type Definitions []ContainerDefinition

// UnmarshalJSON accepts an object or an array of objects.
func (d *Definitions) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*d = nil
		return nil
	}
	if trimmed[0] == '{' {
		var single ContainerDefinition
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*d = Definitions{single}
		return nil
	}
	var many []ContainerDefinition
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*d = many
	return nil
}

// CustomContainers groups user-declared containers by flavor.
type CustomContainers struct {
	Service Definitions `json:"service,omitempty" yaml:"service,omitempty"`
	BFF     Definitions `json:"bff,omitempty" yaml:"bff,omitempty"`
	UI      Definitions `json:"ui,omitempty" yaml:"ui,omitempty"`
}

// Len returns the number of declared containers.
func (c CustomContainers) Len() int {
	return len(c.Service) + len(c.BFF) + len(c.UI)
}

// ImporterConfig configures the data import step.
type ImporterConfig struct {
	Image string `json:"image" yaml:"image"`
	// DescriptorPath is where the descriptor is written. Empty means a
	// temporary file.
	DescriptorPath string `json:"descriptorPath,omitempty" yaml:"descriptorPath,omitempty"`
	Timeout        Millis `json:"timeout" yaml:"timeout"`
	PollInterval   Millis `json:"pollInterval" yaml:"pollInterval"`
	ProcessName    string `json:"processName" yaml:"processName"`
}

// LoggingSelection decides which containers stream their output. In JSON it
// is either a bool or a list of aliases where "!alias" excludes one.
type LoggingSelection struct {
	All     bool
	Aliases []string
}

// LogAll selects every container.
func LogAll() LoggingSelection {
	return LoggingSelection{All: true}
}

// LogOnly selects containers by alias list.
func LogOnly(aliases ...string) LoggingSelection {
	return LoggingSelection{Aliases: aliases}
}

// Allows reports whether the container with alias should stream its logs.
//
// A list with positive entries selects only those aliases (minus negated
// ones). A list with only negations selects everything but the negated
// aliases.
func (l LoggingSelection) Allows(alias string) bool {
	if len(l.Aliases) == 0 {
		return l.All
	}

	hasPositive := false
	allowed := false
	for _, entry := range l.Aliases {
		if name, negated := strings.CutPrefix(entry, "!"); negated {
			if name == alias {
				return false
			}
			continue
		}
		hasPositive = true
		if entry == alias {
			allowed = true
		}
	}
	if !hasPositive {
		return true
	}
	return allowed
}

// UnmarshalJSON accepts a bool or an array of strings.
func (l *LoggingSelection) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = LoggingSelection{}
		return nil
	}
	var all bool
	if err := json.Unmarshal(trimmed, &all); err == nil {
		*l = LoggingSelection{All: all}
		return nil
	}
	var aliases []string
	if err := json.Unmarshal(trimmed, &aliases); err != nil {
		return fmt.Errorf("enableLogging must be a boolean or a list of aliases: %w", err)
	}
	*l = LoggingSelection{Aliases: aliases}
	return nil
}

// MarshalJSON writes the list form when aliases are set and the bool form
// otherwise.
func (l LoggingSelection) MarshalJSON() ([]byte, error) {
	if len(l.Aliases) > 0 {
		return json.Marshal(l.Aliases)
	}
	return json.Marshal(l.All)
}

// MarshalYAML mirrors MarshalJSON.
func (l LoggingSelection) MarshalYAML() (interface{}, error) {
	if len(l.Aliases) > 0 {
		return l.Aliases, nil
	}
	return l.All, nil
}

// Millis is a duration written as whole milliseconds in configuration files.
type Millis time.Duration

// Duration returns m as a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m)
}

// UnmarshalJSON reads a number of milliseconds.
func (m *Millis) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("duration must be a number of milliseconds: %w", err)
	}
	*m = Millis(time.Duration(ms) * time.Millisecond)
	return nil
}

// MarshalJSON writes a number of milliseconds.
func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(m).Milliseconds())
}

// MarshalYAML writes a number of milliseconds.
func (m Millis) MarshalYAML() (interface{}, error) {
	return time.Duration(m).Milliseconds(), nil
}
