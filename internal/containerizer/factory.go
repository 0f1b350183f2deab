package containerizer

import (
	"fmt"
	"strings"

	"stagehand/pkg/logging"
)

// RuntimeType defines the type of container runtime
type RuntimeType string

const (
	RuntimeTypeDocker RuntimeType = "docker"
	RuntimeTypePodman RuntimeType = "podman"
)

// NewRuntime creates a new container runtime based on the specified type
func NewRuntime(runtimeType string, logger *logging.Logger) (Runtime, error) {
	rt := RuntimeType(strings.ToLower(runtimeType))

	switch rt {
	case RuntimeTypeDocker, "":
		// Default to Docker if not specified
		return NewTestcontainersRuntime(logger), nil
	case RuntimeTypePodman:
		return nil, fmt.Errorf("podman runtime not yet implemented")
	default:
		return nil, fmt.Errorf("unsupported container runtime: %s", runtimeType)
	}
}
