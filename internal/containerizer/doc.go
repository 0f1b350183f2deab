// Package containerizer provides the container runtime abstraction used by
// stagehand.
//
// The orchestrator never talks to a container engine directly. It goes
// through the Runtime interface, which covers exactly what the orchestrator
// needs: creating an isolated network and running containers, and the
// Container interface for everything done to a started container afterwards.
//
// # Core Components
//
// Runtime: Interface that abstracts container operations
//   - CreateNetwork: Create an isolated network for one platform run
//   - Run: Create and start a container, waiting for its readiness strategy
//
// Container: Handle to a started container
//   - MappedPort / Host: Where a container port is reachable from the host
//   - Exec: Run a command inside the container (exit code, stdout, stderr)
//   - Logs: Stream container output
//   - Stop: Stop and remove the container
//
// TestcontainersRuntime: Implementation on top of testcontainers-go
//   - Translates WaitSpec into testcontainers wait strategies
//   - Forwards container output to a LogSink when one is set
//   - Checks local image presence through the Docker engine API
//
// # Container Configuration
//
// Containers are described by a ContainerSpec value:
//   - Image: Container image to run
//   - ExposedPorts: Container ports published on random host ports
//   - Env: Environment variables
//   - Network / NetworkAliases: Network attachment and DNS aliases
//   - Wait: Readiness strategy (HTTP, log line, listening port)
//   - Files: Host files copied in before start
//
// # Usage Example
//
//	runtime, err := containerizer.NewRuntime("docker", logger)
//	if err != nil {
//	    return err
//	}
//
//	nw, err := runtime.CreateNetwork(ctx)
//	if err != nil {
//	    return err
//	}
//	defer nw.Remove(ctx)
//
//	c, err := runtime.Run(ctx, containerizer.ContainerSpec{
//	    Image:          "postgres:16-alpine",
//	    ExposedPorts:   []int{5432},
//	    Network:        nw.Name(),
//	    NetworkAliases: []string{"postgresdb"},
//	    Wait:           &containerizer.WaitSpec{Kind: containerizer.WaitPort, Port: 5432},
//	})
//
// # Thread Safety
//
// All runtime implementations are thread-safe and can be used
// concurrently from multiple goroutines.
package containerizer
