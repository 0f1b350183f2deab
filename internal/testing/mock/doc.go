// Package mock provides in-memory fakes for testing stagehand components
// without a container engine or a database.
//
// Key Components:
//
// Runtime: A containerizer.Runtime and containerizer.ImageInspector that
// records every ContainerSpec it is asked to start and returns Containers
// with deterministic host ports (40000, 40001, ...). Image failures, network
// failures and exec results are configurable per test.
//
// Container: The started-container fake. It records Exec and Stop calls so
// tests can assert on health probes, import polling and teardown order.
//
// Provisioner: Records database provisioning requests for backend services
// and the identity provider.
//
// Usage:
//
//	rt := mock.NewRuntime()
//	rt.FailImages["ghcr.io/example/broken:latest"] = true
//	rt.ExecFunc = func(spec containerizer.ContainerSpec, cmd []string) (containerizer.ExecResult, error) {
//	    return containerizer.ExecResult{ExitCode: 1}, nil
//	}
package mock
