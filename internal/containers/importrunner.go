package containers

import (
	"context"

	"stagehand/internal/config"
	"stagehand/internal/containerizer"
	"stagehand/internal/healthcheck"
	"stagehand/internal/registry"
)

// DescriptorMountPath is where the import runner expects the descriptor.
const DescriptorMountPath = "/import/container-info.json"

// ImportRunnerSpec configures the short-lived import runner.
type ImportRunnerSpec struct {
	Image          string
	Alias          string
	DescriptorPath string
	Env            map[string]string
	Wait           *containerizer.WaitSpec
}

// Start runs the import runner with the descriptor at DescriptorPath mounted
// read-only. The runner is not waited for; completion is polled by the
// caller.
func (s ImportRunnerSpec) Start(ctx context.Context, env Env) (*StartedImportRunner, error) {
	if s.Image == "" {
		return nil, config.NewMissingFieldError(config.KeyImportManager, "image")
	}
	if s.DescriptorPath == "" {
		return nil, config.NewMissingFieldError(config.KeyImportManager, "descriptorPath")
	}
	s.Alias = orDefault(s.Alias, config.KeyImportManager)

	computed := map[string]string{
		"CONTAINER_INFO_PATH": DescriptorMountPath,
	}

	spec := containerizer.ContainerSpec{
		Image: s.Image,
		Env:   mergeEnv(computed, s.Env),
		Files: []containerizer.FileMount{{
			HostPath:      s.DescriptorPath,
			ContainerPath: DescriptorMountPath,
			Mode:          0o444,
		}},
	}
	if s.Wait != nil {
		w := *s.Wait
		spec.Wait = &w
	}

	c, err := run(ctx, env, s.Alias, spec)
	if err != nil {
		return nil, err
	}
	return &StartedImportRunner{
		started: started{key: config.KeyImportManager, container: c, alias: s.Alias},
	}, nil
}

// StartedImportRunner is a running import runner.
type StartedImportRunner struct {
	started
}

// MappedPort reports 0; the runner exposes no port.
func (r *StartedImportRunner) MappedPort(ctx context.Context) (int, error) {
	return 0, nil
}

// HealthProbe always skips.
func (r *StartedImportRunner) HealthProbe(ctx context.Context) (healthcheck.Probe, error) {
	return healthcheck.Skip("import runner has no health endpoint"), nil
}

var _ registry.Handle = (*StartedImportRunner)(nil)
var _ healthcheck.Checkable = (*StartedImportRunner)(nil)
