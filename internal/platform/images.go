package platform

import (
	"context"

	"stagehand/internal/config"
	"stagehand/internal/images"
)

// resolvedImages serves the images resolved when the platform started.
// Names outside the table fall through to the resolver.
type resolvedImages struct {
	table    map[string]string
	resolver *images.Resolver
}

func (r *resolvedImages) Resolve(ctx context.Context, name, override string) (string, error) {
	if image, ok := r.table[name]; ok {
		return image, nil
	}
	return r.resolver.Resolve(ctx, name, override)
}

// ImageRequests lists every logical container cfg starts and the override
// requested for it.
func ImageRequests(cfg config.PlatformConfig) ([]string, map[string]string) {
	names := []string{config.KeyPostgres, config.KeyKeycloak}
	names = append(names, cfg.Components.EnabledServices()...)
	if cfg.Components.BFF {
		names = append(names, config.KeyShellBFF)
	}
	if cfg.Components.UI {
		names = append(names, config.KeyShellUI)
	}

	overrides := cfg.PlatformOverrides.Overrides()
	for _, defs := range []config.Definitions{cfg.Container.Service, cfg.Container.BFF, cfg.Container.UI} {
		for _, def := range defs {
			if def.NetworkAlias == "" || def.Image == "" {
				continue
			}
			names = append(names, def.NetworkAlias)
			overrides[def.NetworkAlias] = def.Image
		}
	}
	if cfg.ImportData {
		names = append(names, config.KeyImportManager)
		if cfg.Importer.Image != "" {
			overrides[config.KeyImportManager] = cfg.Importer.Image
		}
	}
	return names, overrides
}
