package images

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"stagehand/internal/config"
	"stagehand/pkg/logging"
)

const resolverSubsystem = "ImageResolver"

// maxConcurrentVerifications bounds parallel pulls in ResolveAll.
const maxConcurrentVerifications = 4

// DefaultImages is the compiled-in image catalog keyed by container key.
var DefaultImages = map[string]string{
	config.KeyPostgres:      "docker.io/library/postgres:16-alpine",
	config.KeyKeycloak:      "quay.io/keycloak/keycloak:23.0.7",
	config.KeyTenantSvc:     "ghcr.io/onecx/onecx-tenant-svc:main",
	config.KeyPermissionSvc: "ghcr.io/onecx/onecx-permission-svc:main",
	config.KeyWorkspaceSvc:  "ghcr.io/onecx/onecx-workspace-svc:main",
	config.KeyThemeSvc:      "ghcr.io/onecx/onecx-theme-svc:main",
	config.KeyShellBFF:      "ghcr.io/onecx/onecx-shell-bff:main",
	config.KeyShellUI:       "ghcr.io/onecx/onecx-shell-ui:main",
	config.KeyImportManager: config.DefaultImporterImage,
}

// ErrUnknownImage is returned for a logical name with neither a default nor
// an override.
var ErrUnknownImage = errors.New("no image known for container")

// Verifier checks that an image can be pulled and started.
type Verifier interface {
	Verify(ctx context.Context, image string) error
}

// Resolver decides which image reference each logical container uses.
//
// An override that fails verification falls back to the default with a
// warning. A default that fails verification is returned anyway; the real
// start surfaces the runtime error.
type Resolver struct {
	defaults map[string]string
	verifier Verifier
	logger   *logging.Logger

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]error
}

// NewResolver creates a resolver over the given default catalog. A nil
// catalog uses DefaultImages.
func NewResolver(defaults map[string]string, verifier Verifier, logger *logging.Logger) *Resolver {
	if defaults == nil {
		defaults = DefaultImages
	}
	copied := make(map[string]string, len(defaults))
	for k, v := range defaults {
		copied[k] = v
	}
	return &Resolver{
		defaults: copied,
		verifier: verifier,
		logger:   logger,
		cache:    make(map[string]error),
	}
}

// Default returns the compiled-in image for name.
func (r *Resolver) Default(name string) (string, bool) {
	image, ok := r.defaults[name]
	return image, ok
}

// Resolve returns the image to use for name.
func (r *Resolver) Resolve(ctx context.Context, name, override string) (string, error) {
	def, hasDefault := r.defaults[name]

	if override != "" {
		err := r.verify(ctx, override)
		if err == nil {
			r.logger.Debug(resolverSubsystem, "Using override image %s for %s", override, name)
			return override, nil
		}
		if !hasDefault {
			r.logger.Warn(resolverSubsystem, "Override image %s for %s could not be verified and no default exists: %v", override, name, err)
			return override, nil
		}
		r.logger.Warn(resolverSubsystem, "Override image %s for %s could not be verified, falling back to %s: %v", override, name, def, err)
	}

	if !hasDefault {
		return "", fmt.Errorf("%w %s", ErrUnknownImage, name)
	}

	if err := r.verify(ctx, def); err != nil {
		r.logger.Warn(resolverSubsystem, "Default image %s for %s could not be verified, using it anyway: %v", def, name, err)
	}
	return def, nil
}

// ResolveAll resolves every name concurrently. overrides maps names to
// override images and may be nil. A failing name does not affect the others;
// their errors are joined.
func (r *Resolver) ResolveAll(ctx context.Context, names []string, overrides map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(names))
	var (
		mu   sync.Mutex
		errs []error
	)

	unique := make(map[string]bool, len(names))
	var ordered []string
	for _, name := range names {
		if !unique[name] {
			unique[name] = true
			ordered = append(ordered, name)
		}
	}
	sort.Strings(ordered)

	var g errgroup.Group
	g.SetLimit(maxConcurrentVerifications)
	for _, name := range ordered {
		g.Go(func() error {
			image, err := r.Resolve(ctx, name, overrides[name])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			resolved[name] = image
			return nil
		})
	}
	_ = g.Wait()

	return resolved, errors.Join(errs...)
}

// verify runs the verifier once per image; concurrent and repeated requests
// share the outcome.
func (r *Resolver) verify(ctx context.Context, image string) error {
	if r.verifier == nil {
		return nil
	}

	r.mu.Lock()
	if err, done := r.cache[image]; done {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	_, err, _ := r.group.Do(image, func() (interface{}, error) {
		err := r.verifier.Verify(ctx, image)
		if ctx.Err() == nil {
			r.mu.Lock()
			r.cache[image] = err
			r.mu.Unlock()
		}
		return nil, err
	})
	return err
}
