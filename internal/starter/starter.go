package starter

import (
	"context"
	"fmt"

	"stagehand/internal/config"
	"stagehand/internal/containers"
	"stagehand/internal/dependency"
	"stagehand/internal/registry"
	"stagehand/pkg/logging"
)

const subsystem = "Starter"

// ImageResolver decides which image a logical container runs.
type ImageResolver interface {
	Resolve(ctx context.Context, name, override string) (string, error)
}

// Config holds the collaborators of a Starter.
type Config struct {
	Platform config.PlatformConfig
	Env      containers.Env
	Registry *registry.Registry
	Images   ImageResolver
	Logger   *logging.Logger
}

// Starter brings the platform up stage by stage. Every container is added to
// the registry as soon as it runs, so a failed stage leaves a registry that
// lists exactly what is running.
type Starter struct {
	platform  config.PlatformConfig
	env       containers.Env
	registry  *registry.Registry
	images    ImageResolver
	logger    *logging.Logger
	overrides map[string]string
}

// New creates a starter.
func New(cfg Config) *Starter {
	env := cfg.Env
	if env.Logger == nil {
		env.Logger = cfg.Logger
	}
	env.Logging = cfg.Platform.EnableLogging

	return &Starter{
		platform:  cfg.Platform,
		env:       env,
		registry:  cfg.Registry,
		images:    cfg.Images,
		logger:    cfg.Logger,
		overrides: cfg.Platform.PlatformOverrides.Overrides(),
	}
}

// StartAll runs every stage in order and stops at the first error.
func (s *Starter) StartAll(ctx context.Context) error {
	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{"core", s.StartCore},
		{"services", s.StartServices},
		{"gateway", s.StartGateway},
		{"ui", s.StartUI},
		{"custom", s.StartCustom},
	}
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.logger.Debug(subsystem, "Running %s stage", stage.name)
		if err := stage.run(ctx); err != nil {
			return err
		}
	}
	return nil
}

// StartCore starts Postgres and then the identity provider.
func (s *Starter) StartCore(ctx context.Context) error {
	image, err := s.image(ctx, config.KeyPostgres, s.overrides[config.KeyPostgres])
	if err != nil {
		return err
	}
	pg, err := containers.PostgresSpec{Image: image}.Start(ctx, s.env)
	if err != nil {
		return err
	}
	s.register(pg)

	image, err = s.image(ctx, config.KeyKeycloak, s.overrides[config.KeyKeycloak])
	if err != nil {
		return err
	}
	kc, err := containers.KeycloakSpec{Image: image}.Start(ctx, s.env, pg)
	if err != nil {
		return err
	}
	s.register(kc)
	return nil
}

// ServiceGraph builds the dependency graph of the enabled built-in services.
func (s *Starter) ServiceGraph() *dependency.Graph {
	g := dependency.New()
	for _, name := range s.platform.Components.EnabledServices() {
		entry, ok := containers.Builtin(name)
		if !ok {
			continue
		}
		deps := make([]dependency.NodeID, len(entry.Requires))
		for i, r := range entry.Requires {
			deps[i] = dependency.NodeID(r)
		}
		g.AddNode(dependency.Node{
			ID:           dependency.NodeID(entry.Key),
			FriendlyName: entry.Alias,
			Kind:         dependency.KindService,
			DependsOn:    deps,
			State:        dependency.StateStopped,
		})
	}
	return g
}

// StartServices starts the enabled backend services in dependency order.
// Unsatisfiable dependencies fail before the first service is created.
func (s *Starter) StartServices(ctx context.Context) error {
	g := s.ServiceGraph()
	if missing := g.Missing(); len(missing) > 0 {
		m := missing[0]
		return config.NewMissingDependencyError(string(m.Node), string(m.Dependency))
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return fmt.Errorf("failed to order services: %w", err)
	}
	if len(order) == 0 {
		return nil
	}

	pg, kc, err := s.core()
	if err != nil {
		return err
	}

	for _, id := range order {
		entry, _ := containers.Builtin(string(id))
		for _, dep := range entry.Requires {
			if !s.registry.Has(dep) {
				g.SetState(id, dependency.StateError)
				return config.NewMissingDependencyError(string(entry.Key), string(dep))
			}
		}

		image, err := s.image(ctx, string(entry.Key), s.overrides[string(entry.Key)])
		if err != nil {
			return err
		}
		g.SetState(id, dependency.StateStarting)
		svc, err := entry.Spec(image).Start(ctx, s.env, pg, kc)
		if err != nil {
			g.SetState(id, dependency.StateError)
			return err
		}
		s.register(svc)
		g.SetState(id, dependency.StateRunning)
	}
	return nil
}

// StartGateway starts the built-in gateway when it is enabled.
func (s *Starter) StartGateway(ctx context.Context) error {
	if !s.platform.Components.BFF {
		s.logger.Debug(subsystem, "Gateway disabled, skipping")
		return nil
	}
	kc, ok := registry.GetAs[*containers.StartedKeycloak](s.registry, config.KeyKeycloak)
	if !ok {
		return config.NewMissingDependencyError(config.KeyShellBFF, config.KeyKeycloak)
	}

	image, err := s.image(ctx, config.KeyShellBFF, s.overrides[config.KeyShellBFF])
	if err != nil {
		return err
	}
	gw, err := containers.GatewaySpec{Image: image}.Start(ctx, s.env, kc, s.services()...)
	if err != nil {
		return err
	}
	s.register(gw)
	return nil
}

// StartUI starts the built-in UI when it is enabled.
func (s *Starter) StartUI(ctx context.Context) error {
	if !s.platform.Components.UI {
		s.logger.Debug(subsystem, "UI disabled, skipping")
		return nil
	}
	gw, ok := registry.GetAs[*containers.StartedGateway](s.registry, config.KeyShellBFF)
	if !ok {
		return config.NewMissingDependencyError(config.KeyShellUI, config.KeyShellBFF)
	}
	kc, _ := registry.GetAs[*containers.StartedKeycloak](s.registry, config.KeyKeycloak)

	image, err := s.image(ctx, config.KeyShellUI, s.overrides[config.KeyShellUI])
	if err != nil {
		return err
	}
	ui, err := containers.UISpec{Image: image}.Start(ctx, s.env, gw, kc)
	if err != nil {
		return err
	}
	s.register(ui)
	return nil
}

// StartCustom starts the user-declared containers: services, then gateways,
// then UIs. Each is registered under its network alias.
func (s *Starter) StartCustom(ctx context.Context) error {
	custom := s.platform.Container
	if custom.Len() == 0 {
		return nil
	}
	s.logger.Info(subsystem, "Starting %d custom containers", custom.Len())

	for _, def := range custom.Service {
		if err := s.startCustomService(ctx, def); err != nil {
			return err
		}
	}
	for _, def := range custom.BFF {
		if err := s.startCustomGateway(ctx, def); err != nil {
			return err
		}
	}
	for _, def := range custom.UI {
		if err := s.startCustomUI(ctx, def); err != nil {
			return err
		}
	}
	return nil
}

func (s *Starter) startCustomService(ctx context.Context, def config.ContainerDefinition) error {
	key, image, err := s.prepareCustom(ctx, def)
	if err != nil {
		return err
	}

	if def.Database == nil {
		port := def.Port
		if port == 0 {
			port = containers.DefaultServicePort
		}
		g, err := containers.GenericSpec{
			Key:        key,
			Image:      image,
			Alias:      def.NetworkAlias,
			Port:       port,
			HealthPath: def.HealthPath,
			Env:        def.Env,
		}.Start(ctx, s.env)
		if err != nil {
			return err
		}
		s.register(g)
		return nil
	}

	spec := containers.ServiceSpec{
		Key:        key,
		Image:      image,
		Alias:      def.NetworkAlias,
		Port:       def.Port,
		HealthPath: def.HealthPath,
		Database:   *def.Database,
		Env:        def.Env,
	}
	pg, kc, err := s.core()
	if err != nil {
		return err
	}
	svc, err := spec.Start(ctx, s.env, pg, kc)
	if err != nil {
		return err
	}
	s.register(svc)
	return nil
}

func (s *Starter) startCustomGateway(ctx context.Context, def config.ContainerDefinition) error {
	key, image, err := s.prepareCustom(ctx, def)
	if err != nil {
		return err
	}
	kc, ok := registry.GetAs[*containers.StartedKeycloak](s.registry, config.KeyKeycloak)
	if !ok {
		return config.NewMissingDependencyError(def.NetworkAlias, config.KeyKeycloak)
	}
	gw, err := containers.GatewaySpec{
		Key:        key,
		Image:      image,
		Alias:      def.NetworkAlias,
		Port:       def.Port,
		HealthPath: def.HealthPath,
		Env:        def.Env,
	}.Start(ctx, s.env, kc, s.services()...)
	if err != nil {
		return err
	}
	s.register(gw)
	return nil
}

func (s *Starter) startCustomUI(ctx context.Context, def config.ContainerDefinition) error {
	key, image, err := s.prepareCustom(ctx, def)
	if err != nil {
		return err
	}
	gw, ok := registry.GetAs[*containers.StartedGateway](s.registry, config.KeyShellBFF)
	if !ok {
		return config.NewMissingDependencyError(def.NetworkAlias, config.KeyShellBFF)
	}
	kc, _ := registry.GetAs[*containers.StartedKeycloak](s.registry, config.KeyKeycloak)
	ui, err := containers.UISpec{
		Key:   key,
		Image: image,
		Alias: def.NetworkAlias,
		Port:  def.Port,
		Env:   def.Env,
	}.Start(ctx, s.env, gw, kc)
	if err != nil {
		return err
	}
	s.register(ui)
	return nil
}

// prepareCustom checks the alias and resolves the image of a definition.
func (s *Starter) prepareCustom(ctx context.Context, def config.ContainerDefinition) (registry.Key, string, error) {
	if def.NetworkAlias == "" {
		return "", "", config.NewMissingFieldError("custom container", "networkAlias")
	}
	key := registry.Key(def.NetworkAlias)
	if config.IsReservedKey(def.NetworkAlias) || s.registry.Has(key) {
		return "", "", &config.ConfigurationError{
			Component: def.NetworkAlias,
			Field:     "networkAlias",
			Message:   fmt.Sprintf("networkAlias %q is already in use", def.NetworkAlias),
		}
	}
	image, err := s.image(ctx, def.NetworkAlias, def.Image)
	if err != nil {
		return "", "", err
	}
	return key, image, nil
}

// core returns the registered core containers.
func (s *Starter) core() (*containers.StartedPostgres, *containers.StartedKeycloak, error) {
	pg, ok := registry.GetAs[*containers.StartedPostgres](s.registry, config.KeyPostgres)
	if !ok {
		return nil, nil, fmt.Errorf("core stage has not run: %s is not registered", config.KeyPostgres)
	}
	kc, _ := registry.GetAs[*containers.StartedKeycloak](s.registry, config.KeyKeycloak)
	return pg, kc, nil
}

// services returns the registered built-in services in catalog order.
func (s *Starter) services() []*containers.StartedService {
	var out []*containers.StartedService
	for _, entry := range containers.Builtins() {
		if svc, ok := registry.GetAs[*containers.StartedService](s.registry, entry.Key); ok {
			out = append(out, svc)
		}
	}
	return out
}

func (s *Starter) image(ctx context.Context, name, override string) (string, error) {
	if s.images == nil {
		if override == "" {
			return "", fmt.Errorf("no image resolver configured for %s", name)
		}
		return override, nil
	}
	image, err := s.images.Resolve(ctx, name, override)
	if err != nil {
		return "", fmt.Errorf("failed to resolve image for %s: %w", name, err)
	}
	return image, nil
}

func (s *Starter) register(h registry.Handle) {
	s.registry.Add(h.Key(), h)
	s.logger.Info(subsystem, "Started %s", h.Key())
}
