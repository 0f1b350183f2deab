package platform

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagehand/internal/config"
	"stagehand/internal/containerizer"
	"stagehand/internal/containers"
	"stagehand/internal/registry"
	"stagehand/internal/testing/mock"
	"stagehand/pkg/logging"
)

type acceptAll struct{}

func (acceptAll) Verify(ctx context.Context, image string) error { return nil }

// healthServer answers every probe with the current status.
type healthServer struct {
	*httptest.Server
	status atomic.Int32
	port   int
}

func newHealthServer(t *testing.T) *healthServer {
	t.Helper()
	hs := &healthServer{}
	hs.status.Store(http.StatusOK)
	hs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(hs.status.Load()))
	}))
	t.Cleanup(hs.Close)

	u, err := url.Parse(hs.URL)
	require.NoError(t, err)
	hs.port, err = strconv.Atoi(u.Port())
	require.NoError(t, err)
	return hs
}

type fixture struct {
	manager  *Manager
	runtime  *mock.Runtime
	server   *healthServer
	logs     *bytes.Buffer
	provider *mock.Provisioner
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	rt := mock.NewRuntime()
	hs := newHealthServer(t)
	rt.MapPort = func(spec containerizer.ContainerSpec, containerPort int) int {
		return hs.port
	}

	var logs bytes.Buffer
	prov := &mock.Provisioner{}
	opts.Runtime = rt
	opts.Logger = logging.New(logging.LevelDebug, &logs)
	opts.Provisioner = prov
	if opts.Verifier == nil {
		opts.Verifier = acceptAll{}
	}
	return fixture{manager: New(opts), runtime: rt, server: hs, logs: &logs, provider: prov}
}

func coreOnly() *config.PlatformConfig {
	cfg := config.Default()
	cfg.Components = config.ComponentsConfig{Services: []string{}}
	return &cfg
}

func TestStart_CoreOnly(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	require.NoError(t, f.manager.Start(ctx, coreOnly()))
	defer f.manager.Stop(ctx)

	all := f.manager.GetAllContainers()
	assert.Len(t, all, 2)
	assert.Contains(t, all, registry.Key(config.KeyPostgres))
	assert.Contains(t, all, registry.Key(config.KeyKeycloak))

	results, err := f.manager.WaitUntilHealthy(ctx, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Healthy, "%s: %s", r.Name, r.Error)
	}
}

func TestStart_ServiceWithSatisfiedDependency(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	cfg := coreOnly()
	cfg.Components.Services = []string{config.KeyTenantSvc, config.KeyPermissionSvc}

	require.NoError(t, f.manager.Start(ctx, cfg))
	defer f.manager.Stop(ctx)

	assert.True(t, f.manager.HasContainer(config.KeyTenantSvc))
	assert.True(t, f.manager.HasContainer(config.KeyPermissionSvc))

	for _, key := range []string{config.KeyTenantSvc, config.KeyPermissionSvc} {
		res, err := f.manager.CheckHealthy(ctx, key)
		require.NoError(t, err)
		assert.True(t, res.Healthy, "%s: %s", key, res.Error)
	}
}

func TestStart_ServiceWithoutDependency(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	cfg := coreOnly()
	cfg.Components.Services = []string{config.KeyPermissionSvc}

	err := f.manager.Start(ctx, cfg)

	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), config.KeyPermissionSvc)
	assert.Nil(t, f.runtime.ContainerByAlias("onecx-permission-svc"))

	// whatever did start stays registered until Stop
	assert.True(t, f.manager.HasContainer(config.KeyPostgres))
	require.NoError(t, f.manager.Stop(ctx))
	assert.Empty(t, f.manager.GetAllContainers())
}

func TestStart_CustomService(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	cfg := coreOnly()
	cfg.Container.Service = config.Definitions{{
		NetworkAlias: "custom-svc",
		Image:        "example/custom-svc:1.0",
		Port:         8080,
		HealthPath:   "/health",
	}}

	require.NoError(t, f.manager.Start(ctx, cfg))
	defer f.manager.Stop(ctx)

	assert.True(t, f.manager.HasContainer("custom-svc"))
	h, ok := f.manager.GetContainer("custom-svc")
	require.True(t, ok)
	port, err := h.MappedPort(ctx)
	require.NoError(t, err)
	assert.Positive(t, port)

	generic, ok := ContainerAs[*containers.StartedGeneric](f.manager, "custom-svc")
	require.True(t, ok)
	assert.Equal(t, "custom-svc", generic.Alias())
}

func TestStart_CustomServiceWithoutPort(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	cfg := coreOnly()
	cfg.Container.Service = config.Definitions{{
		NetworkAlias: "custom-svc",
		Image:        "example/custom-svc:1.0",
	}}

	require.NoError(t, f.manager.Start(ctx, cfg))
	defer f.manager.Stop(ctx)

	h, ok := f.manager.GetContainer("custom-svc")
	require.True(t, ok)
	assert.Equal(t, containers.DefaultServicePort, h.Port())
	port, err := h.MappedPort(ctx)
	require.NoError(t, err)
	assert.Positive(t, port)
}

func TestStart_Twice(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	require.NoError(t, f.manager.Start(ctx, coreOnly()))
	defer f.manager.Stop(ctx)

	err := f.manager.Start(ctx, coreOnly())

	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Len(t, f.runtime.Networks(), 1)
}

func TestStop_ReverseOrderAndIdempotent(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	require.NoError(t, f.manager.Start(ctx, nil))

	require.NoError(t, f.manager.Stop(ctx))
	require.NoError(t, f.manager.Stop(ctx))

	for _, c := range f.runtime.Containers() {
		assert.Equal(t, 1, c.StopCalls(), c.Spec().Image)
	}
	nw := f.runtime.Networks()[0]
	assert.Equal(t, 1, nw.RemoveCalls())
	assert.Empty(t, f.manager.GetAllContainers())

	logs := f.logs.String()
	ui := strings.Index(logs, "Stopped shell-ui")
	pg := strings.Index(logs, "Stopped postgres")
	require.NotEqual(t, -1, ui)
	require.NotEqual(t, -1, pg)
	assert.Less(t, ui, pg, "shell-ui must stop before postgres")
}

func TestStop_BestEffort(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	require.NoError(t, f.manager.Start(ctx, coreOnly()))

	kc := f.runtime.ContainerByAlias("keycloak-app")
	kc.StopErr = errors.New("container already gone")
	f.runtime.Networks()[0].RemoveErr = errors.New("network has active endpoints")

	err := f.manager.Stop(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stop keycloak")
	assert.Equal(t, 1, f.runtime.ContainerByAlias("postgresdb").StopCalls())
	assert.Contains(t, f.logs.String(), "Failed to remove network")
	assert.Empty(t, f.manager.GetAllContainers())
}

func TestStop_BeforeStart(t *testing.T) {
	f := newFixture(t, Options{})
	assert.NoError(t, f.manager.Stop(context.Background()))
}

func TestAccessorsBeforeStart(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.manager.CheckAllHealthy(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = f.manager.CheckHealthy(ctx, config.KeyPostgres)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, f.manager.StartHeartbeat(), ErrNotInitialized)
	assert.ErrorIs(t, f.manager.StopHeartbeat(), ErrNotInitialized)
	_, err = f.manager.IsHeartbeatRunning()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = f.manager.WaitUntilHealthy(ctx, time.Second, time.Millisecond)
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.False(t, f.manager.HasContainer(config.KeyPostgres))
	assert.Empty(t, f.manager.RunID())
}

func TestStart_Heartbeat(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	cfg := coreOnly()
	cfg.Heartbeat = config.HeartbeatConfig{Enabled: true, Interval: config.Millis(time.Hour), FailureThreshold: 2}

	require.NoError(t, f.manager.Start(ctx, cfg))

	running, err := f.manager.IsHeartbeatRunning()
	require.NoError(t, err)
	assert.True(t, running)

	require.NoError(t, f.manager.Stop(ctx))
	running, err = f.manager.IsHeartbeatRunning()
	require.NoError(t, err)
	assert.False(t, running)
}

func TestWaitUntilHealthy_Timeout(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	require.NoError(t, f.manager.Start(ctx, coreOnly()))
	defer f.manager.Stop(ctx)
	f.server.status.Store(http.StatusServiceUnavailable)

	results, err := f.manager.WaitUntilHealthy(ctx, 100*time.Millisecond, 10*time.Millisecond)

	require.ErrorIs(t, err, ErrNotHealthy)
	assert.Contains(t, err.Error(), config.KeyKeycloak)
	assert.Len(t, results, 2)
}

func TestStart_ConfigFromFile(t *testing.T) {
	root := t.TempDir()
	data := `{
  "name": "shell e2e",
  "platformConfig": {
    "components": {"services": ["theme-svc"], "bff": false, "ui": false}
  }
}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "integration-tests.json"), []byte(data), 0o644))

	f := newFixture(t, Options{ConfigRoot: root})
	ctx := context.Background()
	require.NoError(t, f.manager.Start(ctx, nil))
	defer f.manager.Stop(ctx)

	cfg, ok := f.manager.Config()
	require.True(t, ok)
	assert.Equal(t, []string{config.KeyThemeSvc}, cfg.Components.Services)
	assert.Equal(t, []registry.Key{config.KeyPostgres, config.KeyKeycloak, config.KeyThemeSvc}, keysOf(f.manager))
}

func TestStart_InvalidFileFallsBackToDefaults(t *testing.T) {
	root := t.TempDir()
	data := `{"platformConfig": {"importData": "yes"}}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "integration-tests.json"), []byte(data), 0o644))

	f := newFixture(t, Options{ConfigRoot: root})
	ctx := context.Background()
	require.NoError(t, f.manager.Start(ctx, nil))
	defer f.manager.Stop(ctx)

	cfg, _ := f.manager.Config()
	assert.False(t, cfg.ImportData)
	assert.Len(t, f.manager.GetAllContainers(), 8)
	assert.Contains(t, f.logs.String(), "Ignoring invalid configuration")
}

func TestStart_NetworkFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.runtime.NetworkErr = errors.New("docker daemon not reachable")

	err := f.manager.Start(context.Background(), coreOnly())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create platform network")
	assert.Empty(t, f.runtime.Specs())
	assert.NoError(t, f.manager.Stop(context.Background()))
}

func TestStart_ImportData(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.runtime.ExecFunc = func(spec containerizer.ContainerSpec, cmd []string) (containerizer.ExecResult, error) {
		if len(cmd) > 0 && cmd[0] == "pgrep" {
			return containerizer.ExecResult{ExitCode: 1}, nil
		}
		return containerizer.ExecResult{}, nil
	}
	cfg := coreOnly()
	cfg.Components.Services = []string{config.KeyTenantSvc}
	cfg.ImportData = true
	cfg.Importer.DescriptorPath = filepath.Join(t.TempDir(), "info.json")
	cfg.Importer.PollInterval = config.Millis(5 * time.Millisecond)

	require.NoError(t, f.manager.Start(ctx, cfg))
	defer f.manager.Stop(ctx)

	assert.NotNil(t, f.runtime.ContainerByAlias(config.KeyImportManager))
	assert.False(t, f.manager.HasContainer(config.KeyImportManager))
}

func keysOf(m *Manager) []registry.Key {
	return m.registry.Keys()
}
