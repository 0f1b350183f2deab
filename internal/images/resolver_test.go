package images

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagehand/internal/testing/mock"
	"stagehand/pkg/logging"
)

var testCatalog = map[string]string{
	"postgres":   "postgres:16-alpine",
	"tenant-svc": "ghcr.io/onecx/onecx-tenant-svc:main",
}

type countingVerifier struct {
	mu    sync.Mutex
	calls map[string]int
	rt    *mock.Runtime
	v     *RuntimeVerifier
}

func newCountingVerifier(rt *mock.Runtime) *countingVerifier {
	return &countingVerifier{calls: make(map[string]int), rt: rt, v: NewRuntimeVerifier(rt, 0, logging.Nop())}
}

func (c *countingVerifier) Verify(ctx context.Context, image string) error {
	c.mu.Lock()
	c.calls[image]++
	c.mu.Unlock()
	return c.v.Verify(ctx, image)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		override  string
		failing   []string
		want      string
		wantWarn  bool
		wantError bool
	}{
		{
			name: "default without override",
			key:  "postgres",
			want: "postgres:16-alpine",
		},
		{
			name:     "verifiable override",
			key:      "tenant-svc",
			override: "ghcr.io/onecx/onecx-tenant-svc:pr-42",
			want:     "ghcr.io/onecx/onecx-tenant-svc:pr-42",
		},
		{
			name:     "unverifiable override falls back to default",
			key:      "tenant-svc",
			override: "ghcr.io/onecx/onecx-tenant-svc:missing",
			failing:  []string{"ghcr.io/onecx/onecx-tenant-svc:missing"},
			want:     "ghcr.io/onecx/onecx-tenant-svc:main",
			wantWarn: true,
		},
		{
			name:     "unverifiable default is returned anyway",
			key:      "postgres",
			failing:  []string{"postgres:16-alpine"},
			want:     "postgres:16-alpine",
			wantWarn: true,
		},
		{
			name:     "custom container without default keeps its image",
			key:      "custom-svc",
			override: "ghcr.io/acme/custom:1",
			want:     "ghcr.io/acme/custom:1",
		},
		{
			name:      "unknown name without override",
			key:       "billing-svc",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := mock.NewRuntime()
			for _, image := range tt.failing {
				rt.FailImages[image] = true
			}
			out := &bytes.Buffer{}
			r := NewResolver(testCatalog, NewRuntimeVerifier(rt, 0, logging.Nop()), logging.New(logging.LevelDebug, out))

			got, err := r.Resolve(context.Background(), tt.key, tt.override)

			if tt.wantError {
				assert.ErrorIs(t, err, ErrUnknownImage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.wantWarn {
				assert.Contains(t, out.String(), "level=WARN")
			} else {
				assert.NotContains(t, out.String(), "level=WARN")
			}
			assert.NotContains(t, out.String(), "level=ERROR")
		})
	}
}

func TestRuntimeVerifier_StopsThrowawayContainer(t *testing.T) {
	rt := mock.NewRuntime()
	v := NewRuntimeVerifier(rt, 0, logging.Nop())

	require.NoError(t, v.Verify(context.Background(), "postgres:16-alpine"))

	containers := rt.Containers()
	require.Len(t, containers, 1)
	assert.Equal(t, 1, containers[0].StopCalls())
}

func TestRuntimeVerifier_LocalImageSkipsPull(t *testing.T) {
	rt := mock.NewRuntime()
	rt.LocalImages["postgres:16-alpine"] = true
	v := NewRuntimeVerifier(rt, 0, logging.Nop())

	require.NoError(t, v.Verify(context.Background(), "postgres:16-alpine"))
	assert.Empty(t, rt.Containers())
}

func TestResolveAll(t *testing.T) {
	rt := mock.NewRuntime()
	rt.FailImages["bad:override"] = true
	verifier := newCountingVerifier(rt)
	r := NewResolver(testCatalog, verifier, logging.Nop())

	resolved, err := r.ResolveAll(context.Background(),
		[]string{"postgres", "tenant-svc", "billing-svc", "postgres", "custom-svc"},
		map[string]string{"tenant-svc": "bad:override", "custom-svc": "acme/custom:1"},
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownImage)
	assert.Contains(t, err.Error(), "billing-svc")
	assert.Equal(t, map[string]string{
		"postgres":   "postgres:16-alpine",
		"tenant-svc": "ghcr.io/onecx/onecx-tenant-svc:main",
		"custom-svc": "acme/custom:1",
	}, resolved)

	verifier.mu.Lock()
	defer verifier.mu.Unlock()
	assert.Equal(t, 1, verifier.calls["postgres:16-alpine"], "duplicate names are verified once")
}

func TestResolve_CachesVerification(t *testing.T) {
	rt := mock.NewRuntime()
	verifier := newCountingVerifier(rt)
	r := NewResolver(testCatalog, verifier, logging.Nop())

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "postgres", "")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, verifier.calls["postgres:16-alpine"])
	assert.Len(t, rt.Containers(), 1)
}

func TestNewResolver_DefaultCatalog(t *testing.T) {
	r := NewResolver(nil, nil, logging.Nop())

	image, ok := r.Default("keycloak")
	require.True(t, ok)
	assert.Contains(t, image, "keycloak")

	got, err := r.Resolve(context.Background(), "shell-ui", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultImages["shell-ui"], got)
}
