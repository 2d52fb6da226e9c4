package trafficlight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fujiwara/trafficlight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
light:
  name: crossing
  cycle_min: 40ms
  cycle_max: 60ms
responder:
  addr: "127.0.0.1:0"
hooks:
  - name: announce
    run: echo hello
  - run: "true"
    phase: green
    timeout: 1s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trafficlight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	cfg, err := trafficlight.LoadConfig(context.Background(), writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "crossing", cfg.Light.Name)
	assert.Equal(t, 40*time.Millisecond, cfg.Light.CycleMin)
	assert.Equal(t, 60*time.Millisecond, cfg.Light.CycleMax)
	assert.Equal(t, trafficlight.DefaultPollInterval, cfg.Light.PollInterval)
	assert.Equal(t, "127.0.0.1:0", cfg.Responder.Addr)

	require.Len(t, cfg.Hooks, 2)
	assert.Equal(t, "announce", cfg.Hooks[0].Name)
	assert.Equal(t, trafficlight.DefaultHookTimeout, cfg.Hooks[0].Timeout)
	assert.Equal(t, "hook1", cfg.Hooks[1].Name)
	require.NotNil(t, cfg.Hooks[1].Phase)
	assert.Equal(t, trafficlight.PhaseGreen, *cfg.Hooks[1].Phase)
	assert.Nil(t, cfg.Hooks[0].Phase)
	assert.Equal(t, time.Second, cfg.Hooks[1].Timeout)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := trafficlight.LoadConfig(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, trafficlight.DefaultLightName, cfg.Light.Name)
	assert.Equal(t, trafficlight.DefaultCycleMin, cfg.Light.CycleMin)
	assert.Equal(t, trafficlight.DefaultCycleMax, cfg.Light.CycleMax)
	assert.Equal(t, trafficlight.DefaultPollInterval, cfg.Light.PollInterval)
	assert.Equal(t, trafficlight.DefaultListenAddr, cfg.Responder.Addr)
	assert.Empty(t, cfg.Hooks)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "max below min",
			body: "light:\n  cycle_min: 2s\n  cycle_max: 1s\n",
		},
		{
			name: "negative poll interval",
			body: "light:\n  poll_interval: -1ms\n",
		},
		{
			name: "hook without command",
			body: "hooks:\n  - name: empty\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := trafficlight.LoadConfig(context.Background(), writeConfig(t, tt.body))
			require.ErrorIs(t, err, trafficlight.ErrInvalidConfig)
		})
	}
}

func TestLoadConfigUnknownHookPhase(t *testing.T) {
	_, err := trafficlight.LoadConfig(context.Background(), writeConfig(t, "hooks:\n  - run: \"true\"\n    phase: yellow\n"))
	require.ErrorContains(t, err, "failed to parse config")
}

func TestLoadConfigSingleCycleBound(t *testing.T) {
	cfg, err := trafficlight.LoadConfig(context.Background(), writeConfig(t, "light:\n  cycle_min: 5s\n"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Light.CycleMin)
	assert.Equal(t, trafficlight.DefaultCycleMax, cfg.Light.CycleMax)

	cfg, err = trafficlight.LoadConfig(context.Background(), writeConfig(t, "light:\n  cycle_max: 5s\n"))
	require.NoError(t, err)
	assert.Equal(t, trafficlight.DefaultCycleMin, cfg.Light.CycleMin)
	assert.Equal(t, 5*time.Second, cfg.Light.CycleMax)

	_, err = trafficlight.LoadConfig(context.Background(), writeConfig(t, "light:\n  cycle_min: 7s\n"))
	require.ErrorIs(t, err, trafficlight.ErrInvalidConfig)
}

func TestLoadConfigHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trafficlight.yaml" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(testConfigYAML))
	}))
	defer ts.Close()

	cfg, err := trafficlight.LoadConfig(context.Background(), ts.URL+"/trafficlight.yaml")
	require.NoError(t, err)
	assert.Equal(t, "crossing", cfg.Light.Name)

	_, err = trafficlight.LoadConfig(context.Background(), ts.URL+"/missing.yaml")
	require.Error(t, err)
}

func TestLoadURLUnknownScheme(t *testing.T) {
	_, err := trafficlight.LoadURL(context.Background(), "ftp://example.com/trafficlight.yaml")
	require.ErrorContains(t, err, "scheme must be")
}
