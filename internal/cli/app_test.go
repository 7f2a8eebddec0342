//go:build !llama

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qexpand/internal/config"
	"qexpand/internal/manager"
	"qexpand/internal/tracking"
	"qexpand/pkg/types"
)

// offlineConfig never touches the network: downloads are off, so the
// tokenizer lookup fails and the manager settles on the mock handles.
func offlineConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv(manager.CredentialEnv, "hf_test")
	t.Setenv(config.EnvMLflowURI, "")
	t.Setenv(config.EnvAddr, "")
	cfg, err := config.Resolve("")
	require.NoError(t, err)
	off := false
	cfg.AllowDownload = &off
	cfg.ModelsDir = t.TempDir()
	cfg.MockDelayMS = 1
	cfg.LogLevel = "error"
	cfg.LogFormat = "json"
	return cfg
}

func TestRunExpand_MockPathPrintsResults(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Tracking.SQLitePath = filepath.Join(t.TempDir(), "runs.db")

	var out bytes.Buffer
	err := runExpand(context.Background(), cfg, []string{"ML algos", "k8s"}, false, &out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ML algos -> machine learning algorithms", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "k8s -> "))

	st, err := tracking.OpenSQLite(cfg.Tracking.SQLitePath, tracking.DefaultTags("test"))
	require.NoError(t, err)
	defer st.Close()
	sum, err := st.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Runs)
	assert.Equal(t, 2, sum.DegradedRuns)
}

func TestRunExpand_JSON(t *testing.T) {
	cfg := offlineConfig(t)
	var out bytes.Buffer
	require.NoError(t, runExpand(context.Background(), cfg, []string{"enginer"}, true, &out))
	var resp types.ExpandResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "enginer", resp.OriginalQuery)
	assert.Equal(t, "engineer", resp.ExpandedQuery)
	assert.True(t, resp.Degraded)
}

func TestRunExpand_MissingCredentialIsConfigurationError(t *testing.T) {
	cfg := offlineConfig(t)
	t.Setenv(manager.CredentialEnv, "")
	err := runExpand(context.Background(), cfg, []string{"x"}, false, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, manager.IsConfiguration(err))
}

func TestBuildApp_BadTemplateIsConfigurationError(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.PromptTemplate = "no placeholder here"
	_, err := buildApp(cfg, newLogger(&bytes.Buffer{}, "error", "json"), false)
	require.Error(t, err)
	assert.True(t, manager.IsConfiguration(err))
}

func TestBuildApp_QueueOnlyWhenConfigured(t *testing.T) {
	cfg := offlineConfig(t)
	log := newLogger(&bytes.Buffer{}, "error", "json")

	a, err := buildApp(cfg, log, true)
	require.NoError(t, err)
	assert.Nil(t, a.queue)
	assert.Nil(t, a.worker)
	require.NoError(t, a.Close())

	cfg.QueueDBPath = filepath.Join(t.TempDir(), "queue.db")
	a, err = buildApp(cfg, log, true)
	require.NoError(t, err)
	assert.NotNil(t, a.queue)
	assert.NotNil(t, a.worker)
	require.NoError(t, a.Close())
}

func TestRunCheck_ListsLocalArtifacts(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Device = "cpu"
	cfg.APIKeys = []string{"secret"}
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ModelsDir, "Meta-Llama-3.1-8B-Instruct-Q8_0.gguf"), []byte("x"), 0o644))

	var out bytes.Buffer
	require.NoError(t, runCheck(cfg, &out))
	s := out.String()
	assert.Contains(t, s, "Meta-Llama-3.1-8B-Instruct-Q8_0.gguf [q8_0]")
	assert.Contains(t, s, "cpu-int8: device=cpu quant=q8_0")
	assert.Contains(t, s, "fallback-fp")
	assert.Contains(t, s, manager.CredentialEnv+": set")
	assert.NotContains(t, s, "secret")
}

func TestRunServe_ServesUntilCanceled(t *testing.T) {
	cfg := offlineConfig(t)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	cfg.Addr = l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg) }()

	var health types.HealthResponse
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + cfg.Addr + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if json.NewDecoder(resp.Body).Decode(&health) != nil {
			return false
		}
		return health.Status == "healthy"
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, health.ModelLoaded)
	assert.Equal(t, "mock", health.Strategy)

	resp, err := http.Post("http://"+cfg.Addr+"/expand", "application/json", strings.NewReader(`{"query":"ML algos"}`))
	require.NoError(t, err)
	var body types.ExpandResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	_ = resp.Body.Close()
	assert.Equal(t, "machine learning algorithms", body.ExpandedQuery)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
