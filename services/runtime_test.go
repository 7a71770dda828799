package services

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomcat-devloop/internal/config"
	"tomcat-devloop/internal/output"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	t.Setenv("CATALINA_HOME", "")
	for _, key := range config.Keys {
		t.Setenv(key, "")
	}
	rt, err := NewRuntime(RuntimeOptions{
		WorkspaceDir: t.TempDir(),
		Sink:         output.NewBufferSink(0),
		Notifier:     &output.Recorder{},
		Executor:     &fakeExecutor{},
		Platform:     &fakePlatform{},
		Patterns:     []string{"catalina"},
	})
	require.NoError(t, err)
	return rt
}

/**
 * Test settings changes reach every component through the shared record
 * @param {*testing.T} t - Testing framework instance
 */
func TestRuntimeSharedWorkspace(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.SetSetting(config.KeyAppContext, "web", config.ScopeSession))
	assert.Equal(t, "web", rt.Workspace.AppContext)
	assert.Same(t, rt.Workspace, rt.Build.ws)
	assert.Same(t, rt.Workspace, rt.Server.ws)
	assert.Same(t, rt.Workspace, rt.Resources.ws)

	settings := filepath.Join(rt.WorkspaceDir(), ".devloop", "settings.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(settings), 0755))
	require.NoError(t, os.WriteFile(settings, []byte("APP_CONTEXT: api\nPROJECT_PATH: /srv/app\n"), 0644))
	require.NoError(t, rt.Reload())
	assert.Equal(t, "api", rt.Build.ws.AppContext)
	assert.Equal(t, "/srv/app", rt.Server.ws.ProjectPath)
}

// Status and process queries run outside Exclusive while settings change.
func TestRuntimeStatusDuringSettingChange(t *testing.T) {
	rt := newTestRuntime(t)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			assert.NoError(t, rt.SetSetting(config.KeyJpdaAddress, "localhost:"+strconv.Itoa(47000+i), config.ScopeSession))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			status := rt.Server.Status()
			assert.NotEmpty(t, status.DebugAddress)
			rt.Server.Processes(context.Background())
		}
	}()
	wg.Wait()
	assert.Equal(t, "localhost:47099", rt.Server.Status().DebugAddress)
}

func TestRuntimeMetricsDisabled(t *testing.T) {
	rt := newTestRuntime(t)
	done := make(chan struct{})
	go func() {
		rt.StartReportMetrics(context.Background(), config.MetricsConfig{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("metrics loop should return when disabled")
	}
	assert.Error(t, PushMetrics("", rt.WorkspaceDir()))
}
