package debugattach

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomcat-devloop/internal/config"
)

func TestWriteLaunchConfig(t *testing.T) {
	dir := t.TempDir()
	ws := &config.Workspace{AppContext: "web", JpdaAddress: "*:5005"}

	written, err := WriteLaunchConfig(dir, ws)
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(LaunchPath(dir))
	require.NoError(t, err)
	var doc LaunchFile
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Configurations, 1)
	assert.Equal(t, LaunchConfiguration{
		Name:     "Debug web",
		Type:     "java",
		Request:  "attach",
		HostName: "localhost",
		Port:     5005,
		Timeout:  AttachTimeout,
	}, doc.Configurations[0])

	// 已存在的文件保持不变
	ws.JpdaAddress = "9000"
	written, err = WriteLaunchConfig(dir, ws)
	require.NoError(t, err)
	assert.False(t, written)
	again, _ := os.ReadFile(LaunchPath(dir))
	assert.Equal(t, data, again)
}

func TestWriteLaunchConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	written, err := WriteLaunchConfig(dir, &config.Workspace{})
	require.NoError(t, err)
	require.True(t, written)

	data, err := os.ReadFile(LaunchPath(dir))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Debug Spring Application"`)
	assert.Contains(t, string(data), `"port": 8000`)

	_, err = WriteLaunchConfig(t.TempDir(), &config.Workspace{JpdaAddress: "localhost:debug"})
	assert.Error(t, err)
}
