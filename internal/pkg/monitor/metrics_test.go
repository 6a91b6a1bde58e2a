package monitor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectSystem(t *testing.T) {
	m, _ := CollectSystem(t.TempDir())
	require.NotNil(t, m)

	assert.GreaterOrEqual(t, m.MemoryUsage, 0.0)
	assert.LessOrEqual(t, m.DiskUsage, 100.0)
}

func TestCollectSystem_MissingDiskPath(t *testing.T) {
	m, err := CollectSystem(filepath.Join(t.TempDir(), "missing"))
	require.NotNil(t, m)
	assert.Error(t, err)
	assert.Zero(t, m.DiskFree)
}

func TestCollectHost(t *testing.T) {
	info, _ := CollectHost()
	require.NotNil(t, info)

	assert.NotEmpty(t, info.OS)
	assert.NotEmpty(t, info.Arch)
	assert.Positive(t, info.CPUCores)
}

func TestHeartbeat(t *testing.T) {
	m := &SystemMetrics{CPUUsage: 12.5, MemoryUsage: 40, DiskUsage: 70}
	hb := m.Heartbeat()

	assert.Equal(t, Hostname(), hb.Hostname)
	assert.Equal(t, 12.5, hb.CPUUsage)
	assert.Equal(t, 40.0, hb.MemoryUsage)
	assert.Equal(t, 70.0, hb.DiskUsage)
}

func TestDeviceAvailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video0")
	assert.False(t, DeviceAvailable(path))
	assert.False(t, DeviceAvailable(""))

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	assert.True(t, DeviceAvailable(path))
}
