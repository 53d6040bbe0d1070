package config

import (
	"os"
	"path/filepath"
	"testing"

	"whatdidido/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_CreatesDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "data", "config.json")

	mgr, err := NewManager(configPath)
	require.NoError(t, err)

	// 默认配置已落盘
	_, err = os.Stat(configPath)
	require.NoError(t, err)

	cfg := mgr.Get()
	assert.Equal(t, 5, cfg.Capture.IntervalMinutes)
	assert.Equal(t, 9530, cfg.Server.Port)
}

func TestManager_UpdatePersists(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	mgr, err := NewManager(configPath)
	require.NoError(t, err)

	err = mgr.Update(func(cfg *models.AppConfig) {
		cfg.Capture.IntervalMinutes = 10
		cfg.Capture.Enabled = true
	})
	require.NoError(t, err)

	// 重新加载能读回修改
	mgr2, err := NewManager(configPath)
	require.NoError(t, err)
	assert.Equal(t, 10, mgr2.GetCapture().IntervalMinutes)
	assert.True(t, mgr2.GetCapture().Enabled)
}

func TestManager_GetReturnsCopy(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	cfg := mgr.Get()
	cfg.Server.Port = 1

	assert.NotEqual(t, 1, mgr.GetServer().Port)
}

func TestGetIntervalMinutes_ClampsInvalid(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	require.NoError(t, mgr.Update(func(cfg *models.AppConfig) {
		cfg.Capture.IntervalMinutes = 0
	}))
	assert.Equal(t, 5, mgr.GetIntervalMinutes())

	require.NoError(t, mgr.Update(func(cfg *models.AppConfig) {
		cfg.Capture.IntervalMinutes = -3
	}))
	assert.Equal(t, 5, mgr.GetIntervalMinutes())

	require.NoError(t, mgr.Update(func(cfg *models.AppConfig) {
		cfg.Capture.IntervalMinutes = 15
	}))
	assert.Equal(t, 15, mgr.GetIntervalMinutes())
}
