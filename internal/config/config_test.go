package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 9000, cfg.Ports.Min)
	assert.Equal(t, 9999, cfg.Ports.Max)
	assert.ElementsMatch(t, []int{5000, 8000, 8080}, cfg.Ports.Reserved)
	assert.Equal(t, "127.0.0.1:8999", cfg.Server.Address)
	assert.True(t, cfg.Launcher.InstallDependencies)
	assert.NotEmpty(t, cfg.Database.Path)
	assert.NotEmpty(t, cfg.Ports.LockFile)
}

func TestCollectConfigRepairsRange(t *testing.T) {
	cfg := collectConfig(&AppConfig{Ports: PortsConfig{Min: 9100, Max: 10}})

	assert.Equal(t, 9100, cfg.Ports.Min)
	assert.Equal(t, 9100, cfg.Ports.Max)
	assert.Equal(t, 30, cfg.Launcher.HealthRetries)
	assert.Equal(t, 10, cfg.Discovery.MaxDepth)
}

func TestAppReturnsCopy(t *testing.T) {
	a := App()
	a.Server.Address = "changed"

	assert.NotEqual(t, "changed", App().Server.Address)
}
