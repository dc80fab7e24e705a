package voxelworld

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, GravityDown, cfg.Mode())
}

func TestLoadConfigPartialOverlay(t *testing.T) {
	path := writeConfig(t, `
gravity_mode: radial
planet_radius: 50
move_speed: 9
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, GravityRadial, cfg.Mode())
	assert.Equal(t, float32(50), cfg.PlanetRadius)
	assert.Equal(t, float32(9), cfg.MoveSpeed)

	// Everything not in the file keeps its default.
	assert.Equal(t, float32(4.0), cfg.CellSize)
	assert.Equal(t, uint32(65536), cfg.SlotCapacity)
	assert.Equal(t, float32(0.8), cfg.ResolutionStrength)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown gravity mode", func(c *Config) { c.GravityMode = "sideways" }},
		{"radial without radius", func(c *Config) { c.GravityMode = "radial"; c.PlanetRadius = 0 }},
		{"zero resolution strength", func(c *Config) { c.ResolutionStrength = 0 }},
		{"overshooting resolution strength", func(c *Config) { c.ResolutionStrength = 1.5 }},
		{"zero capacity", func(c *Config) { c.SlotCapacity = 0 }},
		{"zero cache ttl", func(c *Config) { c.CacheTTLFrames = 0 }},
		{"zero min ttl", func(c *Config) { c.CacheMinTTLFrames = 0 }},
		{"min ttl over max", func(c *Config) { c.CacheMinTTLFrames = 10; c.CacheMaxTTLFrames = 5 }},
		{"ttl over max", func(c *Config) { c.CacheTTLFrames = 90 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "gravity_mode: sideways\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
}
