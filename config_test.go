package sdp

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	for name, mutate := range map[string]func(*Config){
		"no channels":            func(c *Config) { c.MaxChannels = 0 },
		"too many channels":      func(c *Config) { c.MaxChannels = 257 },
		"no response size":       func(c *Config) { c.MaxResponseSize = 0 },
		"response size overflow": func(c *Config) { c.MaxResponseSize = 0x10000 },
		"no depth":               func(c *Config) { c.MaxDepth = 0 },
		"no timeout":             func(c *Config) { c.ContinuationTimeout = 0 },
		"no manage interval":     func(c *Config) { c.ManageInterval = -time.Second },
		"MTU below minimum":      func(c *Config) { c.DefaultMTU = MinMTU - 1 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigEnvDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, env.Parse(&cfg))
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("SDP_MAX_CHANNELS", "2")
	t.Setenv("SDP_CONTINUATION_TIMEOUT", "5s")
	t.Setenv("SDP_DEEP_UUID_SEARCH", "true")

	cfg := DefaultConfig()
	require.NoError(t, env.Parse(&cfg))
	assert.Equal(t, 2, cfg.MaxChannels)
	assert.Equal(t, 5*time.Second, cfg.ContinuationTimeout)
	assert.True(t, cfg.DeepUUIDSearch)
	assert.Equal(t, ScopeRecord, cfg.searchScope())
	require.NoError(t, cfg.Validate())
}
