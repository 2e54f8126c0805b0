package config

import (
	"testing"
	"time"

	"github.com/NethermindEth/basesociety/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "NATS_URL",
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "REFLECTION_INTERVAL_SECONDS",
	"RPC_URL", "AGENT_NFT_ADDRESS", "DECAY_ORACLE_ADDRESS", "ORACLE_SERVICE_PRIVATE_KEY", "CHAIN_ID",
	"DECAY_THRESHOLD_SECONDS", "DECAY_RATE_PER_HOUR", "DECAY_VALUE", "LOOP_INTERVAL_SECONDS", "TOKEN_FALLBACK",
}

func clearEnv(t *testing.T) {
	for _, key := range managedKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3001", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "sqlite:./data/agents.db", cfg.DatabaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 300*time.Second, cfg.ReflectionInterval)
	assert.Equal(t, time.Minute, cfg.LoopInterval)
	assert.Equal(t, "skip", cfg.TokenFallback)
	assert.Nil(t, cfg.ChainID)
	assert.Equal(t, core.DefaultDecayPolicy(), cfg.DecayPolicy())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("DECAY_THRESHOLD_SECONDS", "60")
	t.Setenv("DECAY_RATE_PER_HOUR", "2.5")
	t.Setenv("CHAIN_ID", "84532")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, core.DecayPolicy{Threshold: time.Minute, RatePerHour: 2.5}, cfg.DecayPolicy())
	assert.Equal(t, int64(84532), cfg.ChainID.Int64())
}

func TestLoadLegacyDecayValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("DECAY_VALUE", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.DecayRate)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	for key, value := range map[string]string{
		"LOOP_INTERVAL_SECONDS":       "0",
		"DECAY_THRESHOLD_SECONDS":     "soon",
		"REFLECTION_INTERVAL_SECONDS": "-5",
		"DECAY_RATE_PER_HOUR":         "-1",
		"CHAIN_ID":                    "base",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.ErrorIs(t, err, core.ErrParse)
		})
	}
}

func TestRequireChain(t *testing.T) {
	cfg := &Config{RPCURL: "http://localhost:8545"}
	err := cfg.RequireChain()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AGENT_NFT_ADDRESS, DECAY_ORACLE_ADDRESS, ORACLE_SERVICE_PRIVATE_KEY")

	cfg.AgentNFTAddress = "0x1"
	cfg.DecayOracleAddress = "0x2"
	cfg.OraclePrivateKey = "key"
	assert.NoError(t, cfg.RequireChain())
}
