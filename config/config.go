package config

import (
	"fmt"
	"math/big"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/NethermindEth/basesociety/core"
	"github.com/NethermindEth/basesociety/utils"
	"github.com/joho/godotenv"
)

// Config holds the settings of both binaries. Each reads the fields it needs.
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string
	NATSURL     string

	// Completion provider
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	ReflectionInterval time.Duration

	// Chain
	RPCURL             string
	AgentNFTAddress    string
	DecayOracleAddress string
	OraclePrivateKey   string
	ChainID            *big.Int

	// Decay oracle
	DecayThreshold time.Duration
	DecayRate      float64
	LoopInterval   time.Duration
	TokenFallback  string
}

// Load reads configuration from the environment, loading .env first when
// present.
func Load() (*Config, error) {
	if utils.FileExists(".env") {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{
		Port:          getEnv("PORT", "3001"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", "sqlite:./data/agents.db"),
		NATSURL:       os.Getenv("NATS_URL"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		RPCURL:             os.Getenv("RPC_URL"),
		AgentNFTAddress:    os.Getenv("AGENT_NFT_ADDRESS"),
		DecayOracleAddress: os.Getenv("DECAY_ORACLE_ADDRESS"),
		OraclePrivateKey:   os.Getenv("ORACLE_SERVICE_PRIVATE_KEY"),
		TokenFallback:      getEnv("TOKEN_FALLBACK", "skip"),
	}

	var err error
	if cfg.ReflectionInterval, err = getSeconds("REFLECTION_INTERVAL_SECONDS", 300); err != nil {
		return nil, err
	}
	if cfg.DecayThreshold, err = getSeconds("DECAY_THRESHOLD_SECONDS", 3600); err != nil {
		return nil, err
	}
	if cfg.LoopInterval, err = getSeconds("LOOP_INTERVAL_SECONDS", 60); err != nil {
		return nil, err
	}
	if cfg.LoopInterval <= 0 {
		return nil, fmt.Errorf("%w: LOOP_INTERVAL_SECONDS must be positive", core.ErrParse)
	}

	rate := getEnv("DECAY_RATE_PER_HOUR", getEnv("DECAY_VALUE", "5"))
	if cfg.DecayRate, err = strconv.ParseFloat(rate, 64); err != nil || cfg.DecayRate < 0 {
		return nil, fmt.Errorf("%w: DECAY_RATE_PER_HOUR=%q", core.ErrParse, rate)
	}

	if raw := os.Getenv("CHAIN_ID"); raw != "" {
		id, ok := new(big.Int).SetString(raw, 10)
		if !ok || id.Sign() <= 0 {
			return nil, fmt.Errorf("%w: CHAIN_ID=%q", core.ErrParse, raw)
		}
		cfg.ChainID = id
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// DecayPolicy returns the configured decay parameters.
func (c *Config) DecayPolicy() core.DecayPolicy {
	return core.DecayPolicy{Threshold: c.DecayThreshold, RatePerHour: c.DecayRate}
}

// RequireChain reports every chain setting the oracle needs but lacks.
func (c *Config) RequireChain() error {
	var missing []string
	for name, value := range map[string]string{
		"RPC_URL":                    c.RPCURL,
		"AGENT_NFT_ADDRESS":          c.AgentNFTAddress,
		"DECAY_ORACLE_ADDRESS":       c.DecayOracleAddress,
		"ORACLE_SERVICE_PRIVATE_KEY": c.OraclePrivateKey,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getSeconds(key string, defaultValue int) (time.Duration, error) {
	raw := getEnv(key, strconv.Itoa(defaultValue))
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", core.ErrParse, key, raw)
	}
	return time.Duration(n) * time.Second, nil
}
