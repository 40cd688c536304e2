package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Resolver modes selecting the analysis path.
const (
	ResolverModeLive    = "live"
	ResolverModeFixture = "fixture"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Solana configuration
	SolanaRPCURL string

	// Drainer registry configuration
	RegistryProgramID   string
	FeeAuthorityAddress string
	ReporterKeypairPath string // optional; report submission disabled when empty

	// Domain intel configuration (optional; intel disabled when empty)
	DatabaseURL string

	// NATS configuration (optional; event publishing disabled when empty)
	NATSURL string

	// Analysis configuration
	ResolverMode          string
	DefaultTxLimit        int
	FetchDelay            time.Duration
	RegistryLookupWorkers int
}

// Load reads configuration from environment variables and validates all
// required fields. Returns an error if any required configuration is missing
// or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.SolanaRPCURL = os.Getenv("SOLANA_RPC_URL")
	if cfg.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL is required"))
	}

	cfg.RegistryProgramID = getEnvOrDefault("REGISTRY_PROGRAM_ID", "BYbF6QC9PoeHGH4y1pLNC2YHBChpnFBq46vBydyBFxq2")
	cfg.FeeAuthorityAddress = os.Getenv("FEE_AUTHORITY_ADDRESS")
	if cfg.FeeAuthorityAddress == "" {
		errs = append(errs, fmt.Errorf("FEE_AUTHORITY_ADDRESS is required"))
	}
	cfg.ReporterKeypairPath = os.Getenv("REPORTER_KEYPAIR_PATH")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.NATSURL = os.Getenv("NATS_URL")

	cfg.ResolverMode = getEnvOrDefault("RESOLVER_MODE", ResolverModeLive)
	if cfg.ResolverMode != ResolverModeLive && cfg.ResolverMode != ResolverModeFixture {
		errs = append(errs, fmt.Errorf("RESOLVER_MODE must be %q or %q, got %q",
			ResolverModeLive, ResolverModeFixture, cfg.ResolverMode))
	}

	limit, err := parseInt("DEFAULT_TX_LIMIT", 50)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.DefaultTxLimit = limit
	}

	delay, err := parseDuration("FETCH_DELAY", "100ms")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.FetchDelay = delay
	}

	workers, err := parseInt("REGISTRY_LOOKUP_WORKERS", 4)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.RegistryLookupWorkers = workers
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaRPCURL is required"))
	}
	if c.RegistryProgramID == "" {
		errs = append(errs, fmt.Errorf("RegistryProgramID is required"))
	}
	if c.FeeAuthorityAddress == "" {
		errs = append(errs, fmt.Errorf("FeeAuthorityAddress is required"))
	}

	if c.ResolverMode != ResolverModeLive && c.ResolverMode != ResolverModeFixture {
		errs = append(errs, fmt.Errorf("ResolverMode must be %q or %q",
			ResolverModeLive, ResolverModeFixture))
	}

	if c.DefaultTxLimit < 1 || c.DefaultTxLimit > 200 {
		errs = append(errs, fmt.Errorf("DefaultTxLimit must be between 1 and 200"))
	}
	if c.FetchDelay < 0 {
		errs = append(errs, fmt.Errorf("FetchDelay cannot be negative"))
	}
	if c.RegistryLookupWorkers < 1 {
		errs = append(errs, fmt.Errorf("RegistryLookupWorkers must be at least 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}
