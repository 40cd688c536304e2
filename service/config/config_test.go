package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv() {
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	os.Setenv("FEE_AUTHORITY_ADDRESS", "FeeAuth1111111111111111111111111111111111111")
}

func cleanupEnv() {
	os.Unsetenv("SOLANA_RPC_URL")
	os.Unsetenv("FEE_AUTHORITY_ADDRESS")
	os.Unsetenv("REGISTRY_PROGRAM_ID")
	os.Unsetenv("RESOLVER_MODE")
	os.Unsetenv("DEFAULT_TX_LIMIT")
	os.Unsetenv("FETCH_DELAY")
	os.Unsetenv("REGISTRY_LOOKUP_WORKERS")
	os.Unsetenv("SERVER_ADDR")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("NATS_URL")
}

func TestLoad_ValidConfig(t *testing.T) {
	setRequiredEnv()
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.SolanaRPCURL)
	assert.Equal(t, ":8080", cfg.ServerAddr) // Default
	assert.Equal(t, "info", cfg.LogLevel)    // Default
	assert.Equal(t, "BYbF6QC9PoeHGH4y1pLNC2YHBChpnFBq46vBydyBFxq2", cfg.RegistryProgramID)
	assert.Equal(t, ResolverModeLive, cfg.ResolverMode)
	assert.Equal(t, 50, cfg.DefaultTxLimit)
	assert.Equal(t, 100*time.Millisecond, cfg.FetchDelay)
	assert.Equal(t, 4, cfg.RegistryLookupWorkers)
	assert.Empty(t, cfg.DatabaseURL, "domain intel is optional")
	assert.Empty(t, cfg.NATSURL, "event publishing is optional")
}

func TestLoad_MissingSolanaRPCURL(t *testing.T) {
	os.Setenv("FEE_AUTHORITY_ADDRESS", "FeeAuth1111111111111111111111111111111111111")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "SOLANA_RPC_URL is required")
}

func TestLoad_MissingFeeAuthority(t *testing.T) {
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "FEE_AUTHORITY_ADDRESS is required")
}

func TestLoad_InvalidResolverMode(t *testing.T) {
	setRequiredEnv()
	os.Setenv("RESOLVER_MODE", "replay")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "RESOLVER_MODE")
}

func TestLoad_FixtureMode(t *testing.T) {
	setRequiredEnv()
	os.Setenv("RESOLVER_MODE", "fixture")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ResolverModeFixture, cfg.ResolverMode)
}

func TestLoad_InvalidFetchDelay(t *testing.T) {
	setRequiredEnv()
	os.Setenv("FETCH_DELAY", "fast")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_TxLimitOutOfRange(t *testing.T) {
	setRequiredEnv()
	os.Setenv("DEFAULT_TX_LIMIT", "500")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "DefaultTxLimit")
}

func TestValidate_Direct(t *testing.T) {
	cfg := &Config{
		SolanaRPCURL:          "https://api.mainnet-beta.solana.com",
		RegistryProgramID:     "BYbF6QC9PoeHGH4y1pLNC2YHBChpnFBq46vBydyBFxq2",
		FeeAuthorityAddress:   "FeeAuth1111111111111111111111111111111111111",
		ResolverMode:          ResolverModeLive,
		DefaultTxLimit:        50,
		FetchDelay:            100 * time.Millisecond,
		RegistryLookupWorkers: 4,
	}
	require.NoError(t, cfg.Validate())

	cfg.RegistryLookupWorkers = 0
	require.Error(t, cfg.Validate())
}
