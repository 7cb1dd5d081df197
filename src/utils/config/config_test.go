package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	config := Default()
	require.NotNil(t, config)

	assert.Equal(t, ":7777", config.RESTListenAddress)
	assert.Equal(t, 30*time.Second, config.StopTimeout)
	assert.Equal(t, uint64(10000), config.MarketSyncer.BackfillWindow)
	assert.Equal(t, 8, config.MarketSyncer.NumWorkers)
	assert.Equal(t, uint64(3), config.MarketSyncer.HandlerMaxRetries)
	assert.Equal(t, int64(262144), config.Metadata.MaxResponseSize)
}

func TestEnvOverride(t *testing.T) {
	os.Setenv("SYNCER_MARKET_SYNCER_CONTRACT_ADDRESS", "0x5555555555555555555555555555555555555555")
	os.Setenv("SYNCER_MARKET_SYNCER_BACKFILL_WINDOW", "123")
	defer os.Unsetenv("SYNCER_MARKET_SYNCER_CONTRACT_ADDRESS")
	defer os.Unsetenv("SYNCER_MARKET_SYNCER_BACKFILL_WINDOW")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0x5555555555555555555555555555555555555555", config.MarketSyncer.ContractAddress)
	assert.Equal(t, uint64(123), config.MarketSyncer.BackfillWindow)
}

func TestLoadFromFile(t *testing.T) {
	file, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = file.WriteString(`{"MarketSyncer": {"RpcUrl": "wss://example.org"}}`)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	config, err := Load(file.Name())
	require.NoError(t, err)
	assert.Equal(t, "wss://example.org", config.MarketSyncer.RpcUrl)

	// Values absent from the file keep their defaults
	assert.Equal(t, uint64(2000), config.MarketSyncer.BackfillBatchSize)
}
