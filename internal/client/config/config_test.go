package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:9090", c.LedgerEndpoint)
	assert.Equal(t, "atlas-1", c.ChainID)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, TransportHTTP, c.Transport)
	assert.Equal(t, WalletMnemonic, c.WalletKind)
	assert.Equal(t, "atl", c.AddressPrefix)
	assert.Equal(t, 3, c.Replicas)
	assert.Equal(t, 1024, c.MerkleChunkSize)
	assert.Equal(t, 32<<20, c.EncryptionChunkSize)
	assert.Equal(t, 2, c.UploadAttempts)
	assert.Equal(t, 3*time.Second, c.RetryDelay)
	assert.Equal(t, 30*time.Second, c.UploadTimeout)
	assert.Equal(t, 4, c.UploadConcurrency)
	assert.Equal(t, time.Minute, c.TxTimeout)
	assert.Equal(t, time.Second, c.TxPollInterval)
	assert.Equal(t, "home", c.DefaultDir)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "127.0.0.1:9090", cfg.LedgerEndpoint)
	assert.Equal(t, 3*time.Second, cfg.RetryDelay)
}
