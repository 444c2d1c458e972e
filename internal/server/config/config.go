// Package config handles configuration for the development node,
// including defaults, JSON overlay, and command-line flags.
package config

import "github.com/dmitrijs2005/atlaskeeper/internal/common"

// Config holds runtime settings for the development node.
//
// Fields:
//   - GRPCAddr: bind address of the ledger gRPC endpoint.
//   - HTTPAddr: bind address of the upload and metrics endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty keeps the registry in memory.
//   - SecretKey: HMAC secret for upload tokens (HS256). Empty disables the check.
//   - BlobDir: where received files are stored, one file per fid.
//   - MaxUploadSize: largest accepted upload body in bytes.
type Config struct {
	GRPCAddr      string
	HTTPAddr      string
	DatabaseDSN   string
	SecretKey     string
	BlobDir       string
	MaxUploadSize int64

	ChainID       string
	AddressPrefix string

	LogLevel  string
	LogFormat string
	LogFile   string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.GRPCAddr = ":9090"
	c.HTTPAddr = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = ""
	c.BlobDir = "blobs"
	c.MaxUploadSize = 1 << 30
	c.ChainID = common.DefaultChainID
	c.AddressPrefix = common.DefaultAddressPrefix
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.LogFile = ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
