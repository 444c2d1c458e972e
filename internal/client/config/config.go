package config

import (
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
)

// Transport kinds.
const (
	TransportHTTP = "http"
	TransportS3   = "s3"
)

// Wallet kinds. A mnemonic wallet signs; a watch wallet only knows its
// address.
const (
	WalletMnemonic = "mnemonic"
	WalletWatch    = "watch"
)

// S3 configures the S3 transport.
type S3 struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Config holds runtime settings for the atlaskeeper CLI.
type Config struct {
	LedgerEndpoint string
	ChainID        string

	// OnlineCheckInterval is how often the CLI probes the ledger.
	OnlineCheckInterval time.Duration

	UploadEndpoint string
	Transport      string
	S3             S3
	// UploadSecret signs per-upload bearer tokens. Empty disables them.
	UploadSecret string

	WalletKind    string
	WatchAddress  string
	AddressPrefix string

	Replicas            int
	MerkleChunkSize     int
	EncryptionChunkSize int
	SpoolDir            string
	DefaultDir          string

	UploadAttempts    int
	RetryDelay        time.Duration
	UploadTimeout     time.Duration
	UploadConcurrency int
	TxTimeout         time.Duration
	TxPollInterval    time.Duration

	ReceiptsDSN string

	LogLevel    string
	LogFormat   string
	LogFile     string
	MetricsAddr string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.LedgerEndpoint = "127.0.0.1:9090"
	c.ChainID = common.DefaultChainID
	c.OnlineCheckInterval = 3 * time.Second
	c.UploadEndpoint = "http://127.0.0.1:8080"
	c.Transport = TransportHTTP
	c.WalletKind = WalletMnemonic
	c.AddressPrefix = common.DefaultAddressPrefix
	c.Replicas = common.DefaultReplicas
	c.MerkleChunkSize = 1024
	c.EncryptionChunkSize = 32 << 20
	c.SpoolDir = "preupload"
	c.DefaultDir = "home"
	c.UploadAttempts = 2
	c.RetryDelay = 3 * time.Second
	c.UploadTimeout = 30 * time.Second
	c.UploadConcurrency = 4
	c.TxTimeout = 60 * time.Second
	c.TxPollInterval = time.Second
	c.ReceiptsDSN = "receipts.db"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
