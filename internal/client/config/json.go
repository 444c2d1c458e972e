package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/flagx"
	"github.com/dmitrijs2005/atlaskeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations are
// timex.Duration so they can be written as "3s" or integer nanoseconds.
type JsonConfig struct {
	LedgerEndpoint string `json:"ledger_endpoint"`
	ChainID        string `json:"chain_id"`

	OnlineCheckInterval timex.Duration `json:"online_check_interval"`

	UploadEndpoint string `json:"upload_endpoint"`
	Transport      string `json:"transport"`
	S3             struct {
		Bucket    string `json:"bucket"`
		Region    string `json:"region"`
		Endpoint  string `json:"endpoint"`
		AccessKey string `json:"access_key"`
		SecretKey string `json:"secret_key"`
	} `json:"s3"`
	UploadSecret string `json:"upload_secret"`

	WalletKind    string `json:"wallet"`
	WatchAddress  string `json:"watch_address"`
	AddressPrefix string `json:"address_prefix"`

	Replicas            int    `json:"replicas"`
	MerkleChunkSize     int    `json:"merkle_chunk_size"`
	EncryptionChunkSize int    `json:"encryption_chunk_size"`
	SpoolDir            string `json:"spool_dir"`
	DefaultDir          string `json:"default_dir"`

	UploadAttempts    int            `json:"upload_attempts"`
	RetryDelay        timex.Duration `json:"retry_delay"`
	UploadTimeout     timex.Duration `json:"upload_timeout"`
	UploadConcurrency int            `json:"upload_concurrency"`
	TxTimeout         timex.Duration `json:"tx_timeout"`
	TxPollInterval    timex.Duration `json:"tx_poll_interval"`

	ReceiptsDSN string `json:"receipts_dsn"`

	LogLevel    string `json:"log_level"`
	LogFormat   string `json:"log_format"`
	LogFile     string `json:"log_file"`
	MetricsAddr string `json:"metrics_addr"`
}

// parseJson overlays Config with the fields set in the JSON file named by
// -c/-config or ATLAS_CONFIG. Fields missing from the file keep their
// current value. Read and unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.LedgerEndpoint, jc.LedgerEndpoint)
	setString(&cfg.ChainID, jc.ChainID)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setString(&cfg.UploadEndpoint, jc.UploadEndpoint)
	setString(&cfg.Transport, jc.Transport)
	setString(&cfg.S3.Bucket, jc.S3.Bucket)
	setString(&cfg.S3.Region, jc.S3.Region)
	setString(&cfg.S3.Endpoint, jc.S3.Endpoint)
	setString(&cfg.S3.AccessKey, jc.S3.AccessKey)
	setString(&cfg.S3.SecretKey, jc.S3.SecretKey)
	setString(&cfg.UploadSecret, jc.UploadSecret)
	setString(&cfg.WalletKind, jc.WalletKind)
	setString(&cfg.WatchAddress, jc.WatchAddress)
	setString(&cfg.AddressPrefix, jc.AddressPrefix)
	setInt(&cfg.Replicas, jc.Replicas)
	setInt(&cfg.MerkleChunkSize, jc.MerkleChunkSize)
	setInt(&cfg.EncryptionChunkSize, jc.EncryptionChunkSize)
	setString(&cfg.SpoolDir, jc.SpoolDir)
	setString(&cfg.DefaultDir, jc.DefaultDir)
	setInt(&cfg.UploadAttempts, jc.UploadAttempts)
	setDuration(&cfg.RetryDelay, jc.RetryDelay)
	setDuration(&cfg.UploadTimeout, jc.UploadTimeout)
	setInt(&cfg.UploadConcurrency, jc.UploadConcurrency)
	setDuration(&cfg.TxTimeout, jc.TxTimeout)
	setDuration(&cfg.TxPollInterval, jc.TxPollInterval)
	setString(&cfg.ReceiptsDSN, jc.ReceiptsDSN)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = time.Duration(v.Duration)
	}
}
