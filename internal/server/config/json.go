package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/atlaskeeper/internal/flagx"
)

// JsonConfig is the on-disk shape of Config. Only fields present in the
// file override the current values.
type JsonConfig struct {
	GRPCAddr      string `json:"grpc_addr"`
	HTTPAddr      string `json:"http_addr"`
	DatabaseDSN   string `json:"database_dsn"`
	SecretKey     string `json:"secret_key"`
	BlobDir       string `json:"blob_dir"`
	MaxUploadSize int64  `json:"max_upload_size"`
	ChainID       string `json:"chain_id"`
	AddressPrefix string `json:"address_prefix"`
	LogLevel      string `json:"log_level"`
	LogFormat     string `json:"log_format"`
	LogFile       string `json:"log_file"`
}

// parseJson loads configuration values from the JSON file named by -c,
// -config or ATLAS_CONFIG. Without one nothing changes. Read and unmarshal
// errors panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay(&config.GRPCAddr, c.GRPCAddr)
	overlay(&config.HTTPAddr, c.HTTPAddr)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.BlobDir, c.BlobDir)
	overlay(&config.MaxUploadSize, c.MaxUploadSize)
	overlay(&config.ChainID, c.ChainID)
	overlay(&config.AddressPrefix, c.AddressPrefix)
	overlay(&config.LogLevel, c.LogLevel)
	overlay(&config.LogFormat, c.LogFormat)
	overlay(&config.LogFile, c.LogFile)
}

func overlay[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
