// Package config loads runtime configuration for the atlaskeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c/-config or the
//     ATLAS_CONFIG environment variable.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "3s" or integer
// nanoseconds. Omitted keys keep their defaults:
//
//	{
//	  "ledger_endpoint": "127.0.0.1:9090",
//	  "chain_id": "atlas-1",
//	  "upload_endpoint": "http://127.0.0.1:8080",
//	  "transport": "s3",
//	  "s3": {"bucket": "atlas", "region": "eu-north-1"},
//	  "wallet": "mnemonic",
//	  "replicas": 3,
//	  "retry_delay": "3s",
//	  "tx_timeout": "1m"
//	}
package config
