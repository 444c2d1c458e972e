package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/atlaskeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-g string           gRPC bind address (e.g., ":9090")
//	-a string           HTTP bind address for uploads and metrics
//	-d string           PostgreSQL DSN, empty for the in-memory registry
//	-s string           upload token secret
//	-b string           blob directory
//	-max-upload int     largest upload in MiB
//	-chain string       chain id
//	-prefix string      bech32 address prefix
//	-log-level string   debug, info, warn or error
//	-log-format string  text or json
//	-log-file string    rotate logs into this file
//
// os.Args is filtered with flagx.FilterArgs first, avoiding collisions with
// the -c/-config flag.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-g", "-a", "-d", "-s", "-b", "-max-upload", "-chain", "-prefix", "-log-level", "-log-format", "-log-file"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address and port")
	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.BlobDir, "b", config.BlobDir, "blob directory")

	maxUpload := fs.Int64("max-upload", config.MaxUploadSize>>20, "max upload size (in MiB)")

	fs.StringVar(&config.ChainID, "chain", config.ChainID, "chain id")
	fs.StringVar(&config.AddressPrefix, "prefix", config.AddressPrefix, "address prefix")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format")
	fs.StringVar(&config.LogFile, "log-file", config.LogFile, "log file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.MaxUploadSize = *maxUpload << 20
}
