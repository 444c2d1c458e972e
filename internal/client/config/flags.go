package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/flagx"
)

var knownFlags = []string{
	"-l", "-chain", "-i", "-u", "-t", "-bucket", "-region", "-s3-endpoint", "-secret",
	"-w", "-watch", "-prefix", "-r", "-spool", "-d", "-attempts", "-retry", "-timeout",
	"-n", "-dsn", "-log-level", "-log-format", "-log-file", "-m",
}

// parseFlags populates Config fields from command-line flags. os.Args is
// filtered with flagx.FilterArgs first so the REPL's own arguments and
// the -c/-config flag do not interfere. Durations are given in seconds.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.LedgerEndpoint, "l", cfg.LedgerEndpoint, "ledger gRPC endpoint (host:port)")
	fs.StringVar(&cfg.ChainID, "chain", cfg.ChainID, "chain id")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.UploadEndpoint, "u", cfg.UploadEndpoint, "storage upload endpoint URL")
	fs.StringVar(&cfg.Transport, "t", cfg.Transport, "transport: http or s3")
	fs.StringVar(&cfg.S3.Bucket, "bucket", cfg.S3.Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3.Region, "region", cfg.S3.Region, "S3 region")
	fs.StringVar(&cfg.S3.Endpoint, "s3-endpoint", cfg.S3.Endpoint, "S3 compatible endpoint URL")
	fs.StringVar(&cfg.UploadSecret, "secret", cfg.UploadSecret, "secret for upload bearer tokens")
	fs.StringVar(&cfg.WalletKind, "w", cfg.WalletKind, "wallet: mnemonic or watch")
	fs.StringVar(&cfg.WatchAddress, "watch", cfg.WatchAddress, "address for a watch wallet")
	fs.StringVar(&cfg.AddressPrefix, "prefix", cfg.AddressPrefix, "bech32 address prefix")
	fs.IntVar(&cfg.Replicas, "r", cfg.Replicas, "default replica count")
	fs.StringVar(&cfg.SpoolDir, "spool", cfg.SpoolDir, "directory for encrypted copies")
	fs.StringVar(&cfg.DefaultDir, "d", cfg.DefaultDir, "default destination directory")
	fs.IntVar(&cfg.UploadAttempts, "attempts", cfg.UploadAttempts, "upload attempts per file")
	retryDelay := fs.Int("retry", int(cfg.RetryDelay.Seconds()), "delay between upload attempts (in seconds)")
	uploadTimeout := fs.Int("timeout", int(cfg.UploadTimeout.Seconds()), "upload request timeout (in seconds)")
	fs.IntVar(&cfg.UploadConcurrency, "n", cfg.UploadConcurrency, "parallel uploads")
	fs.StringVar(&cfg.ReceiptsDSN, "dsn", cfg.ReceiptsDSN, "receipts database file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "rotate logs into this file")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "serve metrics on this address")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.RetryDelay = time.Duration(*retryDelay) * time.Second
	cfg.UploadTimeout = time.Duration(*uploadTimeout) * time.Second
}
