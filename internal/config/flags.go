package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/imgseal/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-m string      mode: run, encrypt, sync, decrypt
//	-i string      input image directory
//	-o string      output directory for encrypted artifacts
//	-x string      input file extension (e.g. ".png")
//	-k string      hex-encoded AES key
//	-f string      mapping file path
//	-d string      PostgreSQL DSN
//	-t string      target table
//	-kc string     business key column
//	-rc string     reference column
//	-rt string     SQL type the generated id is cast to (empty: no cast)
//	-n int         max files encrypted in parallel
//	-ft int        per-file timeout, seconds (overrides env/JSON only when given)
//	-continue      keep going after a file fails
//	-sr int        database sync retries on transient errors
//	-sink string   artifact sink: dir or s3
//	-u, -p string  S3 root user / password
//	-b, -g string  S3 bucket / region
//	-e string      S3 base endpoint
//	-prefix string S3 key prefix
//	-l string      log format: json, text, zap
//	-ll string     log level: debug, info, warn, error
//	-id string     generated id to decrypt (decrypt mode)
//	-out string    plaintext output path (decrypt mode)
//
// os.Args is first filtered down to the flags defined here with
// flagx.FilterFlagSetArgs, so -c/-config and foreign flags do not break parsing.
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Mode, "m", config.Mode, "mode: run, encrypt, sync, decrypt")
	fs.StringVar(&config.SourceDir, "i", config.SourceDir, "input image directory")
	fs.StringVar(&config.DestDir, "o", config.DestDir, "output directory for encrypted artifacts")
	fs.StringVar(&config.InputExt, "x", config.InputExt, "input file extension")
	fs.StringVar(&config.HexKey, "k", config.HexKey, "hex-encoded AES key")
	fs.StringVar(&config.MappingPath, "f", config.MappingPath, "mapping file path")

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Table, "t", config.Table, "target table")
	fs.StringVar(&config.KeyColumn, "kc", config.KeyColumn, "business key column")
	fs.StringVar(&config.RefColumn, "rc", config.RefColumn, "reference column")
	fs.StringVar(&config.RefType, "rt", config.RefType, "reference column SQL type")

	fs.IntVar(&config.Concurrency, "n", config.Concurrency, "max files encrypted in parallel")
	fileTimeout := fs.Int("ft", int(config.FileTimeout.Seconds()), "per-file timeout (in seconds)")
	fs.BoolVar(&config.ContinueOnError, "continue", config.ContinueOnError, "continue after a file fails")
	fs.IntVar(&config.SyncRetries, "sr", config.SyncRetries, "database sync retries")

	fs.StringVar(&config.Sink, "sink", config.Sink, "artifact sink: dir or s3")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3Prefix, "prefix", config.S3Prefix, "S3 key prefix")

	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format: json, text, zap")
	fs.StringVar(&config.LogLevel, "ll", config.LogLevel, "log level")

	fs.StringVar(&config.DecryptID, "id", config.DecryptID, "generated id to decrypt")
	fs.StringVar(&config.DecryptOut, "out", config.DecryptOut, "plaintext output path")

	if err := fs.Parse(flagx.FilterFlagSetArgs(os.Args[1:], fs)); err != nil {
		panic(err)
	}

	// -ft only overrides when given; whole seconds would truncate a
	// sub-second FILE_TIMEOUT or file_timeout.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "ft" {
			config.FileTimeout = time.Duration(*fileTimeout) * time.Second
		}
	})
}
