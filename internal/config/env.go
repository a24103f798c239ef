package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

// osLookupEnv is a test seam for os.LookupEnv.
var osLookupEnv = os.LookupEnv

// parseEnv overlays values from environment variables. Unset variables and
// values that fail to parse leave the current value in place.
//
// Recognized variables:
//
//	IMGSEAL_MODE, INPUT_IMG_DIR, OUTPUT_IMG_DIR, INPUT_EXT, HEX_KEY, MAPPING_FILE,
//	DATABASE_DSN (or DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME),
//	DB_TABLE, DB_KEY_COLUMN, DB_REF_COLUMN, DB_REF_TYPE,
//	CONCURRENCY, FILE_TIMEOUT, CONTINUE_ON_ERROR,
//	SINK, S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT, S3_PREFIX,
//	LOG_FORMAT, LOG_LEVEL
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	str("IMGSEAL_MODE", &config.Mode)
	str("INPUT_IMG_DIR", &config.SourceDir)
	str("OUTPUT_IMG_DIR", &config.DestDir)
	str("INPUT_EXT", &config.InputExt)
	str("HEX_KEY", &config.HexKey)
	str("MAPPING_FILE", &config.MappingPath)
	if dsn, ok := dsnFromParts(lookup); ok {
		config.DatabaseDSN = dsn
	}
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("DB_TABLE", &config.Table)
	str("DB_KEY_COLUMN", &config.KeyColumn)
	str("DB_REF_COLUMN", &config.RefColumn)
	str("DB_REF_TYPE", &config.RefType)
	str("SINK", &config.Sink)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("S3_PREFIX", &config.S3Prefix)
	str("LOG_FORMAT", &config.LogFormat)
	str("LOG_LEVEL", &config.LogLevel)

	if v, ok := lookup("CONCURRENCY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.Concurrency = n
		}
	}
	if v, ok := lookup("FILE_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.FileTimeout = d
		}
	}
	if v, ok := lookup("CONTINUE_ON_ERROR"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.ContinueOnError = b
		}
	}
}

// dsnFromParts builds a postgres URL from DB_HOST, DB_PORT (default 5432),
// DB_USER, DB_PASSWORD and DB_NAME. It reports false when DB_HOST is unset.
// DATABASE_DSN, applied afterwards, takes precedence.
func dsnFromParts(lookup func(string) (string, bool)) (string, bool) {
	host, ok := lookup("DB_HOST")
	if !ok || host == "" {
		return "", false
	}
	get := func(name, def string) string {
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
		return def
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, get("DB_PORT", "5432")),
		Path:   "/" + get("DB_NAME", ""),
	}
	if user := get("DB_USER", ""); user != "" {
		if pw, ok := lookup("DB_PASSWORD"); ok && pw != "" {
			u.User = url.UserPassword(user, pw)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String(), true
}
