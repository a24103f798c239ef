package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/imgseal/internal/flagx"
	"github.com/dmitrijs2005/imgseal/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file.
// Zero values mean "not set" and leave the current value in place.
type JsonConfig struct {
	Mode            string         `json:"mode"`
	SourceDir       string         `json:"input_img_dir"`
	DestDir         string         `json:"output_img_dir"`
	InputExt        string         `json:"input_ext"`
	HexKey          string         `json:"hex_key"`
	MappingPath     string         `json:"mapping_file"`
	DatabaseDSN     string         `json:"database_dsn"`
	Table           string         `json:"table"`
	KeyColumn       string         `json:"key_column"`
	RefColumn       string         `json:"ref_column"`
	RefType         string         `json:"ref_type"`
	Concurrency     int            `json:"concurrency"`
	FileTimeout     timex.Duration `json:"file_timeout"`
	ContinueOnError *bool          `json:"continue_on_error"`
	SyncRetries     *int           `json:"sync_retries"`
	SyncBackoff     timex.Duration `json:"sync_backoff"`
	SyncBatchSize   int            `json:"sync_batch_size"`
	Sink            string         `json:"sink"`
	S3RootUser      string         `json:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Region        string         `json:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
	S3Prefix        string         `json:"s3_prefix"`
	LogFormat       string         `json:"log_format"`
	LogLevel        string         `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag into config. Without the flag nothing is loaded.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag(os.Args[1:])

	// nothing to load
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

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.Mode, c.Mode)
	setString(&config.SourceDir, c.SourceDir)
	setString(&config.DestDir, c.DestDir)
	setString(&config.InputExt, c.InputExt)
	setString(&config.HexKey, c.HexKey)
	setString(&config.MappingPath, c.MappingPath)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.Table, c.Table)
	setString(&config.KeyColumn, c.KeyColumn)
	setString(&config.RefColumn, c.RefColumn)
	setString(&config.RefType, c.RefType)
	setString(&config.Sink, c.Sink)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3Prefix, c.S3Prefix)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)

	if c.Concurrency != 0 {
		config.Concurrency = c.Concurrency
	}
	if c.FileTimeout.Duration != 0 {
		config.FileTimeout = c.FileTimeout.Duration
	}
	if c.ContinueOnError != nil {
		config.ContinueOnError = *c.ContinueOnError
	}
	if c.SyncRetries != nil {
		config.SyncRetries = *c.SyncRetries
	}
	if c.SyncBackoff.Duration != 0 {
		config.SyncBackoff = c.SyncBackoff.Duration
	}
	if c.SyncBatchSize != 0 {
		config.SyncBatchSize = c.SyncBatchSize
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
