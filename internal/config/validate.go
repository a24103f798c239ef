package config

import (
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/imgseal/internal/common"
)

var (
	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	typeRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	idRe    = regexp.MustCompile(`^[0-9a-fA-F]+$`)
)

// ValidIdentifier reports whether s is a plain (optionally schema-qualified)
// SQL identifier.
func ValidIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// Validate checks that the config is usable for its mode. It does not
// decode the key; key size is checked when the batch starts.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeRun, ModeEncrypt, ModeSync, ModeDecrypt:
	default:
		return fmt.Errorf("%w: unknown mode %q", common.ErrInvalidConfig, c.Mode)
	}

	if c.MappingPath == "" && c.Mode != ModeDecrypt {
		return fmt.Errorf("%w: mapping file is required", common.ErrInvalidConfig)
	}

	if c.encrypts() {
		if c.SourceDir == "" {
			return fmt.Errorf("%w: input directory is required", common.ErrInvalidConfig)
		}
		if c.Concurrency <= 0 {
			return fmt.Errorf("%w: concurrency must be positive, got %d", common.ErrInvalidConfig, c.Concurrency)
		}
		if c.FileTimeout < 0 {
			return fmt.Errorf("%w: file timeout must not be negative", common.ErrInvalidConfig)
		}
		switch c.Sink {
		case SinkDir:
			if c.DestDir == "" {
				return fmt.Errorf("%w: output directory is required", common.ErrInvalidConfig)
			}
		case SinkS3:
			if c.S3Bucket == "" {
				return fmt.Errorf("%w: s3 bucket is required", common.ErrInvalidConfig)
			}
		default:
			return fmt.Errorf("%w: unknown sink %q", common.ErrInvalidConfig, c.Sink)
		}
	}

	if c.syncs() {
		if c.DatabaseDSN == "" {
			return fmt.Errorf("%w: database DSN is required", common.ErrInvalidConfig)
		}
		for _, ident := range []string{c.Table, c.KeyColumn, c.RefColumn} {
			if !ValidIdentifier(ident) {
				return fmt.Errorf("%w: %w: %q", common.ErrInvalidConfig, common.ErrInvalidIdentifier, ident)
			}
		}
		if c.RefType != "" && !typeRe.MatchString(c.RefType) {
			return fmt.Errorf("%w: %w: type %q", common.ErrInvalidConfig, common.ErrInvalidIdentifier, c.RefType)
		}
		if c.SyncRetries < 0 {
			return fmt.Errorf("%w: sync retries must not be negative", common.ErrInvalidConfig)
		}
		if c.SyncBatchSize <= 0 {
			return fmt.Errorf("%w: sync batch size must be positive", common.ErrInvalidConfig)
		}
	}

	if c.Mode == ModeDecrypt {
		if c.DecryptID == "" || c.DecryptOut == "" {
			return fmt.Errorf("%w: decrypt mode needs -id and -out", common.ErrInvalidConfig)
		}
		if !idRe.MatchString(c.DecryptID) {
			return fmt.Errorf("%w: generated id must be hex, got %q", common.ErrInvalidConfig, c.DecryptID)
		}
		if c.Sink == SinkDir && c.DestDir == "" {
			return fmt.Errorf("%w: output directory is required", common.ErrInvalidConfig)
		}
	}

	return nil
}

func (c *Config) encrypts() bool {
	return c.Mode == ModeRun || c.Mode == ModeEncrypt
}

func (c *Config) syncs() bool {
	return c.Mode == ModeRun || c.Mode == ModeSync
}
