// Package common defines sentinel errors shared by the batch encryption
// and database sync layers of imgseal. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Mapping store errors.
	ErrCorruptState = errors.New("corrupt mapping state")

	// Key material errors.
	ErrInvalidKeySize = errors.New("invalid AES key size")

	// Pipeline errors (one file failed to read, encrypt or write).
	ErrFileEncryption = errors.New("file encryption failed")

	// Artifact errors.
	ErrArtifactExists  = errors.New("artifact already exists")
	ErrInvalidArtifact = errors.New("invalid artifact")

	// Database sync errors (transaction rolled back).
	ErrDatabaseSync = errors.New("database sync failed")

	// Validation errors.
	ErrInvalidIdentifier = errors.New("invalid sql identifier")
	ErrInvalidConfig     = errors.New("invalid config")
)
