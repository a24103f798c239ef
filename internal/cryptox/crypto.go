// Package cryptox implements the encrypted artifact format used by imgseal:
// AES-GCM with a random 12-byte nonce, laid out as nonce || ciphertext || tag.
//
// The format carries no header, version byte or algorithm identifier.
// Consumers must know the algorithm and the key out of band.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/imgseal/internal/common"
	"github.com/google/uuid"
)

const (
	// NonceSize is the length of the random nonce prefix.
	NonceSize = 12
	// TagSize is the length of the GCM authentication tag suffix.
	TagSize = 16
)

// ValidateKey checks that key is a valid AES key length (16, 24 or 32 bytes
// for AES-128, AES-192 or AES-256 respectively).
func ValidateKey(key []byte) error {
	switch len(key) {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("%w: got %d bytes, want 16, 24 or 32", common.ErrInvalidKeySize, len(key))
	}
}

// ParseHexKey decodes a hex-encoded AES key and validates its length.
// Surrounding whitespace is ignored.
func ParseHexKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: decode hex: %v", common.ErrInvalidKeySize, err)
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return aesgcm, nil
}

// EncryptArtifact encrypts plaintext with AES-GCM under key and returns
// nonce || ciphertext || tag. A fresh random nonce is generated per call.
//
// Example:
//
//	key, _ := ParseHexKey(os.Getenv("HEX_KEY"))
//	artifact, err := EncryptArtifact(imageBytes, key)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = os.WriteFile(id+".enc", artifact, 0o600)
func EncryptArtifact(plaintext, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	// Seal appends ciphertext||tag to the nonce slice.
	out := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	copy(out, nonce)
	return aesgcm.Seal(out, nonce, plaintext, nil), nil
}

// DecryptArtifact reverses EncryptArtifact. It fails with ErrInvalidArtifact
// when the buffer is too short or when authentication fails (wrong key or
// tampered data).
func DecryptArtifact(artifact, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(artifact) < NonceSize+TagSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than nonce and tag", common.ErrInvalidArtifact, len(artifact))
	}

	nonce, sealed := artifact[:NonceSize], artifact[NonceSize:]
	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidArtifact, err)
	}
	return plaintext, nil
}

// NewGeneratedID returns a fresh 128-bit random identifier as 32 lowercase
// hex characters. It is accepted as-is by a Postgres uuid column.
func NewGeneratedID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// Wipe zeroes key in place. Nil is a no-op.
func Wipe(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
