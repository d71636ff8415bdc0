// Package vault encrypts the per-user remote-desktop password at rest with
// AES-256-GCM.
//
// Blob layout, hex encoded: nonce (12 bytes) ‖ tag (16 bytes) ‖ ciphertext.
// New blobs carry a "v1." prefix; unprefixed blobs are read as the legacy layout.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
)

const (
	keySize   = 32
	nonceSize = 12
	tagSize   = 16

	versionPrefix = "v1."
)

// Vault holds the AEAD built from the server key.
type Vault struct {
	aead cipher.AEAD
}

// New builds a Vault from a 64-character hex key.
func New(hexKey string) (*Vault, error) {
	hexKey = strings.TrimSpace(hexKey)
	if hexKey == "" {
		return nil, domain.ErrVaultUnavailable
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("vault: decode key: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("vault: key must be %d bytes, got %d", keySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	return &Vault{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: nonce: %w", err)
	}
	// Seal appends the tag after the ciphertext; the stored layout puts it first.
	sealed := v.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	buf := make([]byte, 0, nonceSize+tagSize+len(ct))
	buf = append(buf, nonce...)
	buf = append(buf, tag...)
	buf = append(buf, ct...)
	return versionPrefix + hex.EncodeToString(buf), nil
}

// Decrypt opens a blob produced by Encrypt or by the legacy unversioned format.
// Any malformed or tampered blob yields domain.ErrDecryption.
func (v *Vault) Decrypt(blob string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(blob, versionPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: malformed blob", domain.ErrDecryption)
	}
	if len(raw) < nonceSize+tagSize {
		return "", fmt.Errorf("%w: blob too short", domain.ErrDecryption)
	}
	nonce := raw[:nonceSize]
	tag := raw[nonceSize : nonceSize+tagSize]
	ct := raw[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plain, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: tag verification failed", domain.ErrDecryption)
	}
	return string(plain), nil
}
