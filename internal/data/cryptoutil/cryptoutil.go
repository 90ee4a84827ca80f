// Package cryptoutil seals refresh tokens before they are written to the
// session store, so a leaked Redis dump never exposes usable credentials.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sealer seals and opens sensitive values stored at rest.
type Sealer interface {
	Seal(plaintext []byte) (string, error)
	Open(sealed string) ([]byte, error)
}

// AESGCMSealer implements Sealer using AES-256-GCM.
type AESGCMSealer struct {
	key []byte // 32 bytes
}

const (
	// Versioned prefix to allow future key/algorithm rotations without re-login storms.
	sealedPrefixV1 = "v1:"
	noopPrefix     = "noop:"
)

// NewAESGCMSealer constructs a new AESGCMSealer. Key must be 32 bytes (AES-256).
func NewAESGCMSealer(key []byte) (*AESGCMSealer, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("aes-gcm key must be 32 bytes, got %d", len(key))
	}
	return &AESGCMSealer{key: append([]byte(nil), key...)}, nil
}

// Seal encrypts plaintext with a random nonce and returns a versioned base64 string.
func (s *AESGCMSealer) Seal(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, readErr := io.ReadFull(rand.Reader, nonce); readErr != nil {
		return "", readErr
	}
	ct := gcm.Seal(nil, nonce, plaintext, nil)
	// Store nonce||ciphertext
	buf := make([]byte, 0, len(nonce)+len(ct))
	buf = append(buf, nonce...)
	buf = append(buf, ct...)
	return sealedPrefixV1 + base64.StdEncoding.EncodeToString(buf), nil
}

// Open decrypts a versioned base64 string created by Seal.
func (s *AESGCMSealer) Open(sealed string) ([]byte, error) {
	if !strings.HasPrefix(sealed, sealedPrefixV1) {
		prefix := sealed
		if len(prefix) > 10 {
			prefix = prefix[:10]
		}
		return nil, fmt.Errorf("unknown sealed value version (prefix: %s)", prefix)
	}
	data, err := base64.StdEncoding.DecodeString(sealed[len(sealedPrefixV1):])
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, errors.New("sealed value too short")
	}
	nonce, ct := data[:nonceSize], data[nonceSize:]
	pt, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, err
	}
	return pt, nil
}

// NoopSealer is useful for tests and dev mode; it stores plaintext with a prefix marker.
type NoopSealer struct{}

func (NoopSealer) Seal(plaintext []byte) (string, error) {
	return noopPrefix + base64.StdEncoding.EncodeToString(plaintext), nil
}

func (NoopSealer) Open(sealed string) ([]byte, error) {
	if !strings.HasPrefix(sealed, noopPrefix) {
		return nil, errors.New("invalid noop sealed value")
	}
	return base64.StdEncoding.DecodeString(sealed[len(noopPrefix):])
}
