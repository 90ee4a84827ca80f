package bootstrap

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log/slog"

	"github.com/oakmont/portal-api/internal/data/cryptoutil"
)

// CreateSealer creates an AES-GCM sealer from the session seal key. Hex and
// base64 encodings of a 32-byte key are accepted; any other non-empty value
// is hashed down to 32 bytes. Returns a noop sealer when the key is empty,
// with a warning, so dev environments work without key material.
//
//nolint:ireturn // returning the Sealer interface is the point of this factory.
func CreateSealer(key string, logger *slog.Logger) cryptoutil.Sealer {
	if key == "" {
		if logger != nil {
			logger.Warn("session seal key is empty, refresh tokens will be stored with a noop sealer")
		}
		return cryptoutil.NoopSealer{}
	}

	sealer, err := cryptoutil.NewAESGCMSealer(sealKeyBytes(key))
	if err != nil {
		if logger != nil {
			logger.Warn("failed to create sealer, falling back to noop sealer", "error", err)
		}
		return cryptoutil.NoopSealer{}
	}

	return sealer
}

func sealKeyBytes(key string) []byte {
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == 32 {
		return decoded
	}
	if decoded, err := base64.StdEncoding.DecodeString(key); err == nil && len(decoded) == 32 {
		return decoded
	}

	hash := sha256.Sum256([]byte(key))
	return hash[:]
}
