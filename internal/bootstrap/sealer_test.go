package bootstrap

import (
	"encoding/base64"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/oakmont/portal-api/internal/data/cryptoutil"
)

func TestCreateSealerEmptyKeyFallsBackToNoop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sealer := CreateSealer("", logger)
	if _, ok := sealer.(cryptoutil.NoopSealer); !ok {
		t.Fatalf("CreateSealer(\"\") = %T, want NoopSealer", sealer)
	}
}

func TestCreateSealerRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	key := strings.Repeat("k", 32)

	tests := []struct {
		name string
		key  string
	}{
		{name: "hex key", key: hex.EncodeToString([]byte(key))},
		{name: "base64 key", key: base64.StdEncoding.EncodeToString([]byte(key))},
		{name: "passphrase hashed to key", key: "correct horse battery staple"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealer := CreateSealer(tt.key, logger)
			if _, ok := sealer.(cryptoutil.NoopSealer); ok {
				t.Fatal("CreateSealer() returned NoopSealer for a usable key")
			}

			sealed, err := sealer.Seal([]byte("refresh-token"))
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			if sealed == "refresh-token" {
				t.Fatal("Seal() returned plaintext")
			}

			opened, err := sealer.Open(sealed)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if string(opened) != "refresh-token" {
				t.Fatalf("Open() = %q, want %q", opened, "refresh-token")
			}
		})
	}
}
