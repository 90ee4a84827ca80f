package devauth

import (
	"context"
	"strings"
	"testing"

	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
	"github.com/oakmont/portal-api/internal/ports"
)

func TestProvider_BeginAndExchange(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Name: "Dev User", Email: "dev@example.com", Roles: []string{"Editor"}})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	url, state, nonce, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/"})
	if err != nil {
		t.Fatalf("Begin error: %v", err)
	}
	if !strings.HasPrefix(url, "/auth/callback?") {
		t.Fatalf("unexpected authURL: %s", url)
	}
	if state == "" || nonce == "" {
		t.Fatal("state and nonce should be generated")
	}
	id, tok, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "dev", State: state, Nonce: nonce})
	if err != nil {
		t.Fatalf("Exchange error: %v", err)
	}
	if id.UserID != "dev-user" || id.Email != "dev@example.com" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if len(id.Roles) != 1 || !id.Roles[0].Equal(domainauth.RoleEditor) {
		t.Fatalf("unexpected roles: %v", id.Roles)
	}
	if tok == nil || tok.AccessToken == "" || tok.RefreshToken == "" {
		t.Fatalf("expected synthetic token, got %+v", tok)
	}
}

func TestProvider_DefaultsToUserRole(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com"})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	id, _, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "dev"})
	if err != nil {
		t.Fatalf("Exchange error: %v", err)
	}
	if len(id.Roles) != 1 || !id.Roles[0].Equal(domainauth.RoleUser) {
		t.Fatalf("expected default user role, got %v", id.Roles)
	}
}

func TestProvider_Refresh(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com"})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	if _, err := prov.Refresh(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty refresh token")
	}
	tok, err := prov.Refresh(context.Background(), "dev-refresh-token")
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if tok.AccessToken == "" {
		t.Fatal("expected access token")
	}
}
