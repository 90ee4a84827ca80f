// Package devauth provides a config-driven AuthProvider for local development.
// It short-circuits the OAuth flow by redirecting straight back to the portal
// callback and returning a fixed identity with a synthetic token.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
	"github.com/oakmont/portal-api/internal/ports"
)

// Config controls the dev auth provider behavior. UserID and Email are
// required; Roles defaults to the base user role when empty.
type Config struct {
	UserID          string
	Name            string
	Email           string
	Roles           []string
	SessionDuration time.Duration // default 8h when zero
}

// Provider implements ports.AuthProvider and ports.TokenRefresher for local
// development. Exchange ignores the code and returns the configured identity.
type Provider struct {
	identity        domainauth.Identity
	sessionDuration time.Duration
}

var (
	_ ports.AuthProvider   = (*Provider)(nil)
	_ ports.TokenRefresher = (*Provider)(nil)
)

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	roles := make([]domainauth.Role, 0, len(cfg.Roles))
	for _, r := range cfg.Roles {
		roles = append(roles, domainauth.Role(r))
	}
	if len(roles) == 0 {
		roles = []domainauth.Role{domainauth.RoleUser}
	}
	return &Provider{
		identity: domainauth.Identity{
			UserID:   cfg.UserID,
			Name:     cfg.Name,
			Username: cfg.Email,
			Email:    cfg.Email,
			Roles:    roles,
		},
		sessionDuration: dur,
	}, nil
}

// Begin returns a local callback URL with locally generated state and nonce.
// The standard handler expects GET /auth/callback?code=...&state=...
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	authURL := "/auth/callback?code=dev&state=" + state
	return authURL, state, nonce, nil
}

// Exchange ignores the provided code/state/nonce (validation handled by the
// handler) and returns the dev identity with a synthetic token.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, *oauth2.Token, error) {
	identity := p.identity
	identity.ExpiresAt = time.Now().Add(p.sessionDuration)
	return identity, p.devToken(), nil
}

// Refresh re-issues the synthetic token so silent acquisition works the same
// way in dev mode as against a real provider.
func (p *Provider) Refresh(_ context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, errors.New("dev auth: empty refresh token")
	}
	return p.devToken(), nil
}

func (p *Provider) devToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "dev-access-token",
		RefreshToken: "dev-refresh-token",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(p.sessionDuration),
	}
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}
