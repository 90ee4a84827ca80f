// Package oidc provides the OIDC/OAuth2 auth provider for the portal. It
// implements both interactive login (Begin/Exchange) and silent token
// acquisition (Refresh) against an Azure AD-style identity provider.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
	apperrors "github.com/oakmont/portal-api/internal/errors"
	"github.com/oakmont/portal-api/internal/ports"
)

// Provider implements ports.AuthProvider and ports.TokenRefresher using
// OIDC discovery, the OAuth2 code flow, and refresh-token grants.
type Provider struct {
	config     *oauth2.Config
	logoutURL  string
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

var (
	_ ports.AuthProvider      = (*Provider)(nil)
	_ ports.TokenRefresher    = (*Provider)(nil)
	_ ports.LogoutURLProvider = (*Provider)(nil)
)

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	LogoutURL    string
	HTTPClient   *http.Client // Optional, defaults to a 30s-timeout client
}

// NewProvider creates a new OIDC provider. Discovery runs once here; a
// failure is an init error that blocks login entirely.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, apperrors.Init("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, apperrors.Init("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, apperrors.Init("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, apperrors.Init("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{
		logoutURL:  config.LogoutURL,
		httpClient: httpClient,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInit, "oidc discovery")
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       strings.Fields(config.Scope),
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

// LogoutURL implements ports.LogoutURLProvider. It returns the configured
// end-session URL with post_logout_redirect_uri attached so the IdP sends
// the browser back to the portal after terminating its own session. An
// unparseable configured URL is returned as-is.
func (p *Provider) LogoutURL(postLogoutRedirect string) string {
	if p.logoutURL == "" || postLogoutRedirect == "" {
		return p.logoutURL
	}
	u, err := url.Parse(p.logoutURL)
	if err != nil {
		return p.logoutURL
	}
	q := u.Query()
	q.Set("post_logout_redirect_uri", postLogoutRedirect)
	u.RawQuery = q.Encode()
	return u.String()
}

// Begin starts the login flow: it generates a cryptographically secure
// state and nonce and returns the provider's authorization URL.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// redirect_uri is not overridden here; it must match the configured
	// RedirectURL exactly.
	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)

	return authURL, state, nonce, nil
}

// Exchange completes the login flow: it redeems the authorization code,
// verifies the id_token (including the nonce), and maps claims into the
// domain identity. The raw token is returned alongside so callers can use
// the access token for directory calls and retain the refresh token.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, *oauth2.Token, error) {
	if in.Code == "" {
		return domainauth.Identity{}, nil, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Identity{}, nil, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.Identity{}, nil, errors.New("nonce is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, nil, apperrors.Wrap(err, apperrors.ErrCodeProvider, "exchange code for token")
	}

	claims, err := p.verifyIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, nil, apperrors.Wrap(err, apperrors.ErrCodeProvider, "verify id_token")
	}

	identity := identityFromClaims(claims)
	if identity.Email == "" || identity.UserID == "" {
		if fillErr := p.fillFromUserInfo(ctx, token.AccessToken, &identity); fillErr != nil {
			return domainauth.Identity{}, nil, apperrors.Wrap(fillErr, apperrors.ErrCodeProvider, "fetch user info")
		}
	}

	identity.ExpiresAt = time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		identity.ExpiresAt = token.Expiry
	}

	return identity, token, nil
}

// Refresh performs a silent token acquisition from a refresh token. An
// invalid or revoked grant maps to a silent-auth-required error so the
// caller can fall back to an interactive login.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, apperrors.SilentAuthRequired("no refresh token available")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	src := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_grant" {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeSilentAuthRequired, "refresh token rejected")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeProvider, "refresh token")
	}
	return token, nil
}

// idTokenClaims is the superset of Azure AD / generic OIDC claim shapes the
// portal consumes.
type idTokenClaims struct {
	Sub               string   `json:"sub"`
	ObjectID          string   `json:"oid"`
	Name              string   `json:"name"`
	PreferredUsername string   `json:"preferred_username"`
	Email             string   `json:"email"`
	Roles             []string `json:"roles"`
	Nonce             string   `json:"nonce"`
}

func (p *Provider) verifyIDToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (idTokenClaims, error) {
	var claims idTokenClaims
	rawID, err := idTokenFromToken(tok)
	if err != nil {
		return claims, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return claims, err
	}
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return claims, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	if expectedNonce != "" && claims.Nonce != expectedNonce {
		return claims, errors.New("invalid nonce")
	}
	return claims, nil
}

// identityFromClaims maps raw id_token claims into the domain identity.
// Role claims are trusted as-is; they are unioned with directory-derived
// roles later in the assembly pipeline.
func identityFromClaims(c idTokenClaims) domainauth.Identity {
	roles := make([]domainauth.Role, 0, len(c.Roles))
	for _, r := range c.Roles {
		roles = append(roles, domainauth.Role(r))
	}
	email := c.Email
	if email == "" && strings.Contains(c.PreferredUsername, "@") {
		email = c.PreferredUsername
	}
	return domainauth.Identity{
		UserID:   firstNonEmpty(c.ObjectID, c.Sub),
		Name:     c.Name,
		Username: c.PreferredUsername,
		Email:    email,
		Roles:    roles,
	}
}

// userInfoClaims represents the subset of the userinfo response used to
// backfill identity fields missing from the id_token.
type userInfoClaims struct {
	Subject           string `json:"sub"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
}

func (p *Provider) fillFromUserInfo(ctx context.Context, accessToken string, identity *domainauth.Identity) error {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	var claims userInfoClaims
	if claimsErr := ui.Claims(&claims); claimsErr != nil {
		return fmt.Errorf("decode user info: %w", claimsErr)
	}
	if identity.UserID == "" {
		identity.UserID = claims.Subject
	}
	if identity.Name == "" {
		identity.Name = claims.Name
	}
	if identity.Username == "" {
		identity.Username = claims.PreferredUsername
	}
	if identity.Email == "" {
		identity.Email = claims.Email
	}
	return nil
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}

// idTokenFromToken extracts the id_token from an oauth2.Token.
func idTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	raw := tok.Extra("id_token")
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
