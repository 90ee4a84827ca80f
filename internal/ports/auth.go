// Package ports defines interfaces (hexagonal ports) for auth-related
// behavior. Implementations live in internal/adapters; orchestration in
// internal/service.
package ports

import (
	"context"
	"errors"

	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
	"golang.org/x/oauth2"
)

// ErrSessionNotFound is returned by SessionStore implementations when no
// session exists for the given ID, including sessions the backing store
// already evicted at their TTL.
var ErrSessionNotFound = errors.New("session not found")

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// AuthProvider initiates and completes an interactive authentication flow
// against an IdP. Exchange returns the authenticated identity together with
// the provider token so the caller can enrich the profile through the
// directory API and retain the refresh token for silent acquisition.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, *oauth2.Token, error)
}

// TokenRefresher performs silent token acquisition from a stored refresh
// token. Implementations map the provider's invalid-grant response to an
// apperrors silent-auth-required error so callers can fall back to an
// interactive login.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// SessionStore persists and retrieves user sessions. Get reports a missing
// or evicted session with an error matching ErrSessionNotFound.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// LogoutURLProvider is implemented by auth providers that expose an
// interactive end-session endpoint. LogoutURL returns the provider URL the
// browser should visit to terminate the IdP session, with the post-logout
// redirect attached when given; providers without one return "".
type LogoutURLProvider interface {
	LogoutURL(postLogoutRedirect string) string
}

// RoleMapper derives application roles from a directory group display name.
type RoleMapper interface {
	Roles(groupDisplayName string) []domainauth.Role
}

// MailMessage is the payload for the directory's best-effort mail relay.
type MailMessage struct {
	Recipients  []string
	Subject     string
	Body        string
	ContentType string // "text" or "html"; empty defaults to text
}

// DirectoryClient issues authenticated calls against the remote directory
// API. It is constructed with no reference back to session state; callers
// supply the bearer token per call, which keeps the dependency direction
// one-way between the state layer and the directory layer.
type DirectoryClient interface {
	// Profile fetches the extended directory profile for the token's user.
	Profile(ctx context.Context, accessToken string) (domainauth.DirectoryProfile, error)

	// GroupsWithRoles fetches the user's group memberships with derived
	// roles attached. It never fails: directory errors are absorbed and an
	// empty list returned, per the assembler's degradation contract.
	GroupsWithRoles(ctx context.Context, accessToken string) []domainauth.Group

	// SendMessage relays a mail message on behalf of the token's user.
	SendMessage(ctx context.Context, accessToken string, msg MailMessage) error
}
