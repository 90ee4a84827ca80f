// Package auth contains domain-level types for authentication, directory
// enrichment, and permission derivation. It is pure and free of
// framework/adapter concerns.
package auth

import (
	"strings"
	"time"
)

// Role represents an application authorization role.
// Kept in string form for easy persistence and JSON transport.
// Role comparison throughout this package is case-insensitive.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleEditor Role = "Editor"
	RoleViewer Role = "Viewer"
	RoleUser   Role = "User"
)

// Equal reports whether two roles match case-insensitively.
func (r Role) Equal(other Role) bool {
	return strings.EqualFold(string(r), string(other))
}

// Identity represents the authenticated principal returned by the identity
// provider. Adapters map provider-specific claims into this shape; Roles
// carries only the role claims embedded in the token, before any directory
// enrichment.
type Identity struct {
	UserID    string    `json:"user_id"`    // stable user identifier (oid or sub)
	Name      string    `json:"name"`       // display name claim
	Username  string    `json:"username"`   // preferred_username / UPN
	Email     string    `json:"email"`
	Roles     []Role    `json:"roles"`      // token-embedded role claims, trusted without lookup
	ExpiresAt time.Time `json:"expires_at"` // absolute expiry from the IdP token
}

// Group is a directory membership record. Roles is derived from DisplayName
// by the configured role mapper; a single group can yield multiple roles.
type Group struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Roles       []Role `json:"roles"`
}

// DirectoryProfile holds extended user attributes fetched from the remote
// directory API. All fields are optional; empty values mean the directory
// did not supply them.
type DirectoryProfile struct {
	ID                string `json:"id,omitempty"`
	DisplayName       string `json:"display_name,omitempty"`
	Mail              string `json:"mail,omitempty"`
	UserPrincipalName string `json:"user_principal_name,omitempty"`
	JobTitle          string `json:"job_title,omitempty"`
	OfficeLocation    string `json:"office_location,omitempty"`
}

// Profile is the fully reconciled user profile published after login or
// refresh. It is replaced wholesale on every assembly, never mutated in
// place, and its Roles field is the deduplicated union of claim roles and
// group-derived roles.
type Profile struct {
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Username       string            `json:"username"`
	Roles          []Role            `json:"roles"`
	Groups         []Group           `json:"groups"`
	JobTitle       string            `json:"job_title,omitempty"`
	OfficeLocation string            `json:"office_location,omitempty"`
	Directory      *DirectoryProfile `json:"directory,omitempty"`
	Permissions    PermissionSet     `json:"permissions"`
}

// HasRole reports whether the profile carries the named role
// (case-insensitive).
func (p *Profile) HasRole(name string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r.Equal(Role(name)) {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the profile carries at least one of the named
// roles.
func (p *Profile) HasAnyRole(names ...string) bool {
	for _, n := range names {
		if p.HasRole(n) {
			return true
		}
	}
	return false
}

// HighestRole returns the profile's display role per the fixed priority
// order. A nil profile reports RoleUser.
func (p *Profile) HighestRole() Role {
	if p == nil {
		return RoleUser
	}
	return HighestRole(p.Roles)
}

// Session is the server-side record persisted for an authenticated user.
// ID is an opaque session identifier. Identity is the claim-level principal
// snapshot kept so profile refreshes can recompute the claim/group role
// union without a fresh interactive login. RefreshToken is sealed by the
// configured encryptor before persistence.
type Session struct {
	ID           string    `json:"id"`
	Identity     Identity  `json:"identity"`
	Profile      Profile   `json:"profile"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has passed its absolute expiry.
func (s Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
