//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// SignInMethod identifies how a principal authenticated.
type SignInMethod string

const (
	SignInMethodOAuth   SignInMethod = "oauth"
	SignInMethodMock    SignInMethod = "mock"
	SignInMethodRefresh SignInMethod = "refresh"
)

// Valid reports whether the sign-in method is supported.
func (m SignInMethod) Valid() bool {
	switch m {
	case SignInMethodOAuth, SignInMethodMock, SignInMethodRefresh:
		return true
	default:
		return false
	}
}

// SignInOutcome is the terminal result of an authentication attempt.
type SignInOutcome string

const (
	SignInOutcomeSuccess SignInOutcome = "success"
	SignInOutcomeFailure SignInOutcome = "failure"
)

// Valid reports whether the sign-in outcome is supported.
func (o SignInOutcome) Valid() bool {
	switch o {
	case SignInOutcomeSuccess, SignInOutcomeFailure:
		return true
	default:
		return false
	}
}

// SignInEvent is one row of the sign-in audit trail. Detail carries the
// error code for failures and is null on success; RolesGranted records the
// final derived role set so audits can reconstruct what a user could do at
// the time.
type SignInEvent struct {
	ID           string        `json:"id"                     db:"id"`
	UserID       string        `json:"user_id"                db:"user_id"`
	Email        string        `json:"email"                  db:"email"`
	Method       SignInMethod  `json:"method"                 db:"method"`
	Outcome      SignInOutcome `json:"outcome"                db:"outcome"`
	Detail       *string       `json:"detail,omitempty"       db:"detail"`
	RolesGranted []string      `json:"roles_granted"          db:"roles_granted"`
	CreatedAt    time.Time     `json:"created_at"             db:"created_at"`
}

// RecordSignInRequest carries the fields for appending an audit row.
type RecordSignInRequest struct {
	UserID       string
	Email        string
	Method       SignInMethod
	Outcome      SignInOutcome
	Detail       string
	RolesGranted []string
}

// Validate checks required fields and enum values.
func (r *RecordSignInRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" && strings.TrimSpace(r.UserID) == "" {
		return errors.New("sign-in event requires a user ID or email")
	}
	if !r.Method.Valid() {
		return errors.New("invalid sign-in method: " + string(r.Method))
	}
	if !r.Outcome.Valid() {
		return errors.New("invalid sign-in outcome: " + string(r.Outcome))
	}
	return nil
}

// SignInEventsListOptions controls paging and filtering for the audit listing.
// Notes:
// - Sort supports: "created_at", "email" (case-insensitive).
// - Dir supports: "asc", "desc" (case-insensitive).
// - Q matches email via ILIKE substring.
type SignInEventsListOptions struct {
	Limit   int
	Offset  int
	Q       *string
	UserID  *string
	Outcome *SignInOutcome
	Since   *time.Time
	Sort    string
	Dir     string
}
