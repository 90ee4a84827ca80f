package httpx

// Cookie names shared by the auth handlers and middleware.
const (
	cookieSessionID         = "session_id"
	cookieOAuthState        = "oauth_state"
	cookieOAuthNonce        = "oauth_nonce"
	cookiePostLoginRedirect = "post_login_redirect"
)

// oauthCookieMaxAge bounds how long the state/nonce/redirect cookies live.
// The whole IdP round trip normally finishes in seconds.
const oauthCookieMaxAge = 600 // 10 minutes

const (
	// DefaultSignInListLimit caps the audit listing page size when the
	// client does not specify one.
	DefaultSignInListLimit = 50
	// MaxSignInListLimit is the hard ceiling for the audit listing page size.
	MaxSignInListLimit = 500
)
