package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
	apperrors "github.com/oakmont/portal-api/internal/errors"
	"github.com/oakmont/portal-api/internal/service"
)

// mockAuthService is a test double for service.AuthService.
type mockAuthService struct {
	beginLoginFunc     func(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	completeLoginFunc  func(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	refreshProfileFunc func(ctx context.Context, sessionID string) (*domainauth.Session, error)
	getSessionFunc     func(ctx context.Context, sessionID string) (*domainauth.Session, error)
	logoutFunc         func(ctx context.Context, sessionID string) error
	logoutURLFunc      func(postLogoutRedirect string) string
}

// testSession builds a session whose profile carries the given roles with
// permissions derived from them.
func testSession(id string, roles ...domainauth.Role) *domainauth.Session {
	if len(roles) == 0 {
		roles = []domainauth.Role{domainauth.RoleUser}
	}
	return &domainauth.Session{
		ID: id,
		Identity: domainauth.Identity{
			UserID: "test-user",
			Email:  "test@example.com",
		},
		Profile: domainauth.Profile{
			Name:        "Test User",
			Email:       "test@example.com",
			Username:    "test@example.com",
			Roles:       roles,
			Permissions: domainauth.DerivePermissions(roles),
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func (m *mockAuthService) BeginLogin(
	ctx context.Context,
	redirectURL string,
) (*service.BeginLoginResult, error) {
	if m.beginLoginFunc != nil {
		return m.beginLoginFunc(ctx, redirectURL)
	}
	return &service.BeginLoginResult{
		AuthURL: "https://login.example.com/authorize?state=test-state",
		State:   "test-state",
		Nonce:   "test-nonce",
	}, nil
}

func (m *mockAuthService) CompleteLogin(
	ctx context.Context,
	input service.CompleteLoginInput,
) (*service.CompleteLoginResult, error) {
	if m.completeLoginFunc != nil {
		return m.completeLoginFunc(ctx, input)
	}
	return &service.CompleteLoginResult{Session: *testSession("test-session-id")}, nil
}

func (m *mockAuthService) RefreshProfile(
	ctx context.Context,
	sessionID string,
) (*domainauth.Session, error) {
	if m.refreshProfileFunc != nil {
		return m.refreshProfileFunc(ctx, sessionID)
	}
	return testSession(sessionID), nil
}

func (m *mockAuthService) GetSession(
	ctx context.Context,
	sessionID string,
) (*domainauth.Session, error) {
	if m.getSessionFunc != nil {
		return m.getSessionFunc(ctx, sessionID)
	}
	return testSession(sessionID), nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) LogoutURL(postLogoutRedirect string) string {
	if m.logoutURLFunc != nil {
		return m.logoutURLFunc(postLogoutRedirect)
	}
	return ""
}

func TestAuthHandlers_Login_Success(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	w := httptest.NewRecorder()

	handlers.Login(w, req)

	assert.Equal(t, http.StatusFound, w.Code)

	resp := w.Result()
	defer resp.Body.Close()
	cookies := resp.Cookies()
	assert.Len(t, cookies, 3) // oauth_state, oauth_nonce, post_login_redirect

	location := w.Header().Get("Location")
	assert.Contains(t, location, "https://login.example.com/authorize")
}

func TestAuthHandlers_Login_WithRedirectURI(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=/dashboard", nil)
	w := httptest.NewRecorder()

	handlers.Login(w, req)

	assert.Equal(t, http.StatusFound, w.Code)

	resp := w.Result()
	defer resp.Body.Close()
	var redirectCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cookiePostLoginRedirect {
			redirectCookie = cookie
		}
	}
	require.NotNil(t, redirectCookie)
	assert.Equal(t, "/dashboard", redirectCookie.Value)
}

func TestAuthHandlers_Login_RejectsAbsoluteRedirect(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=https://evil.example.com/", nil)
	w := httptest.NewRecorder()

	handlers.Login(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cookiePostLoginRedirect {
			assert.Equal(t, "/", cookie.Value, "absolute redirect targets must be replaced with /")
		}
	}
}

func TestAuthHandlers_Login_ServiceError(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{
		beginLoginFunc: func(context.Context, string) (*service.BeginLoginResult, error) {
			return nil, apperrors.Init("auth provider not configured")
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	w := httptest.NewRecorder()

	handlers.Login(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuthHandlers_Callback_Success(t *testing.T) {
	var captured service.CompleteLoginInput
	handlers := &AuthHandlers{Svc: &mockAuthService{
		completeLoginFunc: func(_ context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
			captured = input
			return &service.CompleteLoginResult{Session: *testSession("new-session")}, nil
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state=test-state", nil)
	req.AddCookie(&http.Cookie{Name: cookieOAuthState, Value: "test-state"})
	req.AddCookie(&http.Cookie{Name: cookieOAuthNonce, Value: "test-nonce"})
	req.AddCookie(&http.Cookie{Name: cookiePostLoginRedirect, Value: "/reports"})
	w := httptest.NewRecorder()

	handlers.Callback(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/reports", w.Header().Get("Location"))
	assert.Equal(t, "auth-code", captured.Code)
	assert.Equal(t, "test-state", captured.State)
	assert.Equal(t, "test-nonce", captured.Nonce)

	resp := w.Result()
	defer resp.Body.Close()
	var sessionCookie *http.Cookie
	cleared := map[string]bool{}
	for _, cookie := range resp.Cookies() {
		switch cookie.Name {
		case cookieSessionID:
			sessionCookie = cookie
		case cookieOAuthState, cookieOAuthNonce, cookiePostLoginRedirect:
			cleared[cookie.Name] = cookie.MaxAge < 0
		}
	}
	require.NotNil(t, sessionCookie)
	assert.Equal(t, "new-session", sessionCookie.Value)
	assert.True(t, sessionCookie.HttpOnly)
	assert.True(t, cleared[cookieOAuthState])
	assert.True(t, cleared[cookieOAuthNonce])
	assert.True(t, cleared[cookiePostLoginRedirect])
}

func TestAuthHandlers_Callback_ErrorClearsOAuthCookies(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{
		completeLoginFunc: func(context.Context, service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
			return nil, apperrors.Provider("token endpoint returned 502")
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state=test-state", nil)
	req.AddCookie(&http.Cookie{Name: cookieOAuthState, Value: "test-state"})
	req.AddCookie(&http.Cookie{Name: cookieOAuthNonce, Value: "test-nonce"})
	w := httptest.NewRecorder()

	handlers.Callback(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	// The state and nonce are burned; a retry must not replay them.
	resp := w.Result()
	defer resp.Body.Close()
	cleared := map[string]bool{}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cookieOAuthState || cookie.Name == cookieOAuthNonce {
			cleared[cookie.Name] = cookie.MaxAge < 0
		}
	}
	assert.True(t, cleared[cookieOAuthState])
	assert.True(t, cleared[cookieOAuthNonce])
}

func TestAuthHandlers_Callback_MissingParams(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=test-state", nil)
	w := httptest.NewRecorder()
	handlers.Callback(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code", nil)
	w = httptest.NewRecorder()
	handlers.Callback(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlers_Callback_StateMismatch(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state=attacker-state", nil)
	req.AddCookie(&http.Cookie{Name: cookieOAuthState, Value: "test-state"})
	w := httptest.NewRecorder()

	handlers.Callback(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_state")
}

func TestAuthHandlers_Callback_MissingNonceCookie(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state=test-state", nil)
	req.AddCookie(&http.Cookie{Name: cookieOAuthState, Value: "test-state"})
	w := httptest.NewRecorder()

	handlers.Callback(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing_nonce")
}

func TestAuthHandlers_Callback_CompleteLoginError(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{
		completeLoginFunc: func(context.Context, service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
			return nil, apperrors.Provider("token endpoint returned 502")
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state=test-state", nil)
	req.AddCookie(&http.Cookie{Name: cookieOAuthState, Value: "test-state"})
	req.AddCookie(&http.Cookie{Name: cookieOAuthNonce, Value: "test-nonce"})
	w := httptest.NewRecorder()

	handlers.Callback(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "login_completion_failed")
}

func TestAuthHandlers_Logout(t *testing.T) {
	var loggedOut string
	handlers := &AuthHandlers{Svc: &mockAuthService{
		logoutFunc: func(_ context.Context, sessionID string) error {
			loggedOut = sessionID
			return nil
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: cookieSessionID, Value: "sess-1"})
	w := httptest.NewRecorder()

	handlers.Logout(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "sess-1", loggedOut)

	resp := w.Result()
	defer resp.Body.Close()
	var sessionCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cookieSessionID {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)
	assert.Negative(t, sessionCookie.MaxAge)
}

func TestAuthHandlers_Logout_RedirectsToProviderEndSession(t *testing.T) {
	var gotRedirect string
	handlers := &AuthHandlers{Svc: &mockAuthService{
		logoutURLFunc: func(postLogoutRedirect string) string {
			gotRedirect = postLogoutRedirect
			return "https://login.example.com/logout?post_logout_redirect_uri=" + postLogoutRedirect
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "https://portal.example.com/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: cookieSessionID, Value: "sess-1"})
	w := httptest.NewRecorder()

	handlers.Logout(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://portal.example.com/", gotRedirect)
	assert.Contains(t, w.Header().Get("Location"), "https://login.example.com/logout")
}

func TestAuthHandlers_Logout_JSONClientGetsLogoutURL(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{
		logoutURLFunc: func(string) string {
			return "https://login.example.com/logout"
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: cookieSessionID, Value: "sess-1"})
	w := httptest.NewRecorder()

	handlers.Logout(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "signed_out", body["status"])
	assert.Equal(t, "https://login.example.com/logout", body["logout_url"])
}

func TestAuthHandlers_Logout_JSONClient(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{}}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: cookieSessionID, Value: "sess-1"})
	w := httptest.NewRecorder()

	handlers.Logout(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "signed_out")
}

func TestAuthHandlers_Logout_ServiceErrorStillClearsCookie(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{
		logoutFunc: func(context.Context, string) error {
			return errors.New("redis down")
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: cookieSessionID, Value: "sess-1"})
	w := httptest.NewRecorder()

	handlers.Logout(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
}

func TestAuthHandlers_Status_Authenticated(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{
		getSessionFunc: func(_ context.Context, sessionID string) (*domainauth.Session, error) {
			return testSession(sessionID, domainauth.RoleAdmin), nil
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: cookieSessionID, Value: "sess-1"})
	w := httptest.NewRecorder()

	handlers.Status(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Authenticated)
	require.NotNil(t, body.Profile)
	assert.Equal(t, "Test User", body.Profile.Name)
	assert.Equal(t, "Admin", body.HighestRole)
	assert.True(t, body.Profile.Permissions.CanManageUsers)
}

func TestAuthHandlers_Status_NoCookie(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	w := httptest.NewRecorder()

	handlers.Status(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Authenticated)
	assert.Nil(t, body.Profile)
}

func TestAuthHandlers_Status_InvalidSessionClearsCookie(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{
		getSessionFunc: func(context.Context, string) (*domainauth.Session, error) {
			return nil, service.ErrSessionExpired
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: cookieSessionID, Value: "sess-1"})
	w := httptest.NewRecorder()

	handlers.Status(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Authenticated)

	resp := w.Result()
	defer resp.Body.Close()
	var sessionCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cookieSessionID {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)
	assert.Negative(t, sessionCookie.MaxAge)
}

func TestAuthHandlers_Refresh_Success(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{}}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: cookieSessionID, Value: "sess-1"})
	w := httptest.NewRecorder()

	handlers.Refresh(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Authenticated)
	require.NotNil(t, body.Profile)
}

func TestAuthHandlers_Refresh_NoCookie(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{}}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	w := httptest.NewRecorder()

	handlers.Refresh(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlers_Refresh_SilentAuthRequired(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{
		refreshProfileFunc: func(context.Context, string) (*domainauth.Session, error) {
			return nil, apperrors.SilentAuthRequired("refresh token revoked")
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: cookieSessionID, Value: "sess-1"})
	w := httptest.NewRecorder()

	handlers.Refresh(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "silent_auth_required")

	// The session cookie must survive so the current profile is kept until
	// the interactive login completes.
	resp := w.Result()
	defer resp.Body.Close()
	for _, cookie := range resp.Cookies() {
		assert.NotEqual(t, cookieSessionID, cookie.Name)
	}
}

func TestAuthHandlers_Refresh_SessionExpired(t *testing.T) {
	handlers := &AuthHandlers{Svc: &mockAuthService{
		refreshProfileFunc: func(context.Context, string) (*domainauth.Session, error) {
			return nil, service.ErrSessionExpired
		},
	}}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: cookieSessionID, Value: "sess-1"})
	w := httptest.NewRecorder()

	handlers.Refresh(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "session_expired")

	resp := w.Result()
	defer resp.Body.Close()
	var sessionCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cookieSessionID {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie, "expired sessions must clear the cookie")
	assert.Negative(t, sessionCookie.MaxAge)
}

func TestSafeRedirectPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/dashboard", "/dashboard"},
		{"/reports?tab=weekly", "/reports?tab=weekly"},
		{"https://evil.example.com/", "/"},
		{"//evil.example.com", "/"},
		{"dashboard", "/"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, safeRedirectPath(tc.in), "input %q", tc.in)
	}
}
