// Package mocks provides hand-written test doubles for the auth ports.
// Behavior is deterministic by default; tests override the Func fields to
// inject failures or observe calls.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
	"github.com/oakmont/portal-api/internal/domain/model"
	"github.com/oakmont/portal-api/internal/ports"
)

// ErrNotFound is returned by MemorySessionStore when a session does not
// exist. It aliases the port sentinel so the double reports missing sessions
// the same way the Redis store does.
var ErrNotFound = ports.ErrSessionNotFound

// MockAuthProvider is a deterministic AuthProvider double. Each Begin call
// yields state-1/nonce-1, state-2/nonce-2, and so on; Exchange returns
// DefaultUser with DefaultToken.
type MockAuthProvider struct {
	mu        sync.Mutex
	callCount int

	// BeginFunc overrides Begin entirely when set.
	BeginFunc func(ctx context.Context, in ports.BeginInput) (string, string, string, error)
	// ExchangeFunc overrides Exchange entirely when set.
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, *oauth2.Token, error)

	AuthURL      string
	StatePrefix  string
	NoncePrefix  string
	DefaultUser  domainauth.Identity
	DefaultToken *oauth2.Token
}

// NewMockAuthProvider creates a provider double with a plausible default user.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://login.example.com/authorize",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: domainauth.Identity{
			UserID:    "user-123",
			Name:      "Ada Lovelace",
			Username:  "ada@example.com",
			Email:     "ada@example.com",
			ExpiresAt: time.Now().Add(time.Hour),
		},
		DefaultToken: &oauth2.Token{
			AccessToken:  "mock-access-token",
			RefreshToken: "mock-refresh-token",
			Expiry:       time.Now().Add(time.Hour),
		},
	}
}

// Begin implements ports.AuthProvider.
func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	state := fmt.Sprintf("%s-%d", m.StatePrefix, n)
	nonce := fmt.Sprintf("%s-%d", m.NoncePrefix, n)
	return m.AuthURL + "?state=" + state, state, nonce, nil
}

// Exchange implements ports.AuthProvider.
func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, *oauth2.Token, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	identity := m.DefaultUser
	tok := *m.DefaultToken
	return identity, &tok, nil
}

// MockTokenRefresher is a TokenRefresher double. By default it re-issues
// Token for any non-empty refresh token.
type MockTokenRefresher struct {
	RefreshFunc func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

	Token *oauth2.Token
}

// NewMockTokenRefresher creates a refresher double with a default token.
func NewMockTokenRefresher() *MockTokenRefresher {
	return &MockTokenRefresher{
		Token: &oauth2.Token{
			AccessToken:  "refreshed-access-token",
			RefreshToken: "mock-refresh-token",
			Expiry:       time.Now().Add(time.Hour),
		},
	}
}

// Refresh implements ports.TokenRefresher.
func (m *MockTokenRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("empty refresh token")
	}
	tok := *m.Token
	return &tok, nil
}

// MemorySessionStore is an in-memory SessionStore safe for concurrent use.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

// Save implements ports.SessionStore.
func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

// Get implements ports.SessionStore.
func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

// Delete implements ports.SessionStore.
func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// MockDirectoryClient is a DirectoryClient double. Defaults return Profile
// and Groups as configured; SendMessage records the call and succeeds.
type MockDirectoryClient struct {
	mu sync.Mutex

	ProfileFunc func(ctx context.Context, accessToken string) (domainauth.DirectoryProfile, error)
	GroupsFunc  func(ctx context.Context, accessToken string) []domainauth.Group
	SendFunc    func(ctx context.Context, accessToken string, msg ports.MailMessage) error

	DefaultProfile domainauth.DirectoryProfile
	DefaultGroups  []domainauth.Group

	ProfileCalls int
	GroupsCalls  int
	SentMessages []ports.MailMessage
}

// NewMockDirectoryClient creates a directory double with a default profile
// and a single group carrying the base user role.
func NewMockDirectoryClient() *MockDirectoryClient {
	return &MockDirectoryClient{
		DefaultProfile: domainauth.DirectoryProfile{
			ID:                "dir-user-123",
			DisplayName:       "Ada Lovelace",
			Mail:              "ada@example.com",
			UserPrincipalName: "ada@example.com",
			JobTitle:          "Engineer",
			OfficeLocation:    "Building 7",
		},
		DefaultGroups: []domainauth.Group{
			{ID: "g-1", DisplayName: "Engineering", Roles: []domainauth.Role{domainauth.RoleUser}},
		},
	}
}

// Profile implements ports.DirectoryClient.
func (m *MockDirectoryClient) Profile(ctx context.Context, accessToken string) (domainauth.DirectoryProfile, error) {
	m.mu.Lock()
	m.ProfileCalls++
	m.mu.Unlock()
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, accessToken)
	}
	return m.DefaultProfile, nil
}

// GroupsWithRoles implements ports.DirectoryClient.
func (m *MockDirectoryClient) GroupsWithRoles(ctx context.Context, accessToken string) []domainauth.Group {
	m.mu.Lock()
	m.GroupsCalls++
	m.mu.Unlock()
	if m.GroupsFunc != nil {
		return m.GroupsFunc(ctx, accessToken)
	}
	return m.DefaultGroups
}

// SendMessage implements ports.DirectoryClient.
func (m *MockDirectoryClient) SendMessage(ctx context.Context, accessToken string, msg ports.MailMessage) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, accessToken, msg)
	}
	m.mu.Lock()
	m.SentMessages = append(m.SentMessages, msg)
	m.mu.Unlock()
	return nil
}

// MockSignInRecorder captures audit rows for assertion.
type MockSignInRecorder struct {
	mu       sync.Mutex
	Requests []model.RecordSignInRequest

	RecordFunc func(ctx context.Context, req *model.RecordSignInRequest) (*model.SignInEvent, error)
}

// Record implements the service's SignInRecorder.
func (m *MockSignInRecorder) Record(ctx context.Context, req *model.RecordSignInRequest) (*model.SignInEvent, error) {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, req)
	}
	m.mu.Lock()
	m.Requests = append(m.Requests, *req)
	m.mu.Unlock()
	return &model.SignInEvent{
		ID:           "evt-1",
		UserID:       req.UserID,
		Email:        req.Email,
		Method:       req.Method,
		Outcome:      req.Outcome,
		RolesGranted: req.RolesGranted,
		CreatedAt:    time.Now(),
	}, nil
}

// Recorded returns a copy of the captured audit rows.
func (m *MockSignInRecorder) Recorded() []model.RecordSignInRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RecordSignInRequest, len(m.Requests))
	copy(out, m.Requests)
	return out
}
