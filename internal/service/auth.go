package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/oakmont/portal-api/internal/data/cryptoutil"
	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
	"github.com/oakmont/portal-api/internal/domain/model"
	apperrors "github.com/oakmont/portal-api/internal/errors"
	obserrors "github.com/oakmont/portal-api/internal/observability/errors"
	"github.com/oakmont/portal-api/internal/observability/statsd"
	"github.com/oakmont/portal-api/internal/ports"
	"github.com/oakmont/portal-api/internal/state"
)

// SignInRecorder appends rows to the sign-in audit trail. Recording is
// best-effort; a failed append never blocks login.
type SignInRecorder interface {
	Record(ctx context.Context, req *model.RecordSignInRequest) (*model.SignInEvent, error)
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider  ports.AuthProvider
	Refresher ports.TokenRefresher
	Sessions  ports.SessionStore
	Directory ports.DirectoryClient
	States    *state.Registry
	Audit     SignInRecorder    // optional
	Sealer    cryptoutil.Sealer // seals refresh tokens at rest
	Metrics   statsd.Sink       // optional
	Logger    *slog.Logger

	// AuditMethod identifies the interactive login method in audit rows.
	AuditMethod model.SignInMethod
	// SessionTTL bounds the absolute session lifetime. Defaults to 8h.
	SessionTTL time.Duration
}

// AuthService orchestrates authentication flows: interactive login, profile
// assembly and refresh, session lifecycle, and per-session auth state
// publication.
type AuthService struct {
	provider  ports.AuthProvider
	refresher ports.TokenRefresher
	sessions  ports.SessionStore
	directory ports.DirectoryClient
	states    *state.Registry
	audit     SignInRecorder
	sealer    cryptoutil.Sealer
	metrics   statsd.Sink
	logger    *slog.Logger

	auditMethod model.SignInMethod
	sessionTTL  time.Duration

	// refreshes coalesces overlapping profile refreshes per session so a
	// burst of callers shares one directory round trip.
	refreshes singleflight.Group
}

// ErrSessionExpired is returned when a session has passed its absolute expiry.
var ErrSessionExpired = errors.New("session expired")

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sealer := opts.Sealer
	if sealer == nil {
		sealer = cryptoutil.NoopSealer{}
	}
	method := opts.AuditMethod
	if method == "" {
		method = model.SignInMethodOAuth
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AuthService{
		provider:    opts.Provider,
		refresher:   opts.Refresher,
		sessions:    opts.Sessions,
		directory:   opts.Directory,
		states:      opts.States,
		audit:       opts.Audit,
		sealer:      sealer,
		metrics:     opts.Metrics,
		logger:      logger,
		auditMethod: method,
		sessionTTL:  ttl,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
}

// CompleteLogin completes an authentication flow: it exchanges the code for
// an identity and token, assembles the full profile, persists the session
// with the sealed refresh token, and publishes the authenticated state.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, token, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		s.recordSignIn(ctx, model.RecordSignInRequest{
			Method:  s.auditMethod,
			Outcome: model.SignInOutcomeFailure,
			Detail:  string(apperrors.GetCode(err)),
			Email:   identity.Email,
			UserID:  identity.UserID,
		})
		s.count("auth.login", map[string]string{"outcome": "failure", "error_type": obserrors.Classify(err)})
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	sessionID := generateSessionID()
	store := s.stateFor(sessionID)
	if store != nil {
		store.SetLoading(true)
		defer store.SetLoading(false)
	}

	profile := s.assembleProfile(ctx, identity, token.AccessToken)

	sealedRefresh, err := s.sealToken(token.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("seal refresh token: %w", err)
	}

	session := domainauth.Session{
		ID:           sessionID,
		Identity:     identity,
		Profile:      profile,
		RefreshToken: sealedRefresh,
		ExpiresAt:    time.Now().Add(s.sessionTTL),
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	if store != nil {
		store.Publish(&session.Profile, true)
	}

	s.recordSignIn(ctx, model.RecordSignInRequest{
		UserID:       identity.UserID,
		Email:        identity.Email,
		Method:       s.auditMethod,
		Outcome:      model.SignInOutcomeSuccess,
		RolesGranted: roleStrings(profile.Roles),
	})
	s.count("auth.login", map[string]string{"outcome": "success"})

	return &CompleteLoginResult{Session: session}, nil
}

// RefreshProfile silently re-acquires a token and reassembles the session's
// profile. Overlapping calls for the same session coalesce into one refresh;
// every caller receives the same result.
func (s *AuthService) RefreshProfile(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	v, err, _ := s.refreshes.Do(sessionID, func() (any, error) {
		return s.refreshProfile(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	sess, ok := v.(*domainauth.Session)
	if !ok {
		return nil, errors.New("unexpected refresh result type")
	}
	return sess, nil
}

func (s *AuthService) refreshProfile(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	store := s.stateFor(sessionID)
	if store != nil {
		store.SetLoading(true)
		defer store.SetLoading(false)
	}

	refreshToken, err := s.openToken(session.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("open refresh token: %w", err)
	}
	if refreshToken == "" {
		return nil, apperrors.SilentAuthRequired("session has no refresh token")
	}

	token, err := s.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		s.recordSignIn(ctx, model.RecordSignInRequest{
			UserID:  session.Identity.UserID,
			Email:   session.Identity.Email,
			Method:  model.SignInMethodRefresh,
			Outcome: model.SignInOutcomeFailure,
			Detail:  string(apperrors.GetCode(err)),
		})
		s.count("auth.refresh", map[string]string{"outcome": "failure", "error_type": obserrors.Classify(err)})
		return nil, err
	}

	session.Profile = s.assembleProfile(ctx, session.Identity, token.AccessToken)

	// Providers may rotate the refresh token on use; keep the newest.
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		sealed, sealErr := s.sealToken(token.RefreshToken)
		if sealErr != nil {
			return nil, fmt.Errorf("seal refresh token: %w", sealErr)
		}
		session.RefreshToken = sealed
	}

	if saveErr := s.sessions.Save(ctx, *session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	if store != nil {
		store.Publish(&session.Profile, true)
	}

	s.recordSignIn(ctx, model.RecordSignInRequest{
		UserID:       session.Identity.UserID,
		Email:        session.Identity.Email,
		Method:       model.SignInMethodRefresh,
		Outcome:      model.SignInOutcomeSuccess,
		RolesGranted: roleStrings(session.Profile.Roles),
	})
	s.count("auth.refresh", map[string]string{"outcome": "success"})

	return session, nil
}

// GetSession retrieves a session by ID, cleaning up expired sessions and
// their published state.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		// Redis evicts session keys at their TTL, so an expired session
		// usually surfaces here as not-found; reap its published state too
		// or the registry entry outlives the session.
		if errors.Is(err, ports.ErrSessionNotFound) && s.states != nil {
			s.states.Remove(sessionID)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.IsExpired(time.Now()) {
		if s.states != nil {
			s.states.Remove(sessionID)
		}
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// LogoutURL returns the provider's end-session URL with the post-logout
// redirect attached, or "" when the provider has no interactive sign-out
// endpoint (dev auth, unconfigured OAuth). The caller sends the browser
// there after the local session is gone so the IdP session ends too.
func (s *AuthService) LogoutURL(postLogoutRedirect string) string {
	if lp, ok := s.provider.(ports.LogoutURLProvider); ok {
		return lp.LogoutURL(postLogoutRedirect)
	}
	return ""
}

// Logout removes a session and clears its published auth state.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	if s.states != nil {
		s.states.Remove(sessionID)
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// SendMail relays a message through the directory on behalf of the session's
// user, acquiring a fresh access token silently.
func (s *AuthService) SendMail(ctx context.Context, sessionID string, msg ports.MailMessage) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.Profile.Permissions.CanSendEmails {
		return apperrors.Validation("profile does not permit sending mail")
	}

	refreshToken, err := s.openToken(session.RefreshToken)
	if err != nil {
		return fmt.Errorf("open refresh token: %w", err)
	}
	if refreshToken == "" {
		return apperrors.SilentAuthRequired("session has no refresh token")
	}
	token, err := s.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return err
	}

	return s.directory.SendMessage(ctx, token.AccessToken, msg)
}

// assembleProfile builds the full profile for an identity: the claim-derived
// base, directory enrichment fetched concurrently, role union, and permission
// derivation. Directory failures degrade; the result is never less than the
// claim-derived profile with at least the base user role.
func (s *AuthService) assembleProfile(ctx context.Context, identity domainauth.Identity, accessToken string) domainauth.Profile {
	start := time.Now()

	claimRoles := identity.Roles
	if len(claimRoles) == 0 {
		claimRoles = []domainauth.Role{domainauth.RoleUser}
	}
	profile := domainauth.Profile{
		Name:     identity.Name,
		Email:    identity.Email,
		Username: identity.Username,
		Roles:    claimRoles,
	}

	if s.directory != nil && accessToken != "" {
		var (
			dirProfile domainauth.DirectoryProfile
			dirErr     error
			groups     []domainauth.Group
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			dirProfile, dirErr = s.directory.Profile(gctx, accessToken)
			return nil
		})
		g.Go(func() error {
			groups = s.directory.GroupsWithRoles(gctx, accessToken)
			return nil
		})
		_ = g.Wait()

		if dirErr != nil {
			s.logger.Warn("directory profile fetch failed, using claim profile",
				"user_id", identity.UserID, "error", dirErr)
		} else {
			profile.Directory = &dirProfile
			profile.JobTitle = dirProfile.JobTitle
			profile.OfficeLocation = dirProfile.OfficeLocation
			if profile.Name == "" {
				profile.Name = dirProfile.DisplayName
			}
			if profile.Email == "" {
				profile.Email = dirProfile.Mail
			}
		}

		profile.Groups = groups
		profile.Roles = domainauth.UnionRoles(claimRoles, groups)
	}

	profile.Permissions = domainauth.DerivePermissions(profile.Roles)

	if s.metrics != nil {
		s.metrics.Timing("auth.assemble_profile", time.Since(start), nil)
	}
	return profile
}

func (s *AuthService) stateFor(sessionID string) *state.Store {
	if s.states == nil {
		return nil
	}
	return s.states.GetOrCreate(sessionID)
}

func (s *AuthService) sealToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	return s.sealer.Seal([]byte(token))
}

func (s *AuthService) openToken(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	raw, err := s.sealer.Open(sealed)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *AuthService) recordSignIn(ctx context.Context, req model.RecordSignInRequest) {
	if s.audit == nil {
		return
	}
	if req.UserID == "" && req.Email == "" {
		// Failed exchanges may yield no identity at all; the attempt is
		// still worth a row.
		req.UserID = "unknown"
	}
	if _, err := s.audit.Record(ctx, &req); err != nil {
		s.logger.Warn("sign-in audit record failed", "error", err)
	}
}

func (s *AuthService) count(name string, tags map[string]string) {
	if s.metrics != nil {
		s.metrics.Count(name, 1, tags)
	}
}

func roleStrings(roles []domainauth.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	// UUID is URL-safe and has good entropy
	return uuid.New().String()
}
