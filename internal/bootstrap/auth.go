package bootstrap

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/oakmont/portal-api/config"
	"github.com/oakmont/portal-api/internal/adapters/authroles"
	"github.com/oakmont/portal-api/internal/adapters/devauth"
	"github.com/oakmont/portal-api/internal/adapters/graph"
	"github.com/oakmont/portal-api/internal/adapters/oidc"
	redisadapter "github.com/oakmont/portal-api/internal/adapters/redis"
	"github.com/oakmont/portal-api/internal/data"
	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
	"github.com/oakmont/portal-api/internal/observability/statsd"
	"github.com/oakmont/portal-api/internal/service"
	"github.com/oakmont/portal-api/internal/state"
)

// AuthConfig contains dependencies for the auth service.
type AuthConfig struct {
	Config      *config.AppConfig
	DB          *sql.DB // optional; nil disables the sign-in audit trail
	RedisClient redis.UniversalClient
	States      *state.Registry
	Metrics     statsd.Sink
	Logger      *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns nil if auth is not configured or configuration is invalid.
func BuildAuthService(cfg AuthConfig) *service.AuthService {
	if cfg.Config == nil {
		return nil
	}
	if cfg.RedisClient == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: redis client not configured", "mode", cfg.Config.Auth.Mode)
		}
		return nil
	}

	base := service.AuthServiceOptions{
		Sessions:   redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:"),
		States:     cfg.States,
		Sealer:     CreateSealer(cfg.Config.SessionSealKey, cfg.Logger),
		Metrics:    cfg.Metrics,
		Logger:     cfg.Logger,
		SessionTTL: cfg.Config.Auth.SessionTTL,
	}
	if cfg.DB != nil {
		base.Audit = data.NewSignInRepo(cfg.DB)
	}

	switch cfg.Config.Auth.Mode {
	case config.AuthModeMock:
		return buildDevAuthService(cfg, base)

	case config.AuthModeOAuth:
		return buildOAuthService(cfg, base)

	default:
		return nil
	}
}

func buildDevAuthService(cfg AuthConfig, base service.AuthServiceOptions) *service.AuthService {
	dev := cfg.Config.Auth.DevAuth

	// Configured group names feed the same role mapper the directory client
	// uses, so a dev identity in "portal-admins" lands in the same roles a
	// real directory membership would.
	mapper := authroles.HeuristicMapper{}
	roles := make([]domainauth.Role, 0, len(dev.Roles))
	for _, r := range dev.Roles {
		roles = append(roles, domainauth.Role(r))
	}
	for _, group := range dev.Groups {
		roles = domainauth.UnionRoles(roles, []domainauth.Group{{DisplayName: group, Roles: mapper.Roles(group)}})
	}

	prov, err := devauth.NewProvider(devauth.Config{
		UserID:          dev.UserID,
		Name:            dev.Name,
		Email:           dev.Email,
		Roles:           roleStrings(roles),
		SessionDuration: cfg.Config.Auth.SessionTTL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
		}
		return nil
	}

	base.Provider = prov
	base.Refresher = prov
	return service.NewAuthService(base)
}

func buildOAuthService(cfg AuthConfig, base service.AuthServiceOptions) *service.AuthService {
	// Only enable when fully configured
	oauth := cfg.Config.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeOAuth selected but required config missing; auth disabled",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
		LogoutURL:    oauth.LogoutURL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
		}
		return nil
	}

	base.Provider = prov
	base.Refresher = prov
	if dir := buildDirectoryClient(cfg); dir != nil {
		base.Directory = dir
	}
	return service.NewAuthService(base)
}

// buildDirectoryClient wires the directory enrichment client. A build failure
// degrades enrichment rather than disabling auth; the service assembles
// claim-only profiles when the client is nil.
func buildDirectoryClient(cfg AuthConfig) *graph.Client {
	dir := cfg.Config.Directory
	opts := graph.ClientOptions{
		BaseURL:    dir.BaseURL,
		GroupsExpr: dir.GroupsExpr,
		HTTPClient: &http.Client{Timeout: dir.Timeout},
		RoleMapper: authroles.HeuristicMapper{},
		Logger:     cfg.Logger,
	}
	if dir.GroupCacheTTL > 0 {
		opts.Cache = data.NewRedisCacheRepo(cfg.RedisClient)
		opts.CacheTTL = dir.GroupCacheTTL
	}

	client, err := graph.NewClient(opts)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create directory client, profile enrichment disabled", "error", err)
		}
		return nil
	}
	return client
}

func roleStrings(roles []domainauth.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
