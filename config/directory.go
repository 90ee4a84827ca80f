package config

import (
	"strings"
	"time"
)

// DirectoryConfig contains configuration for the remote directory/graph API
// used to enrich profiles with group memberships and extended attributes.
type DirectoryConfig struct {
	// BaseURL is the directory API root, without trailing slash.
	BaseURL string `env:"BASE_URL" envDefault:"https://graph.microsoft.com/v1.0"`

	// Timeout bounds every directory HTTP call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	// GroupCacheTTL controls how long per-user group lookups are cached.
	// Zero disables caching.
	GroupCacheTTL time.Duration `env:"GROUP_CACHE_TTL" envDefault:"5m"`

	// GroupsExpr is a JMESPath expression extracting the group objects from
	// the memberOf response. Overridable because non-Graph directories shape
	// the payload differently.
	GroupsExpr string `env:"GROUPS_EXPR" envDefault:"value[?contains(not_null(\"@odata.type\",''),'group')]"`
}

// Sanitize applies guardrails to directory configuration values.
func (d *DirectoryConfig) Sanitize() {
	d.BaseURL = strings.TrimSuffix(strings.TrimSpace(d.BaseURL), "/")
	if d.Timeout <= 0 {
		d.Timeout = 10 * time.Second
	}
	if d.GroupCacheTTL < 0 {
		d.GroupCacheTTL = 0
	}
	if strings.TrimSpace(d.GroupsExpr) == "" {
		d.GroupsExpr = `value[?contains(not_null("@odata.type",''),'group')]`
	}
}
