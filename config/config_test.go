package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMode_UnmarshalText(t *testing.T) {
	var m AuthMode
	require.NoError(t, m.UnmarshalText([]byte("OAuth")))
	assert.Equal(t, AuthModeOAuth, m)

	require.NoError(t, m.UnmarshalText([]byte("mock")))
	assert.Equal(t, AuthModeMock, m)

	assert.Error(t, m.UnmarshalText([]byte("saml")))
}

func TestAuthConfig_Sanitize(t *testing.T) {
	a := AuthConfig{SessionTTL: -time.Minute}
	a.Sanitize()
	assert.Equal(t, 8*time.Hour, a.SessionTTL)
}

func TestDirectoryConfig_Sanitize(t *testing.T) {
	d := DirectoryConfig{BaseURL: " https://graph.example.com/v1.0/ ", Timeout: 0, GroupCacheTTL: -time.Second}
	d.Sanitize()
	assert.Equal(t, "https://graph.example.com/v1.0", d.BaseURL)
	assert.Equal(t, 10*time.Second, d.Timeout)
	assert.Equal(t, time.Duration(0), d.GroupCacheTTL)
	assert.NotEmpty(t, d.GroupsExpr)
}

func TestHTTPConfig_Sanitize_CookieDomain(t *testing.T) {
	cases := []struct {
		name   string
		domain string
		want   string
	}{
		{"empty stays empty", "", ""},
		{"normal domain kept", "portal.example.com", "portal.example.com"},
		{"leading dot stripped", ".example.com", "example.com"},
		{"bare public suffix cleared", "com", ""},
		{"multi-label public suffix cleared", "co.uk", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := HTTPConfig{CookieDomain: tc.domain}
			h.Sanitize()
			assert.Equal(t, tc.want, h.CookieDomain)
		})
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	c := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "   "}
	c.Sanitize()
	assert.False(t, c.IsEnabled())

	c = ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "127.0.0.1:8125"}
	c.Sanitize()
	assert.True(t, c.IsEnabled())
}
