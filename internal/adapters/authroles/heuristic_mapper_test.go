package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
)

func TestHeuristicMapper_Roles(t *testing.T) {
	m := HeuristicMapper{}

	assert.Equal(t, []domainauth.Role{domainauth.RoleAdmin}, m.Roles("Portal Admins"))
	assert.Equal(t, []domainauth.Role{domainauth.RoleViewer}, m.Roles("report-viewers"))
	assert.Equal(t, []domainauth.Role{domainauth.RoleUser}, m.Roles("Engineering"))
}

func TestHeuristicMapper_Overrides(t *testing.T) {
	m := HeuristicMapper{Overrides: map[string][]domainauth.Role{
		"Engineering": {domainauth.RoleEditor},
	}}

	assert.Equal(t, []domainauth.Role{domainauth.RoleEditor}, m.Roles("Engineering"))
	// Overrides are exact; unrelated names still go through the heuristics.
	assert.Equal(t, []domainauth.Role{domainauth.RoleAdmin}, m.Roles("site admins"))
}
