package authroles

import (
	domainauth "github.com/oakmont/portal-api/internal/domain/auth"
	"github.com/oakmont/portal-api/internal/ports"
)

// HeuristicMapper derives roles from directory group display names using the
// domain's substring rules. Overrides take precedence: an exact display-name
// match (case-sensitive) short-circuits the heuristics, which lets operators
// pin specific groups to specific roles without renaming them.
type HeuristicMapper struct {
	Overrides map[string][]domainauth.Role
}

var _ ports.RoleMapper = HeuristicMapper{}

// Roles maps one group display name to the roles it grants.
func (m HeuristicMapper) Roles(groupDisplayName string) []domainauth.Role {
	if roles, ok := m.Overrides[groupDisplayName]; ok {
		return append([]domainauth.Role(nil), roles...)
	}
	return domainauth.RolesForGroupName(groupDisplayName)
}
