package auth

import (
	"sort"
	"strings"
)

// groupNameRules is the fixed ordered rule set mapping group display-name
// substrings to roles. All matching rules apply, so a group named
// "AdminEditor" yields both Admin and Editor.
var groupNameRules = []struct {
	substr string
	role   Role
}{
	{"admin", RoleAdmin},
	{"editor", RoleEditor},
	{"viewer", RoleViewer},
}

// RolesForGroupName derives application roles from a directory group display
// name by case-insensitive substring matching. A name matching no rule
// yields the default User role.
func RolesForGroupName(name string) []Role {
	lower := strings.ToLower(name)
	var roles []Role
	for _, rule := range groupNameRules {
		if strings.Contains(lower, rule.substr) {
			roles = append(roles, rule.role)
		}
	}
	if len(roles) == 0 {
		roles = []Role{RoleUser}
	}
	return roles
}

// DerivePermissions computes the permission record for a role set. The
// reduction is a monotonic OR over booleans: flags only turn on as roles are
// folded in, so processing order is irrelevant. Unknown role strings fall
// through to substring heuristics. After folding, any set flag forces
// CanViewDashboard on since the dashboard is the baseline landing surface
// for any authorized user.
func DerivePermissions(roles []Role) PermissionSet {
	var set PermissionSet
	for _, role := range roles {
		foldRole(&set, strings.ToLower(string(role)))
	}
	if set.Any() {
		set.CanViewDashboard = true
	}
	return set
}

func foldRole(set *PermissionSet, role string) {
	switch role {
	case "admin", "administrator":
		set.CanViewDashboard = true
		set.CanManageUsers = true
		set.CanSendEmails = true
		set.CanViewReports = true
		set.CanManageSettings = true
	case "editor":
		set.CanViewDashboard = true
		set.CanSendEmails = true
		set.CanViewReports = true
	case "viewer":
		set.CanViewDashboard = true
		set.CanViewReports = true
	case "user":
		set.CanViewDashboard = true
	default:
		if strings.Contains(role, "admin") {
			set.CanManageUsers = true
			set.CanManageSettings = true
		}
		if strings.Contains(role, "editor") || strings.Contains(role, "write") {
			set.CanSendEmails = true
		}
		if strings.Contains(role, "view") || strings.Contains(role, "read") {
			set.CanViewReports = true
		}
	}
}

// rolePriority is the fixed display priority for HighestRole.
var rolePriority = []Role{RoleAdmin, RoleEditor, RoleViewer, RoleUser}

// HighestRole selects the display role for a role set: first present from
// the priority list wins; a set containing none of the well-known roles
// reports its lexically first element; an empty set reports User.
func HighestRole(roles []Role) Role {
	if len(roles) == 0 {
		return RoleUser
	}
	for _, candidate := range rolePriority {
		for _, r := range roles {
			if r.Equal(candidate) {
				return candidate
			}
		}
	}
	sorted := append([]Role(nil), roles...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[0]
}

// UnionRoles returns the deduplicated (case-insensitive) union of the claim
// roles and every role attached to every group, preserving first-seen order
// and casing.
func UnionRoles(claimRoles []Role, groups []Group) []Role {
	seen := make(map[string]struct{})
	var union []Role
	add := func(r Role) {
		key := strings.ToLower(string(r))
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		union = append(union, r)
	}
	for _, r := range claimRoles {
		add(r)
	}
	for _, g := range groups {
		for _, r := range g.Roles {
			add(r)
		}
	}
	return union
}
