package auth

// Permission enumerates the application's permission flags. Using a closed
// tag type instead of string keys means a guard declaring a permission that
// does not exist fails to compile rather than silently denying.
type Permission uint8

const (
	PermViewDashboard Permission = iota
	PermManageUsers
	PermSendEmails
	PermViewReports
	PermManageSettings
)

// String returns the wire name of the permission, matching the JSON field
// names on PermissionSet.
func (p Permission) String() string {
	switch p {
	case PermViewDashboard:
		return "can_view_dashboard"
	case PermManageUsers:
		return "can_manage_users"
	case PermSendEmails:
		return "can_send_emails"
	case PermViewReports:
		return "can_view_reports"
	case PermManageSettings:
		return "can_manage_settings"
	default:
		return "unknown"
	}
}

// PermissionSet is the fixed five-flag capability record derived from a role
// set. It is never set directly by callers; DerivePermissions is the only
// producer. Invariant: if any flag is true, CanViewDashboard is true.
type PermissionSet struct {
	CanViewDashboard  bool `json:"can_view_dashboard"`
	CanManageUsers    bool `json:"can_manage_users"`
	CanSendEmails     bool `json:"can_send_emails"`
	CanViewReports    bool `json:"can_view_reports"`
	CanManageSettings bool `json:"can_manage_settings"`
}

// Has reports whether the set grants the given permission.
func (s PermissionSet) Has(p Permission) bool {
	switch p {
	case PermViewDashboard:
		return s.CanViewDashboard
	case PermManageUsers:
		return s.CanManageUsers
	case PermSendEmails:
		return s.CanSendEmails
	case PermViewReports:
		return s.CanViewReports
	case PermManageSettings:
		return s.CanManageSettings
	default:
		return false
	}
}

// Any reports whether at least one flag is set.
func (s PermissionSet) Any() bool {
	return s.CanViewDashboard || s.CanManageUsers || s.CanSendEmails ||
		s.CanViewReports || s.CanManageSettings
}

// Subsumes reports whether every flag set in other is also set in s.
func (s PermissionSet) Subsumes(other PermissionSet) bool {
	return (s.CanViewDashboard || !other.CanViewDashboard) &&
		(s.CanManageUsers || !other.CanManageUsers) &&
		(s.CanSendEmails || !other.CanSendEmails) &&
		(s.CanViewReports || !other.CanViewReports) &&
		(s.CanManageSettings || !other.CanManageSettings)
}
