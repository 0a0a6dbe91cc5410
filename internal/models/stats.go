package models

type ModerationDecisions struct {
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Archived int `json:"archived"`
	Pending  int `json:"pending"`
	Total    int `json:"total"`
}

// AdminActions counts privileged mutations only: submission reviews and
// permission grant changes keyed by audit action.
type AdminActions struct {
	Reviews           int            `json:"reviews"`
	PermissionChanges map[string]int `json:"permission_changes"`
	Total             int            `json:"total"`
}

type Statistics struct {
	WindowDays          int                 `json:"window_days"`
	ModerationDecisions ModerationDecisions `json:"moderation_decisions"`
	AdminActions        AdminActions        `json:"admin_actions"`
	RecentActivity      []AuditLog          `json:"recent_activity"`
}
