package types

// Status is the verdict of a single check
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusWarn Status = "WARN"
	StatusSkip Status = "SKIP"
)

// Statuses lists every status in display order
var Statuses = []Status{StatusPass, StatusFail, StatusWarn, StatusSkip}

// Glyph returns the status marker used in human-readable output
func (s Status) Glyph() string {
	switch s {
	case StatusPass:
		return "✅"
	case StatusFail:
		return "❌"
	case StatusWarn:
		return "⚠️"
	case StatusSkip:
		return "⏭️"
	default:
		return "?"
	}
}

// SkipReason distinguishes why a check produced no verdict
type SkipReason string

const (
	SkipUnautomatable       SkipReason = "unautomatable"
	SkipSnapshotUnavailable SkipReason = "snapshot_unavailable"
	SkipCaptureTimeout      SkipReason = "capture_timeout"
	SkipMissingSignal       SkipReason = "missing_signal"
	SkipNotApplicable       SkipReason = "not_applicable"
)

// CaptureRelated reports whether the skip was caused by a failed capture
func (r SkipReason) CaptureRelated() bool {
	return r == SkipSnapshotUnavailable || r == SkipCaptureTimeout
}

// Role is a reviewing discipline that owns a checklist
type Role string

const (
	RoleDeveloper  Role = "developer"
	RoleDesigner   Role = "designer"
	RoleCopywriter Role = "copywriter"
)

// Roles lists every role in report order
var Roles = []Role{RoleDeveloper, RoleDesigner, RoleCopywriter}

// Title returns the display name of the role
func (r Role) Title() string {
	switch r {
	case RoleDeveloper:
		return "Developer"
	case RoleDesigner:
		return "Designer"
	case RoleCopywriter:
		return "Copywriter"
	default:
		return string(r)
	}
}

// ParseRole maps a CLI value to a Role
func ParseRole(s string) (Role, bool) {
	switch s {
	case "developer", "dev":
		return RoleDeveloper, true
	case "designer", "design", "des":
		return RoleDesigner, true
	case "copywriter", "copy", "cpy":
		return RoleCopywriter, true
	}
	return "", false
}

// RoleLabel is one checklist item a check satisfies
type RoleLabel struct {
	Role          Role   `json:"role"`
	Ref           string `json:"ref"`
	Ordinal       int    `json:"ordinal"`
	ChecklistItem string `json:"checklist_item"`
}

// CheckResult is the immutable verdict of one check
type CheckResult struct {
	CheckID       string      `json:"check_id"`
	Name          string      `json:"name"`
	Status        Status      `json:"status"`
	Message       string      `json:"message"`
	Evidence      string      `json:"evidence,omitempty"`
	ChecklistItem string      `json:"checklist_item"`
	SkipReason    SkipReason  `json:"skip_reason,omitempty"`
	Labels        []RoleLabel `json:"labels"`
}
