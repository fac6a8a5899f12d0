package types

import (
	"time"
)

// QAReport is the terminal artifact of one run
type QAReport struct {
	RunID           string        `json:"run_id"`
	TargetURL       string        `json:"target_url"`
	Timestamp       time.Time     `json:"timestamp"`
	Client          string        `json:"client,omitempty"`
	Campaign        string        `json:"campaign,omitempty"`
	TaskID          string        `json:"task_id,omitempty"`
	RegistryVersion string        `json:"registry_version"`
	Results         []CheckResult `json:"results"`
	Roles           []RoleGroup   `json:"roles"`
	Summary         Summary       `json:"summary"`
	Captures        []CaptureInfo `json:"captures"`
	Degraded        bool          `json:"degraded"`
}

// RoleGroup is one role's ordered view of the shared results
type RoleGroup struct {
	Role    Role        `json:"role"`
	Entries []RoleEntry `json:"entries"`
}

// RoleEntry points a role's checklist item at a result by check id
type RoleEntry struct {
	Ref           string `json:"ref"`
	Ordinal       int    `json:"ordinal"`
	ChecklistItem string `json:"checklist_item"`
	CheckID       string `json:"check_id"`
}

// Summary holds the status tally
type Summary struct {
	Total    int                  `json:"total"`
	Pass     int                  `json:"pass"`
	Fail     int                  `json:"fail"`
	Warn     int                  `json:"warn"`
	Skip     int                  `json:"skip"`
	PassRate float64              `json:"pass_rate"`
	ByRole   map[Role]StatusCount `json:"by_role"`
}

// StatusCount is a per-status tally for one role
type StatusCount struct {
	Pass int `json:"pass"`
	Fail int `json:"fail"`
	Warn int `json:"warn"`
	Skip int `json:"skip"`
}

// Add increments the counter for status
func (c *StatusCount) Add(s Status) {
	switch s {
	case StatusPass:
		c.Pass++
	case StatusFail:
		c.Fail++
	case StatusWarn:
		c.Warn++
	case StatusSkip:
		c.Skip++
	}
}

// Count returns the tally for status
func (s Summary) Count(status Status) int {
	switch status {
	case StatusPass:
		return s.Pass
	case StatusFail:
		return s.Fail
	case StatusWarn:
		return s.Warn
	case StatusSkip:
		return s.Skip
	}
	return 0
}

// CaptureInfo records the outcome of one viewport capture
type CaptureInfo struct {
	Viewport   ViewportName `json:"viewport"`
	OK         bool         `json:"ok"`
	Failure    string       `json:"failure,omitempty"`
	Screenshot string       `json:"screenshot,omitempty"`
}

// Result looks up a result by check id
func (r *QAReport) Result(checkID string) (CheckResult, bool) {
	for _, res := range r.Results {
		if res.CheckID == checkID {
			return res, true
		}
	}
	return CheckResult{}, false
}

// HasFailures reports whether any check failed
func (r *QAReport) HasFailures() bool {
	return r.Summary.Fail > 0
}
