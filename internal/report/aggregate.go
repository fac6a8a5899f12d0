// Package report turns check results into a QAReport and renders it.
package report

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lance13c/lpqa/internal/types"
)

// ErrNoResults is returned when there is nothing to aggregate. An empty
// report cannot be told apart from a run that silently did nothing.
var ErrNoResults = errors.New("no check results to aggregate")

// Meta describes the run a report belongs to
type Meta struct {
	RunID           string
	TargetURL       string
	Timestamp       time.Time
	Client          string
	Campaign        string
	TaskID          string
	RegistryVersion string
	Captures        []types.CaptureInfo
}

// Aggregate builds the report for one run. Results keep the order they were
// given in, which is registry order when they come from checks.Run.
func Aggregate(meta Meta, results []types.CheckResult) (*types.QAReport, error) {
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	r := &types.QAReport{
		RunID:           meta.RunID,
		TargetURL:       meta.TargetURL,
		Timestamp:       meta.Timestamp,
		Client:          meta.Client,
		Campaign:        meta.Campaign,
		TaskID:          meta.TaskID,
		RegistryVersion: meta.RegistryVersion,
		Results:         append([]types.CheckResult(nil), results...),
		Captures:        append([]types.CaptureInfo(nil), meta.Captures...),
	}
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	for _, c := range r.Captures {
		if !c.OK {
			r.Degraded = true
		}
	}

	summary, err := tally(r.Results)
	if err != nil {
		return nil, err
	}
	r.Summary = summary
	r.Roles = group(r.Results)
	return r, nil
}

func tally(results []types.CheckResult) (types.Summary, error) {
	s := types.Summary{
		Total:  len(results),
		ByRole: make(map[types.Role]types.StatusCount),
	}
	seen := make(map[string]bool, len(results))
	for _, res := range results {
		if seen[res.CheckID] {
			return types.Summary{}, fmt.Errorf("duplicate result for check %s", res.CheckID)
		}
		seen[res.CheckID] = true

		switch res.Status {
		case types.StatusPass:
			s.Pass++
		case types.StatusFail:
			s.Fail++
		case types.StatusWarn:
			s.Warn++
		case types.StatusSkip:
			s.Skip++
		default:
			return types.Summary{}, fmt.Errorf("check %s has unknown status %q", res.CheckID, res.Status)
		}

		counted := make(map[types.Role]bool, len(res.Labels))
		for _, l := range res.Labels {
			if counted[l.Role] {
				continue
			}
			counted[l.Role] = true
			c := s.ByRole[l.Role]
			c.Add(res.Status)
			s.ByRole[l.Role] = c
		}
	}
	s.PassRate = float64(s.Pass) / float64(s.Total) * 100
	return s, nil
}

// group fans every result out to the roles its labels name. Each role lists
// its checklist items in ordinal order.
func group(results []types.CheckResult) []types.RoleGroup {
	byRole := make(map[types.Role][]types.RoleEntry)
	for _, res := range results {
		for _, l := range res.Labels {
			byRole[l.Role] = append(byRole[l.Role], types.RoleEntry{
				Ref:           l.Ref,
				Ordinal:       l.Ordinal,
				ChecklistItem: l.ChecklistItem,
				CheckID:       res.CheckID,
			})
		}
	}

	var groups []types.RoleGroup
	for _, role := range types.Roles {
		entries := byRole[role]
		if len(entries) == 0 {
			continue
		}
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Ordinal != entries[j].Ordinal {
				return entries[i].Ordinal < entries[j].Ordinal
			}
			return entries[i].Ref < entries[j].Ref
		})
		groups = append(groups, types.RoleGroup{Role: role, Entries: entries})
	}
	return groups
}

// index maps check ids to their results for renderers
func index(r *types.QAReport) map[string]types.CheckResult {
	m := make(map[string]types.CheckResult, len(r.Results))
	for _, res := range r.Results {
		m[res.CheckID] = res
	}
	return m
}

// filter returns the results with status s, in report order
func filter(r *types.QAReport, s types.Status) []types.CheckResult {
	var out []types.CheckResult
	for _, res := range r.Results {
		if res.Status == s {
			out = append(out, res)
		}
	}
	return out
}

// splitSkips separates skips caused by a failed capture from every other skip
func splitSkips(r *types.QAReport) (capture, other []types.CheckResult) {
	for _, res := range filter(r, types.StatusSkip) {
		if res.SkipReason.CaptureRelated() {
			capture = append(capture, res)
		} else {
			other = append(other, res)
		}
	}
	return capture, other
}

// refs lists the checklist refs a result carries, e.g. "DEV-031/DES-012"
func refs(res types.CheckResult) string {
	out := ""
	for i, l := range res.Labels {
		if i > 0 {
			out += "/"
		}
		out += l.Ref
	}
	if out == "" {
		return res.CheckID
	}
	return out
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
