package checks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lance13c/lpqa/internal/types"
)

// RegistryVersion identifies the catalogue a report was produced with. Bump it
// whenever a check is added, removed or changes its verdict rules.
const RegistryVersion = "2026.10.1"

// Needs is the set of viewport snapshots a check reads
type Needs uint8

const (
	NeedsDesktop Needs = 1 << iota
	NeedsMobile
)

const (
	// NeedsNone marks checks that never read a snapshot
	NeedsNone Needs = 0
	NeedsBoth       = NeedsDesktop | NeedsMobile
)

// Viewports lists the viewports in n in capture order
func (n Needs) Viewports() []types.ViewportName {
	var out []types.ViewportName
	if n&NeedsDesktop != 0 {
		out = append(out, types.Desktop)
	}
	if n&NeedsMobile != 0 {
		out = append(out, types.Mobile)
	}
	return out
}

func (n Needs) String() string {
	switch n {
	case NeedsNone:
		return "none"
	case NeedsDesktop:
		return "desktop"
	case NeedsMobile:
		return "mobile"
	case NeedsBoth:
		return "both"
	}
	return "unknown"
}

// Item is one role's checklist entry satisfied by a check
type Item struct {
	Role types.Role
	Ref  string
	Text string
}

// Ordinal is the numeric part of the ref, used for per-role ordering
func (i Item) Ordinal() int {
	idx := strings.LastIndexByte(i.Ref, '-')
	if idx < 0 {
		return 0
	}
	n, _ := strconv.Atoi(i.Ref[idx+1:])
	return n
}

// Check is one independently evaluable rule. A check may satisfy checklist
// items of several roles; it is still evaluated exactly once.
type Check struct {
	ID    string
	Name  string
	Needs Needs
	Items []Item
	eval  func(in *Input) Verdict

	// primary is the item the id was taken from; it survives Select
	primary Item
}

// ChecklistItem is the wording of the canonical checklist entry
func (c Check) ChecklistItem() string {
	return c.primary.Text
}

// check builds a catalogue entry; the first item's ref becomes the check id
func check(name string, needs Needs, eval func(*Input) Verdict, items ...Item) Check {
	c := Check{Name: name, Needs: needs, Items: items, eval: eval}
	if len(items) > 0 {
		c.ID = items[0].Ref
	}
	return c
}

// unautomatable is the body of checks that only a human can judge
func unautomatable(reason string) func(*Input) Verdict {
	return func(*Input) Verdict {
		return skip(types.SkipUnautomatable, "%s", reason)
	}
}

// Labels returns the role labels the check's result carries
func (c Check) Labels() []types.RoleLabel {
	labels := make([]types.RoleLabel, len(c.Items))
	for i, it := range c.Items {
		labels[i] = types.RoleLabel{
			Role:          it.Role,
			Ref:           it.Ref,
			Ordinal:       it.Ordinal(),
			ChecklistItem: it.Text,
		}
	}
	return labels
}

// Input is everything a check may read
type Input struct {
	Desktop  *types.PageSnapshot
	Mobile   *types.PageSnapshot
	Failures map[types.ViewportName]*types.CaptureFailure
	Context  types.QAContext
}

func (in *Input) snapshot(vp types.ViewportName) *types.PageSnapshot {
	if vp == types.Mobile {
		return in.Mobile
	}
	return in.Desktop
}

// Verdict is what a check body returns; the runner turns it into a CheckResult
type Verdict struct {
	Status     types.Status
	Message    string
	Evidence   string
	SkipReason types.SkipReason
}

func pass(format string, args ...interface{}) Verdict {
	return Verdict{Status: types.StatusPass, Message: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...interface{}) Verdict {
	return Verdict{Status: types.StatusFail, Message: fmt.Sprintf(format, args...)}
}

func warn(format string, args ...interface{}) Verdict {
	return Verdict{Status: types.StatusWarn, Message: fmt.Sprintf(format, args...)}
}

func skip(reason types.SkipReason, format string, args ...interface{}) Verdict {
	return Verdict{Status: types.StatusSkip, Message: fmt.Sprintf(format, args...), SkipReason: reason}
}

// with attaches evidence lines to a verdict
func (v Verdict) with(lines ...string) Verdict {
	v.Evidence = strings.Join(lines, "\n")
	return v
}

// Registry is an immutable, ordered catalogue of checks
type Registry struct {
	version string
	checks  []Check
	index   map[string]int
}

var defaultRegistry = newRegistry(RegistryVersion, catalogue())

// Default returns the built-in catalogue
func Default() *Registry {
	return defaultRegistry
}

func catalogue() []Check {
	var all []Check
	all = append(all, developerChecks()...)
	all = append(all, designerChecks()...)
	all = append(all, copywriterChecks()...)
	return all
}

// newRegistry validates and freezes a check table. A malformed table is a
// programming error, so it panics.
func newRegistry(version string, checks []Check) *Registry {
	r := &Registry{
		version: version,
		checks:  make([]Check, len(checks)),
		index:   make(map[string]int, len(checks)),
	}
	refs := make(map[string]string)
	for i, c := range checks {
		if c.ID == "" || c.eval == nil || len(c.Items) == 0 {
			panic(fmt.Sprintf("checks: incomplete check at position %d (%q)", i, c.ID))
		}
		if _, dup := r.index[c.ID]; dup {
			panic(fmt.Sprintf("checks: duplicate check id %s", c.ID))
		}
		for _, it := range c.Items {
			if owner, dup := refs[it.Ref]; dup {
				panic(fmt.Sprintf("checks: ref %s claimed by %s and %s", it.Ref, owner, c.ID))
			}
			refs[it.Ref] = c.ID
		}
		if c.primary.Ref == "" {
			c.primary = c.Items[0]
		}
		c.Items = append([]Item(nil), c.Items...)
		r.checks[i] = c
		r.index[c.ID] = i
	}
	return r
}

// Version returns the catalogue version
func (r *Registry) Version() string {
	return r.version
}

// Len returns the number of checks
func (r *Registry) Len() int {
	return len(r.checks)
}

// Checks returns the checks in registry order
func (r *Registry) Checks() []Check {
	out := make([]Check, len(r.checks))
	copy(out, r.checks)
	return out
}

// Lookup finds a check by id or by any of its role refs
func (r *Registry) Lookup(id string) (Check, bool) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if i, ok := r.index[id]; ok {
		return r.checks[i], true
	}
	for _, c := range r.checks {
		for _, it := range c.Items {
			if it.Ref == id {
				return c, true
			}
		}
	}
	return Check{}, false
}

// Select returns a registry holding only the checks owned by roles. Shared
// checks keep their canonical id but only the selected roles' labels. With no
// roles the receiver is returned unchanged.
func (r *Registry) Select(roles ...types.Role) *Registry {
	if len(roles) == 0 {
		return r
	}
	want := make(map[types.Role]bool, len(roles))
	for _, role := range roles {
		want[role] = true
	}

	var kept []Check
	for _, c := range r.checks {
		var items []Item
		for _, it := range c.Items {
			if want[it.Role] {
				items = append(items, it)
			}
		}
		if len(items) == 0 {
			continue
		}
		c.Items = items
		kept = append(kept, c)
	}
	return newRegistry(r.version, kept)
}

// Owns reports whether the check carries a label for role
func (c Check) Owns(role types.Role) bool {
	for _, it := range c.Items {
		if it.Role == role {
			return true
		}
	}
	return false
}
