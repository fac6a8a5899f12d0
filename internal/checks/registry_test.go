package checks

import (
	"fmt"
	"testing"

	"github.com/lance13c/lpqa/internal/types"
)

func TestDefaultRegistryCoversEveryChecklistItem(t *testing.T) {
	want := map[types.Role]struct {
		prefix string
		count  int
	}{
		types.RoleDeveloper:  {"DEV", 41},
		types.RoleDesigner:   {"DES", 12},
		types.RoleCopywriter: {"CPY", 11},
	}

	reg := Default()
	for role, w := range want {
		for n := 1; n <= w.count; n++ {
			ref := fmt.Sprintf("%s-%03d", w.prefix, n)
			c, ok := reg.Lookup(ref)
			if !ok {
				t.Errorf("%s: no check carries ref %s", role, ref)
				continue
			}
			if !c.Owns(role) {
				t.Errorf("%s resolved to %s which has no %s label", ref, c.ID, role)
			}
		}
	}
}

func TestSharedChecksFanOutToEveryRole(t *testing.T) {
	tests := []struct {
		id   string
		refs []string
	}{
		{"DEV-003", []string{"DEV-003", "DES-002"}},
		{"DEV-006", []string{"DEV-006", "DES-005"}},
		{"DEV-031", []string{"DEV-031", "DES-012", "CPY-010"}},
		{"DES-009", []string{"DES-009", "CPY-004"}},
		{"DES-011", []string{"DES-011", "CPY-006"}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			c, ok := Default().Lookup(tt.id)
			if !ok {
				t.Fatalf("Lookup(%s) failed", tt.id)
			}
			labels := c.Labels()
			if len(labels) != len(tt.refs) {
				t.Fatalf("labels = %+v, want refs %v", labels, tt.refs)
			}
			for i, ref := range tt.refs {
				if labels[i].Ref != ref {
					t.Errorf("label %d = %s, want %s", i, labels[i].Ref, ref)
				}
			}
		})
	}
}

func TestSelectKeepsCanonicalIDAndOrder(t *testing.T) {
	reg := Default().Select(types.RoleDesigner)

	var prev = -1
	for _, c := range reg.Checks() {
		if !c.Owns(types.RoleDesigner) {
			t.Errorf("%s selected without a designer label", c.ID)
		}
		if c.Owns(types.RoleDeveloper) {
			t.Errorf("%s kept its developer label after Select(designer)", c.ID)
		}
		idx := Default().index[c.ID]
		if idx <= prev {
			t.Errorf("%s out of registry order", c.ID)
		}
		prev = idx
	}

	fonts, ok := reg.Lookup("DES-002")
	if !ok || fonts.ID != "DEV-003" {
		t.Fatalf("Lookup(DES-002) = %q, %v; want canonical DEV-003", fonts.ID, ok)
	}
	if fonts.ChecklistItem() != "Font family, colour, alignment and size match the design." {
		t.Errorf("ChecklistItem changed under Select: %q", fonts.ChecklistItem())
	}
	if reg.Version() != RegistryVersion {
		t.Errorf("Version = %q", reg.Version())
	}
}

func TestSelectWithoutRolesReturnsReceiver(t *testing.T) {
	if Default().Select() != Default() {
		t.Error("Select() should return the same registry")
	}
}

func TestNewRegistryRejectsMalformedTables(t *testing.T) {
	ok := func(*Input) Verdict { return pass("ok") }
	tests := []struct {
		name   string
		checks []Check
	}{
		{"duplicate id", []Check{
			check("a", NeedsNone, ok, dev("DEV-900", "a")),
			{ID: "DEV-900", Name: "b", eval: ok, Items: []Item{dev("DEV-901", "b")}},
		}},
		{"ref claimed twice", []Check{
			check("a", NeedsNone, ok, dev("DEV-900", "a")),
			check("b", NeedsNone, ok, dev("DEV-901", "b"), des("DEV-900", "b")),
		}},
		{"missing eval", []Check{check("a", NeedsNone, nil, dev("DEV-900", "a"))}},
		{"no items", []Check{check("a", NeedsNone, ok)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			newRegistry("test", tt.checks)
		})
	}
}

func TestItemOrdinal(t *testing.T) {
	tests := map[string]int{"DEV-031": 31, "CPY-004": 4, "DES-012": 12, "odd": 0}
	for ref, want := range tests {
		if got := (Item{Ref: ref}).Ordinal(); got != want {
			t.Errorf("Ordinal(%s) = %d, want %d", ref, got, want)
		}
	}
}

func TestNeedsViewports(t *testing.T) {
	if got := NeedsBoth.Viewports(); len(got) != 2 || got[0] != types.Desktop || got[1] != types.Mobile {
		t.Errorf("NeedsBoth.Viewports() = %v", got)
	}
	if got := NeedsNone.Viewports(); len(got) != 0 {
		t.Errorf("NeedsNone.Viewports() = %v", got)
	}
	if NeedsMobile.String() != "mobile" {
		t.Errorf("String() = %q", NeedsMobile.String())
	}
}
