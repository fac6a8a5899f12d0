package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/lance13c/lpqa/internal/config"
	"github.com/lance13c/lpqa/internal/types"
)

func TestParseRoles(t *testing.T) {
	tests := []struct {
		in      []string
		want    []types.Role
		wantErr bool
	}{
		{in: nil, want: nil},
		{in: []string{"developer", "copywriter"}, want: []types.Role{types.RoleDeveloper, types.RoleCopywriter}},
		{in: []string{"designer", "seo"}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseRoles(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRoles(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseRoles(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFileTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.txt")
	content := "# spring campaign\nhttps://go.acme.com/a\n\n  https://go.acme.com/b  \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	targets, err := fileTargets(path, types.QAContext{ClientName: "Acme"})
	if err != nil {
		t.Fatalf("fileTargets() error = %v", err)
	}
	if len(targets) != 2 || targets[1].URL != "https://go.acme.com/b" || targets[0].Context.ClientName != "Acme" {
		t.Errorf("fileTargets() = %+v", targets)
	}

	if _, err := fileTargets(filepath.Join(t.TempDir(), "missing.txt"), types.QAContext{}); err == nil {
		t.Error("missing file should fail")
	}
}

func TestOutputOptionsApply(t *testing.T) {
	cfg := config.DefaultConfig()
	o := outputOptions{formats: []string{"json"}, noScreenshots: true, checks: []string{"designer"}}
	roles, err := o.apply(cfg)
	if err != nil {
		t.Fatalf("apply() error = %v", err)
	}
	if cfg.Output.Screenshots || !hasFormat(cfg.Output.Formats, "JSON") || hasFormat(cfg.Output.Formats, "terminal") {
		t.Errorf("output config = %+v", cfg.Output)
	}
	if len(roles) != 1 || roles[0] != types.RoleDesigner {
		t.Errorf("roles = %v", roles)
	}

	bad := outputOptions{formats: []string{"pdf"}}
	if _, err := bad.apply(config.DefaultConfig()); err == nil {
		t.Error("unknown format should be rejected")
	}
}

func TestRunContextOverlaysFlags(t *testing.T) {
	defer func() { runClient, runFormID, runRedirect = "", "", nil }()
	runClient = "Acme Solar"
	runFormID = "lp-pom-form-7"
	runRedirect = []string{"/thank-you"}

	qctx := runContext(config.DefaultConfig())
	if qctx.ClientName != "Acme Solar" || qctx.ExpectedFormID != "lp-pom-form-7" || qctx.ExpectedRedirect[0] != "/thank-you" {
		t.Errorf("runContext() = %+v", qctx)
	}
	if qctx.Thresholds.MaxFcpMs != 4000 {
		t.Errorf("thresholds should come from config, got %+v", qctx.Thresholds)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		printed string
	}{
		{name: "success", err: nil, want: 0},
		{name: "failed checks", err: errChecksFailed, want: 1},
		{name: "wrapped failed checks", err: fmt.Errorf("batch: %w", errChecksFailed), want: 1},
		{name: "other error", err: errors.New("config: bad yaml"), want: 1, printed: "Error: config: bad yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := exitCode(&buf, tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
			if got := strings.TrimSpace(buf.String()); got != tt.printed {
				t.Errorf("printed %q, want %q", got, tt.printed)
			}
		})
	}
}
