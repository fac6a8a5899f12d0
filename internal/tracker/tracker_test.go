package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lance13c/lpqa/internal/types"
)

func TestResolvePrecedence(t *testing.T) {
	notes := "Brief: https://www.figma.com/file/abc/Quote\nCopy: https://docs.google.com/document/d/xyz\nLive at https://go.acme.com/quote."
	tests := []struct {
		name       string
		task       Task
		override   string
		wantURL    string
		wantSource Source
	}{
		{
			name:       "override wins",
			task:       Task{Notes: notes},
			override:   " https://staging.acme.com/quote ",
			wantURL:    "https://staging.acme.com/quote",
			wantSource: SourceOverride,
		},
		{
			name: "custom field beats notes",
			task: Task{Notes: notes, CustomFields: []CustomField{
				{Name: "Landing Page URL", TextValue: "https://go.acme.com/quote-b"},
			}},
			wantURL:    "https://go.acme.com/quote-b",
			wantSource: SourceField,
		},
		{
			name:       "first page link in notes skips internal tools",
			task:       Task{Notes: notes},
			wantURL:    "https://go.acme.com/quote",
			wantSource: SourceNotes,
		},
		{
			name:       "builder host beats earlier links",
			task:       Task{Notes: "Old: https://acme.com/promo\nNew: https://unbouncepages.com/acme-quote/"},
			wantURL:    "https://unbouncepages.com/acme-quote/",
			wantSource: SourceNotes,
		},
		{
			name:       "falls back to parent notes",
			task:       Task{Notes: "See parent", Parent: &TaskRef{Name: "Acme Q4", Notes: "Page: https://go.acme.com/q4"}},
			wantURL:    "https://go.acme.com/q4",
			wantSource: SourceParent,
		},
		{
			name: "non-url custom field is ignored",
			task: Task{Notes: notes, CustomFields: []CustomField{
				{Name: "URL status", DisplayValue: "pending"},
			}},
			wantURL:    "https://go.acme.com/quote",
			wantSource: SourceNotes,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(&tt.task, tt.override)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if res.URL != tt.wantURL || res.Source != tt.wantSource {
				t.Errorf("Resolve() = %s (%s), want %s (%s)", res.URL, res.Source, tt.wantURL, tt.wantSource)
			}
		})
	}
}

func TestResolveWithoutURL(t *testing.T) {
	task := &Task{GID: "42", Name: "QA", Notes: "Design https://figma.com/file/x only"}
	if _, err := Resolve(task, ""); !errors.Is(err, ErrNoURL) {
		t.Errorf("Resolve() error = %v, want ErrNoURL", err)
	}
}

func TestResolveContextHints(t *testing.T) {
	task := &Task{
		GID:   "1201",
		Name:  "Solar quote LP",
		Notes: "https://www.figma.com/file/abc\nhttps://docs.google.com/document/d/xyz\nhttps://go.acme.com/quote",
		CustomFields: []CustomField{
			{Name: "Client", DisplayValue: "Acme"},
		},
		Parent: &TaskRef{Name: "Acme Q4 campaign"},
	}
	res, err := Resolve(task, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.FigmaURL != "https://www.figma.com/file/abc" || res.CopyDocURL != "https://docs.google.com/document/d/xyz" {
		t.Errorf("design links = %q, %q", res.FigmaURL, res.CopyDocURL)
	}
	if res.Client != "Acme" || res.Campaign != "Acme Q4 campaign" {
		t.Errorf("client/campaign = %q, %q", res.Client, res.Campaign)
	}

	ctx := res.Apply(types.QAContext{ClientName: "Acme Pty Ltd"})
	if ctx.ClientName != "Acme Pty Ltd" {
		t.Error("Apply must not overwrite caller-supplied hints")
	}
	if ctx.TaskID != "1201" || ctx.CampaignName != "Acme Q4 campaign" || ctx.FigmaURL == "" {
		t.Errorf("Apply() = %+v", ctx)
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(context.Background(), "test-token", srv.URL+"/")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClientTask(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"errors":[{"message":"Not Authorized"}]}`)
			return
		}
		if r.URL.Path != "/tasks/1201" || !strings.Contains(r.URL.Query().Get("opt_fields"), "parent.notes") {
			t.Errorf("unexpected request %s", r.URL)
		}
		io.WriteString(w, `{"data":{"gid":"1201","name":"Solar LP","notes":"https://go.acme.com/quote",
			"custom_fields":[{"name":"Client","display_value":"Acme"}],"parent":{"gid":"9","name":"Q4"}}}`)
	})

	task, err := c.Task(context.Background(), "1201")
	if err != nil {
		t.Fatalf("Task() error = %v", err)
	}
	if task.Name != "Solar LP" || task.Parent == nil || task.Parent.Name != "Q4" || task.CustomFields[0].Value() != "Acme" {
		t.Errorf("Task() = %+v", task)
	}
}

func TestClientAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"errors":[{"message":"task: Unknown object: 999"}]}`)
	})
	_, err := c.Task(context.Background(), "999")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound || !strings.Contains(apiErr.Message, "Unknown object") {
		t.Errorf("Task() error = %v", err)
	}
}

func TestClientSectionTasksPaginates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/projects/77/sections":
			io.WriteString(w, `{"data":[{"gid":"s1","name":"Build"},{"gid":"s2","name":"Ready for QA"}]}`)
		case r.URL.Path == "/tasks" && r.URL.Query().Get("offset") == "":
			if r.URL.Query().Get("section") != "s2" {
				t.Errorf("section = %s", r.URL.Query().Get("section"))
			}
			io.WriteString(w, `{"data":[{"gid":"a","name":"A"},{"gid":"b","name":"B","completed":true}],"next_page":{"offset":"tok"}}`)
		case r.URL.Path == "/tasks":
			io.WriteString(w, `{"data":[{"gid":"c","name":"C"}],"next_page":null}`)
		default:
			t.Errorf("unexpected request %s", r.URL)
		}
	})

	tasks, err := c.SectionTasks(context.Background(), "77", "qa")
	if err != nil {
		t.Fatalf("SectionTasks() error = %v", err)
	}
	if len(tasks) != 2 || tasks[0].GID != "a" || tasks[1].GID != "c" {
		t.Errorf("tasks = %+v", tasks)
	}

	if _, err := c.SectionTasks(context.Background(), "77", "launched"); err == nil || !strings.Contains(err.Error(), "Ready for QA") {
		t.Errorf("missing section error = %v", err)
	}
}

func TestClientPostComment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tasks/1201/stories" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		var body struct {
			Data struct {
				Text string `json:"text"`
			} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Data.Text != "QA Report" {
			t.Errorf("body = %+v, err = %v", body, err)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data":{"gid":"story-1"}}`)
	})
	gid, err := c.PostComment(context.Background(), "1201", "QA Report")
	if err != nil || gid != "story-1" {
		t.Errorf("PostComment() = %q, %v", gid, err)
	}
}

func TestNewClientNeedsToken(t *testing.T) {
	if _, err := NewClient(context.Background(), "", ""); !errors.Is(err, ErrNoToken) {
		t.Errorf("NewClient() error = %v", err)
	}
}
