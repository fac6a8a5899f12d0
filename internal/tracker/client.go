// Package tracker reads landing-page tasks from Asana and posts QA results back.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lance13c/lpqa/internal/logging"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the Asana REST API root
const DefaultBaseURL = "https://app.asana.com/api/1.0"

// ErrNoToken is returned when no personal access token is configured
var ErrNoToken = errors.New("ASANA_ACCESS_TOKEN not set; create a personal access token at https://app.asana.com/0/my-apps")

const taskFields = "name,notes,completed,custom_fields.name,custom_fields.display_value,custom_fields.text_value,parent.name,parent.notes"

// CustomField is the subset of an Asana custom field lpqa reads
type CustomField struct {
	Name         string `json:"name"`
	DisplayValue string `json:"display_value"`
	TextValue    string `json:"text_value"`
}

// Value returns the display value, falling back to the raw text value
func (f CustomField) Value() string {
	if f.DisplayValue != "" {
		return f.DisplayValue
	}
	return f.TextValue
}

// TaskRef is a parent task reference
type TaskRef struct {
	GID   string `json:"gid"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// Task is an Asana task with the fields QA resolution needs
type Task struct {
	GID          string        `json:"gid"`
	Name         string        `json:"name"`
	Notes        string        `json:"notes"`
	Completed    bool          `json:"completed"`
	CustomFields []CustomField `json:"custom_fields"`
	Parent       *TaskRef      `json:"parent"`
}

// Section is a column within a project
type Section struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// APIError is a non-2xx response from the Asana API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("asana API error (%d): %s", e.StatusCode, e.Message)
}

// Client is a minimal Asana REST client authenticated with a bearer token
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for token. An empty baseURL uses DefaultBaseURL.
func NewClient(ctx context.Context, token, baseURL string) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	hc.Timeout = 30 * time.Second
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    hc,
	}, nil
}

type envelope struct {
	Data     json.RawMessage `json:"data"`
	NextPage *struct {
		Offset string `json:"offset"`
	} `json:"next_page"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (*envelope, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(map[string]interface{}{"data": body})
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logging.Debug("Asana %s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asana request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read asana response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("failed to decode asana response: %w", err)
	}
	if resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if len(env.Errors) > 0 {
			msg = env.Errors[0].Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode asana data: %w", err)
		}
	}
	return &env, nil
}

// Task fetches one task with its custom fields and parent
func (c *Client) Task(ctx context.Context, gid string) (*Task, error) {
	var t Task
	q := url.Values{"opt_fields": {taskFields}}
	if _, err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(gid), q, nil, &t); err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", gid, err)
	}
	return &t, nil
}

// Sections lists the sections of a project
func (c *Client) Sections(ctx context.Context, projectGID string) ([]Section, error) {
	var out []Section
	q := url.Values{"opt_fields": {"name"}}
	if _, err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectGID)+"/sections", q, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list sections of %s: %w", projectGID, err)
	}
	return out, nil
}

// SectionTasks lists the incomplete tasks in the first section of projectGID
// whose name contains section, case-insensitively
func (c *Client) SectionTasks(ctx context.Context, projectGID, section string) ([]Task, error) {
	sections, err := c.Sections(ctx, projectGID)
	if err != nil {
		return nil, err
	}
	var target *Section
	var names []string
	for i, s := range sections {
		names = append(names, s.Name)
		if target == nil && strings.Contains(strings.ToLower(s.Name), strings.ToLower(section)) {
			target = &sections[i]
		}
	}
	if target == nil {
		return nil, fmt.Errorf("section %q not found; available: %s", section, strings.Join(names, ", "))
	}

	var tasks []Task
	q := url.Values{
		"section":    {target.GID},
		"opt_fields": {"name,completed"},
		"limit":      {"100"},
	}
	for {
		var page []Task
		env, err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &page)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks in %s: %w", target.Name, err)
		}
		for _, t := range page {
			if !t.Completed {
				tasks = append(tasks, t)
			}
		}
		if env.NextPage == nil || env.NextPage.Offset == "" {
			break
		}
		q.Set("offset", env.NextPage.Offset)
	}
	logging.Info("Found %d open task(s) in section %q", len(tasks), target.Name)
	return tasks, nil
}

// PostComment adds text as a comment on the task and returns the story gid
func (c *Client) PostComment(ctx context.Context, taskGID, text string) (string, error) {
	var story struct {
		GID string `json:"gid"`
	}
	body := map[string]string{"text": text}
	if _, err := c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(taskGID)+"/stories", nil, body, &story); err != nil {
		return "", fmt.Errorf("failed to post comment on %s: %w", taskGID, err)
	}
	return story.GID, nil
}
