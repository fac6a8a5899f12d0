package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/lance13c/lpqa/internal/types"
)

// keptHeaders is the response-header subset the checks read
var keptHeaders = map[string]bool{
	"content-encoding": true,
	"cache-control":    true,
	"content-type":     true,
	"content-length":   true,
	"expires":          true,
	"etag":             true,
	"last-modified":    true,
	"age":              true,
	"server":           true,
	"via":              true,
	"x-cache":          true,
	"cf-cache-status":  true,
	"x-served-by":      true,
	"x-amz-cf-id":      true,
}

// requestRecord is one request as seen through network events
type requestRecord struct {
	id   network.RequestID
	req  types.NetworkRequest
	kind network.ResourceType
}

// eventTracker collects network, console and exception events for one tab.
// handle runs on chromedp's event goroutine and must not block.
type eventTracker struct {
	mu           sync.Mutex
	now          func() time.Time
	inflight     map[network.RequestID]bool
	lastActivity time.Time

	records []*requestRecord
	byID    map[network.RequestID]*requestRecord
	docID   network.RequestID
	docErr  string

	redirects       []string
	consoleErrors   []string
	consoleWarnings []string
	pageErrors      []string
}

func newEventTracker() *eventTracker {
	return &eventTracker{
		now:          time.Now,
		inflight:     make(map[network.RequestID]bool),
		byID:         make(map[network.RequestID]*requestRecord),
		lastActivity: time.Now(),
	}
}

// untracked resource types never count towards network quiescence
func untracked(t network.ResourceType) bool {
	switch t {
	case network.ResourceTypeWebSocket, network.ResourceTypeEventSource, network.ResourceTypePing:
		return true
	}
	return false
}

func (t *eventTracker) handle(ev interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.lastActivity = t.now()
		rec := t.byID[e.RequestID]
		if rec == nil {
			rec = &requestRecord{id: e.RequestID, kind: e.Type}
			t.byID[e.RequestID] = rec
			t.records = append(t.records, rec)
		}
		if e.RedirectResponse != nil && e.RequestID == t.docID {
			t.redirects = append(t.redirects, e.RedirectResponse.URL)
		}
		rec.req.URL = e.Request.URL
		rec.req.ResourceType = string(e.Type)
		if t.docID == "" && e.Type == network.ResourceTypeDocument {
			t.docID = e.RequestID
			rec.req.Document = true
		}
		if !untracked(e.Type) {
			t.inflight[e.RequestID] = true
		}

	case *network.EventResponseReceived:
		rec := t.byID[e.RequestID]
		if rec == nil || e.Response == nil {
			return
		}
		rec.req.Status = int(e.Response.Status)
		rec.req.ContentType = e.Response.MimeType
		rec.req.Headers = filterHeaders(e.Response.Headers)

	case *network.EventLoadingFinished:
		t.lastActivity = t.now()
		delete(t.inflight, e.RequestID)
		if rec := t.byID[e.RequestID]; rec != nil {
			rec.req.Completed = true
			rec.req.SizeBytes = int64(e.EncodedDataLength)
		}

	case *network.EventLoadingFailed:
		t.lastActivity = t.now()
		delete(t.inflight, e.RequestID)
		if e.RequestID == t.docID {
			t.docErr = e.ErrorText
		}

	case *runtime.EventConsoleAPICalled:
		msg := consoleText(e.Args)
		switch e.Type {
		case runtime.APITypeError, runtime.APITypeAssert:
			t.consoleErrors = append(t.consoleErrors, msg)
		case runtime.APITypeWarning:
			t.consoleWarnings = append(t.consoleWarnings, msg)
		}

	case *runtime.EventExceptionThrown:
		if e.ExceptionDetails != nil {
			t.pageErrors = append(t.pageErrors, exceptionText(e.ExceptionDetails))
		}

	case *cdplog.EventEntryAdded:
		if e.Entry == nil {
			return
		}
		text := e.Entry.Text
		if e.Entry.URL != "" {
			text += " (" + e.Entry.URL + ")"
		}
		switch e.Entry.Level {
		case cdplog.LevelError:
			t.consoleErrors = append(t.consoleErrors, text)
		case cdplog.LevelWarning:
			t.consoleWarnings = append(t.consoleWarnings, text)
		}
	}
}

// waitIdle blocks until no tracked request has been in flight for window
func (t *eventTracker) waitIdle(ctx context.Context, window time.Duration) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if t.idle(window) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *eventTracker) idle(window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && t.now().Sub(t.lastActivity) >= window
}

// trackerState is a copy of everything the tracker saw
type trackerState struct {
	requests        []types.NetworkRequest
	ids             []network.RequestID
	kinds           []network.ResourceType
	redirects       []string
	docErr          string
	consoleErrors   []string
	consoleWarnings []string
	pageErrors      []string
}

func (t *eventTracker) state() trackerState {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := trackerState{
		redirects:       append([]string(nil), t.redirects...),
		docErr:          t.docErr,
		consoleErrors:   append([]string(nil), t.consoleErrors...),
		consoleWarnings: append([]string(nil), t.consoleWarnings...),
		pageErrors:      append([]string(nil), t.pageErrors...),
	}
	for _, rec := range t.records {
		req := rec.req
		if rec.req.Headers != nil {
			req.Headers = make(map[string]string, len(rec.req.Headers))
			for k, v := range rec.req.Headers {
				req.Headers[k] = v
			}
		}
		st.requests = append(st.requests, req)
		st.ids = append(st.ids, rec.id)
		st.kinds = append(st.kinds, rec.kind)
	}
	return st
}

func filterHeaders(h network.Headers) map[string]string {
	out := make(map[string]string)
	for k, v := range h {
		key := strings.ToLower(k)
		if keptHeaders[key] {
			out[key] = fmt.Sprint(v)
		}
	}
	return out
}

func consoleText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if len(a.Value) > 0 {
			var s string
			if err := json.Unmarshal([]byte(a.Value), &s); err == nil {
				parts = append(parts, s)
				continue
			}
			parts = append(parts, string(a.Value))
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}

func exceptionText(d *runtime.ExceptionDetails) string {
	msg := d.Text
	if d.Exception != nil && d.Exception.Description != "" {
		msg = d.Exception.Description
		if i := strings.IndexByte(msg, '\n'); i > 0 {
			msg = msg[:i]
		}
	}
	if d.URL != "" {
		msg = fmt.Sprintf("%s (%s:%d)", msg, d.URL, d.LineNumber+1)
	}
	return msg
}
