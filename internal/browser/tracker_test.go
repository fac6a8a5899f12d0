package browser

import (
	"context"
	"testing"
	"time"

	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
)

func TestTrackerRecordsDocumentAndHeaders(t *testing.T) {
	tr := newEventTracker()

	tr.handle(&network.EventRequestWillBeSent{
		RequestID: "1",
		Type:      network.ResourceTypeDocument,
		Request:   &network.Request{URL: "http://example.com/"},
	})
	// redirect keeps the request id
	tr.handle(&network.EventRequestWillBeSent{
		RequestID:        "1",
		Type:             network.ResourceTypeDocument,
		Request:          &network.Request{URL: "https://example.com/"},
		RedirectResponse: &network.Response{URL: "http://example.com/", Status: 301},
	})
	tr.handle(&network.EventResponseReceived{
		RequestID: "1",
		Type:      network.ResourceTypeDocument,
		Response: &network.Response{
			URL:      "https://example.com/",
			Status:   200,
			MimeType: "text/html",
			Headers: network.Headers{
				"Content-Encoding": "br",
				"Cache-Control":    "max-age=60",
				"Set-Cookie":       "secret",
			},
		},
	})
	tr.handle(&network.EventLoadingFinished{RequestID: "1", EncodedDataLength: 1234})

	tr.handle(&network.EventRequestWillBeSent{
		RequestID: "2",
		Type:      network.ResourceTypeScript,
		Request:   &network.Request{URL: "https://example.com/app.js"},
	})

	st := tr.state()
	if len(st.requests) != 2 {
		t.Fatalf("len(requests) = %d, want 2", len(st.requests))
	}
	doc := st.requests[0]
	if !doc.Document || doc.Status != 200 || doc.URL != "https://example.com/" || !doc.Completed || doc.SizeBytes != 1234 {
		t.Errorf("document = %+v", doc)
	}
	if doc.Header("content-encoding") != "br" || doc.Header("cache-control") != "max-age=60" {
		t.Errorf("headers = %v", doc.Headers)
	}
	if _, ok := doc.Headers["set-cookie"]; ok {
		t.Errorf("headers kept set-cookie: %v", doc.Headers)
	}
	if len(st.redirects) != 1 || st.redirects[0] != "http://example.com/" {
		t.Errorf("redirects = %v", st.redirects)
	}
	if st.requests[1].Completed {
		t.Errorf("in-flight script marked completed")
	}
}

func TestTrackerSeparatesConsoleAndPageErrors(t *testing.T) {
	tr := newEventTracker()

	tr.handle(&runtime.EventConsoleAPICalled{
		Type: runtime.APITypeError,
		Args: []*runtime.RemoteObject{{Value: []byte(`"boom"`)}, {Description: "Error: detail"}},
	})
	tr.handle(&runtime.EventConsoleAPICalled{
		Type: runtime.APITypeWarning,
		Args: []*runtime.RemoteObject{{Value: []byte(`"careful"`)}},
	})
	tr.handle(&runtime.EventConsoleAPICalled{
		Type: runtime.APITypeLog,
		Args: []*runtime.RemoteObject{{Value: []byte(`"ignored"`)}},
	})
	tr.handle(&runtime.EventExceptionThrown{
		ExceptionDetails: &runtime.ExceptionDetails{
			Text:       "Uncaught",
			Exception:  &runtime.RemoteObject{Description: "TypeError: x is undefined\n    at foo"},
			URL:        "https://example.com/app.js",
			LineNumber: 9,
		},
	})
	tr.handle(&cdplog.EventEntryAdded{Entry: &cdplog.Entry{
		Level: cdplog.LevelError,
		Text:  "Failed to load resource: 404",
		URL:   "https://example.com/missing.png",
	}})

	st := tr.state()
	if len(st.consoleErrors) != 2 {
		t.Errorf("consoleErrors = %v, want 2 entries", st.consoleErrors)
	}
	if st.consoleErrors[0] != "boom Error: detail" {
		t.Errorf("consoleErrors[0] = %q", st.consoleErrors[0])
	}
	if len(st.consoleWarnings) != 1 || st.consoleWarnings[0] != "careful" {
		t.Errorf("consoleWarnings = %v", st.consoleWarnings)
	}
	want := "TypeError: x is undefined (https://example.com/app.js:10)"
	if len(st.pageErrors) != 1 || st.pageErrors[0] != want {
		t.Errorf("pageErrors = %v, want [%q]", st.pageErrors, want)
	}
}

func TestTrackerWaitIdle(t *testing.T) {
	tr := newEventTracker()
	tr.handle(&network.EventRequestWillBeSent{
		RequestID: "1",
		Type:      network.ResourceTypeXHR,
		Request:   &network.Request{URL: "https://example.com/api"},
	})
	// websockets never settle and must not hold quiescence open
	tr.handle(&network.EventRequestWillBeSent{
		RequestID: "2",
		Type:      network.ResourceTypeWebSocket,
		Request:   &network.Request{URL: "wss://example.com/ws"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := tr.waitIdle(ctx, 10*time.Millisecond); err == nil {
		t.Fatal("waitIdle() = nil with a request in flight, want deadline error")
	}

	tr.handle(&network.EventLoadingFinished{RequestID: "1"})
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	if err := tr.waitIdle(ctx2, 20*time.Millisecond); err != nil {
		t.Fatalf("waitIdle() = %v, want nil after the request finished", err)
	}
}
