package types

import (
	"fmt"
	"time"
)

// FailureKind classifies why a capture produced no snapshot
type FailureKind string

const (
	FailureTimeout    FailureKind = "timeout"
	FailureNavigation FailureKind = "navigation"
	FailureBrowser    FailureKind = "browser"
	FailureExtraction FailureKind = "extraction"
)

// CaptureFailure is returned instead of a snapshot when a viewport capture fails
type CaptureFailure struct {
	Viewport ViewportName
	Kind     FailureKind
	Timeout  time.Duration
	Err      error
}

func (f *CaptureFailure) Error() string {
	if f.Kind == FailureTimeout {
		return fmt.Sprintf("%s capture timed out after %s", f.Viewport, f.Timeout)
	}
	if f.Err == nil {
		return fmt.Sprintf("%s capture failed (%s)", f.Viewport, f.Kind)
	}
	return fmt.Sprintf("%s capture failed (%s): %v", f.Viewport, f.Kind, f.Err)
}

func (f *CaptureFailure) Unwrap() error {
	return f.Err
}
