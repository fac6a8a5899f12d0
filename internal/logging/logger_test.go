package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriterLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, WARN)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("output contains messages below WARN: %q", out)
	}
	if !strings.Contains(out, "[WARN] warn 3") || !strings.Contains(out, "[ERROR] error 4") {
		t.Errorf("output missing WARN/ERROR lines: %q", out)
	}

	l.SetLevel(DEBUG)
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "[DEBUG] now visible") {
		t.Errorf("SetLevel(DEBUG) did not enable debug output")
	}
}

func TestFileLoggerRotates(t *testing.T) {
	dir := t.TempDir()
	l, err := newFileLogger(dir)
	if err != nil {
		t.Fatalf("newFileLogger() error = %v", err)
	}
	defer l.Close()
	l.maxSize = 64

	for i := 0; i < 10; i++ {
		l.Info("line %d with some padding to fill the file", i)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	rotated := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "lpqa-") {
			rotated++
		}
	}
	if rotated == 0 {
		t.Errorf("no rotated log in %s", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, defaultLogFile)); err != nil {
		t.Errorf("current log missing: %v", err)
	}
}
