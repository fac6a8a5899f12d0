package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Log levels
const (
	DEBUG = iota
	INFO
	WARN
	ERROR
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

var (
	globalLogger *Logger
	globalMu     sync.Mutex

	defaultLogDir  = filepath.Join(".lpqa", "logs")
	defaultLogFile = "lpqa.log"
	maxLogSize     = int64(10 * 1024 * 1024) // 10MB
	maxLogAge      = 7 * 24 * time.Hour
)

// Logger is a leveled, size-rotated file logger
type Logger struct {
	mu          sync.Mutex
	out         io.Writer
	file        *os.File
	logger      *log.Logger
	level       int
	logPath     string
	maxSize     int64
	currentSize int64
}

// Initialize opens the run log under projectDir/.lpqa/logs. Calling it again
// after a successful initialization is a no-op.
func Initialize(projectDir string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger != nil && globalLogger.file != nil {
		return nil
	}

	l, err := newFileLogger(filepath.Join(projectDir, defaultLogDir))
	if err != nil {
		return err
	}
	globalLogger = l
	return nil
}

// NewWriterLogger returns a logger that writes to w without rotation
func NewWriterLogger(w io.Writer, level int) *Logger {
	return &Logger{
		out:    w,
		logger: log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds),
		level:  level,
	}
}

func newFileLogger(logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{
		level:   INFO,
		logPath: filepath.Join(logDir, defaultLogFile),
		maxSize: maxLogSize,
	}
	if err := l.openLogFile(); err != nil {
		return nil, err
	}
	go l.cleanOldLogs()
	return l, nil
}

// GetLogger returns the global logger, discarding output until Initialize runs
func GetLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger == nil {
		globalLogger = NewWriterLogger(io.Discard, INFO)
	}
	return globalLogger
}

// SetLogger replaces the global logger. Used by tests and the CLI --log-stderr flag.
func SetLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

func (l *Logger) openLogFile() error {
	file, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if info, err := file.Stat(); err == nil {
		l.currentSize = info.Size()
	}

	l.file = file
	l.out = file
	l.logger = log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	return nil
}

// rotateIfNeeded moves a full log aside. Caller holds l.mu.
func (l *Logger) rotateIfNeeded() {
	if l.file == nil || l.currentSize < l.maxSize {
		return
	}

	l.file.Close()
	rotated := filepath.Join(filepath.Dir(l.logPath),
		fmt.Sprintf("lpqa-%s.log", time.Now().Format("20060102-150405")))
	if err := os.Rename(l.logPath, rotated); err != nil {
		fmt.Fprintf(os.Stderr, "lpqa: failed to rotate log file: %v\n", err)
	}
	if err := l.openLogFile(); err != nil {
		fmt.Fprintf(os.Stderr, "lpqa: %v\n", err)
		l.logger = log.New(io.Discard, "", 0)
		l.file = nil
		return
	}
	go l.cleanOldLogs()
}

// cleanOldLogs removes rotated logs older than maxLogAge
func (l *Logger) cleanOldLogs() {
	logDir := filepath.Dir(l.logPath)
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-maxLogAge)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == defaultLogFile || !strings.HasPrefix(name, "lpqa-") || filepath.Ext(name) != ".log" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(logDir, name))
		}
	}
}

func (l *Logger) write(level int, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level || l.logger == nil {
		return
	}

	l.rotateIfNeeded()

	msg := fmt.Sprintf("[%s] %s", levelNames[level], fmt.Sprintf(format, v...))
	l.logger.Output(3, msg)
	l.currentSize += int64(len(msg)) + 1
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) { l.write(DEBUG, format, v...) }

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) { l.write(INFO, format, v...) }

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) { l.write(WARN, format, v...) }

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) { l.write(ERROR, format, v...) }

// SetLevel sets the minimum level written
func (l *Logger) SetLevel(level int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.logger = log.New(io.Discard, "", 0)
		return err
	}
	return nil
}

// GetLogPath returns the current log file path
func (l *Logger) GetLogPath() string {
	return l.logPath
}

// Package-level convenience functions

// Debug logs a debug message using the global logger
func Debug(format string, v ...interface{}) { GetLogger().Debug(format, v...) }

// Info logs an info message using the global logger
func Info(format string, v ...interface{}) { GetLogger().Info(format, v...) }

// Warn logs a warning message using the global logger
func Warn(format string, v ...interface{}) { GetLogger().Warn(format, v...) }

// Error logs an error message using the global logger
func Error(format string, v ...interface{}) { GetLogger().Error(format, v...) }

// Writer returns an io.Writer that logs each write at INFO
func Writer() io.Writer {
	return logWriter{}
}

type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	GetLogger().Info("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// RedirectStandardLog routes the standard log package into the file logger
func RedirectStandardLog() {
	log.SetOutput(Writer())
	log.SetFlags(0)
}
