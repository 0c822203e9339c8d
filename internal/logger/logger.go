package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.RWMutex
	logger  = newLogger(os.Stdout, "wolfpath")
	logFile *os.File
)

func newLogger(w io.Writer, prefix string) *log.Logger {
	l := log.New(w)
	l.SetPrefix(prefix)
	l.SetReportTimestamp(true)
	l.SetTimeFormat(time.DateTime)
	return l
}

// Init configures the process-wide logger. An empty path logs to stdout.
func Init(prefix, level, path string) error {
	w := io.Writer(os.Stdout)
	if path != "" {
		f, err := openLogFile(path)
		if err != nil {
			return err
		}
		w = f

		mu.Lock()
		if logFile != nil {
			_ = logFile.Close()
		}
		logFile = f
		mu.Unlock()
	}

	l := newLogger(w, prefix)
	l.SetLevel(parseLevel(level))

	mu.Lock()
	logger = l
	mu.Unlock()

	Info("📝 logger initialized", "level", level, "file", path)
	return nil
}

// InitClient logs to ~/.wolfpath/client.log so the terminal UI owns stdout.
func InitClient(level string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	path := filepath.Join(homeDir, ".wolfpath", "client.log")
	return path, Init("wolfpath-client", level, path)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Rotate if file is too large (> 10MB)
	if info, err := os.Stat(path); err == nil && info.Size() > 10*1024*1024 {
		backupPath := fmt.Sprintf("%s.%d", path, time.Now().Unix())
		_ = os.Rename(path, backupPath)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Close closes the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func current() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetOutput redirects the logger, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

func Debug(msg string, keyvals ...any) { current().Debug(msg, keyvals...) }

func Info(msg string, keyvals ...any) { current().Info(msg, keyvals...) }

func Warn(msg string, keyvals ...any) { current().Warn(msg, keyvals...) }

func Error(msg string, keyvals ...any) { current().Error(msg, keyvals...) }

// Fatal logs and exits.
func Fatal(msg string, keyvals ...any) { current().Fatal(msg, keyvals...) }

// LogPanic logs a recovered panic with stack trace
func LogPanic(r any) {
	current().Error("💥 panic recovered", "panic", r, "stack", string(debug.Stack()))
}
