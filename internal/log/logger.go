// Package log provides logging to the console and a log file.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// FileName is the log file created inside the log directory.
const FileName = "griptape.log"

// Logger writes output to both console and a log file.
type Logger struct {
	file   *os.File
	out    io.Writer
	errOut io.Writer
	debug  atomic.Bool
}

// New creates a logger that writes to the console and to FileName in logDir.
func New(logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(logDir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &Logger{
		file:   file,
		out:    io.MultiWriter(os.Stdout, file),
		errOut: io.MultiWriter(os.Stderr, file),
	}, nil
}

// NewWithWriters creates a logger over arbitrary writers, without a file.
func NewWithWriters(out, errOut io.Writer) *Logger {
	return &Logger{out: out, errOut: errOut}
}

// SetDebug toggles Debugf output.
func (l *Logger) SetDebug(enabled bool) {
	l.debug.Store(enabled)
}

// Printf writes a formatted message to the console and log file.
func (l *Logger) Printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(l.out, format, args...)
}

// Println writes a message to the console and log file with a newline.
func (l *Logger) Println(args ...interface{}) {
	_, _ = fmt.Fprintln(l.out, args...)
}

// Errorf writes a timestamped error line to stderr and the log file.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.stamped("ERROR", format, args...)
}

// Debugf writes a timestamped debug line to stderr and the log file when
// debug output is enabled.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if !l.debug.Load() {
		return
	}
	l.stamped("DEBUG", format, args...)
}

func (l *Logger) stamped(level, format string, args ...interface{}) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(l.errOut, "[%s] %s %s\n", timestamp, level, fmt.Sprintf(format, args...))
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Global logger instance
var globalLogger atomic.Pointer[Logger]

// Init installs a global logger writing under logDir and redirects the
// standard log package to the log file.
func Init(logDir string, debug bool) error {
	logger, err := New(logDir)
	if err != nil {
		return err
	}
	logger.SetDebug(debug)
	SetDefault(logger)

	stdlog.SetOutput(logger.file)
	stdlog.SetFlags(stdlog.Ldate | stdlog.Ltime)

	return nil
}

// SetDefault replaces the global logger. Passing nil restores the console
// fallback.
func SetDefault(l *Logger) {
	globalLogger.Store(l)
}

// Printf uses the global logger to print formatted output.
func Printf(format string, args ...interface{}) {
	if l := globalLogger.Load(); l != nil {
		l.Printf(format, args...)
	} else {
		fmt.Printf(format, args...)
	}
}

// Println uses the global logger to print output with newline.
func Println(args ...interface{}) {
	if l := globalLogger.Load(); l != nil {
		l.Println(args...)
	} else {
		fmt.Println(args...)
	}
}

// Errorf uses the global logger to print formatted error output.
func Errorf(format string, args ...interface{}) {
	if l := globalLogger.Load(); l != nil {
		l.Errorf(format, args...)
	} else {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// Debugf uses the global logger for debug output. Without a global logger
// debug output is dropped.
func Debugf(format string, args ...interface{}) {
	if l := globalLogger.Load(); l != nil {
		l.Debugf(format, args...)
	}
}

// Close closes the global logger.
func Close() error {
	if l := globalLogger.Load(); l != nil {
		return l.Close()
	}
	return nil
}
