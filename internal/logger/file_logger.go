package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink is the logging surface the network layer writes to
type Sink interface {
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Logger writes leveled entries to a rotating log file and, optionally, stdout
type Logger struct {
	name    string
	logDir  string
	file    *lumberjack.Logger
	logger  *log.Logger
	minimum LogLevel
	mu      sync.Mutex
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
)

var levelRank = map[LogLevel]int{
	LogLevelDebug:   0,
	LogLevelInfo:    1,
	LogLevelWarning: 2,
	LogLevelError:   3,
}

// Options configures a file logger
type Options struct {
	Dir        string // defaults to "logs"
	Name       string // log file base name, defaults to "network"
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Console    bool   // mirror entries to stdout
	Level      string // debug, info, warn or error
}

// NewLogger creates a new rotating file logger
func NewLogger(opts Options) (*Logger, error) {
	if opts.Dir == "" {
		opts.Dir = "logs"
	}
	if opts.Name == "" {
		opts.Name = "network"
	}
	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = 20
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, opts.Name+".log"),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	var out io.Writer = file
	if opts.Console {
		out = io.MultiWriter(file, os.Stdout)
	}

	l := &Logger{
		name:    opts.Name,
		logDir:  opts.Dir,
		file:    file,
		logger:  log.New(out, "", 0),
		minimum: ParseLevel(opts.Level),
	}

	l.writeSessionHeader()

	return l, nil
}

// NewConsoleLogger creates a logger that only writes to w
func NewConsoleLogger(w io.Writer, level string) *Logger {
	return &Logger{
		name:    "console",
		logger:  log.New(w, "", 0),
		minimum: ParseLevel(level),
	}
}

// ParseLevel maps a config string onto a LogLevel, defaulting to info
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarning
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logger.Printf("==================== SESSION STARTED %s ====================",
		time.Now().Format("2006-01-02 15:04:05"))
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	if levelRank[level] < levelRank[l.minimum] {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] %s", timestamp, level, message)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.Log(LogLevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Close flushes and closes the log file
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.logger.Printf("==================== SESSION ENDED %s ====================",
		time.Now().Format("2006-01-02 15:04:05"))
	return l.file.Close()
}

// GetLogPath returns the current log file path
func (l *Logger) GetLogPath() string {
	if l.file == nil {
		return ""
	}
	return l.file.Filename
}

type nopSink struct{}

func (nopSink) Info(string, ...interface{})    {}
func (nopSink) Warning(string, ...interface{}) {}
func (nopSink) Error(string, ...interface{})   {}

// Nop returns a Sink that discards everything
func Nop() Sink {
	return nopSink{}
}

var (
	defaultOnce sync.Once
	defaultLog  *Logger
)

// Default returns the process-wide stdout logger
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLog = NewConsoleLogger(os.Stdout, os.Getenv("LOG_LEVEL"))
	})
	return defaultLog
}
