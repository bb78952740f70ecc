/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents the severity level of log messages
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Config holds the logger configuration
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
	// File, when set, receives log output through a size-rotated writer
	// instead of stderr.
	File *FileConfig
}

// FileConfig describes rotation for file logging.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func (fc *FileConfig) writer() io.WriteCloser {
	maxSize := fc.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	return &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    maxSize,
		MaxBackups: fc.MaxBackups,
		MaxAge:     fc.MaxAgeDays,
		Compress:   fc.Compress,
	}
}

// openFile is replaced in tests.
var openFile = (*FileConfig).writer

// Logger represents the logger instance
type Logger struct {
	config Config
	logger *log.Logger
}

var (
	mu            sync.Mutex
	defaultLogger *Logger
	// current is the log file opened by the last Initialize, if any.
	current io.Closer
)

// Initialize sets up the default logger, closing any log file opened by a
// previous call.
func Initialize(config Config) error {
	var out io.Writer = os.Stderr
	var file io.WriteCloser
	if config.File != nil {
		if config.File.Path == "" {
			return fmt.Errorf("log file path is empty")
		}
		file = openFile(config.File)
		out = file
		// Files never carry terminal escapes
		config.UseColor = false
	}

	mu.Lock()
	defer mu.Unlock()
	if err := closeCurrent(); err != nil {
		return err
	}
	current = file
	defaultLogger = &Logger{
		config: config,
		logger: log.New(out, "", 0),
	}
	return nil
}

// Close flushes and closes the log file, if any. Later messages go to stderr.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return nil
	}
	err := closeCurrent()
	if defaultLogger != nil {
		defaultLogger.logger.SetOutput(os.Stderr)
	}
	return err
}

func closeCurrent() error {
	if current == nil {
		return nil
	}
	err := current.Close()
	current = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// Log writes a log message
func (l *Logger) Log(level Level, message string, fields ...Field) {
	if level < l.config.Level {
		return
	}

	entry := LogEntry{
		Time:      time.Now(),
		Level:     level.String(),
		Message:   message,
		Component: l.config.Component,
		Fields:    make(map[string]interface{}),
	}

	// Add caller info for debug and trace
	if level <= DebugLevel {
		_, file, line, ok := runtime.Caller(2)
		if ok {
			entry.File = file
			entry.Line = line
		}
	}

	// Add fields
	for _, field := range fields {
		entry.Fields[field.Key] = field.Value
	}

	var output string
	if l.config.JSON {
		jsonBytes, _ := json.Marshal(entry)
		output = string(jsonBytes)
	} else {
		output = l.formatPretty(entry)
	}

	l.logger.Print(output)
}

// levelColors holds ANSI foreground codes per level name.
var levelColors = map[string]string{
	"TRACE": "37",
	"DEBUG": "36",
	"INFO":  "32",
	"WARN":  "33",
	"ERROR": "31",
}

// formatPretty formats the log entry in a human-readable way
func (l *Logger) formatPretty(entry LogEntry) string {
	var builder strings.Builder

	// Time
	builder.WriteString(entry.Time.Format("2006-01-02 15:04:05"))

	level := entry.Level
	if code, ok := levelColors[level]; ok && l.config.UseColor {
		level = "\033[" + code + "m" + level + "\033[0m"
	}
	builder.WriteString(fmt.Sprintf(" [%s]", level))

	if entry.Component != "" {
		builder.WriteString(fmt.Sprintf(" %s:", entry.Component))
	}

	// Message
	builder.WriteString(fmt.Sprintf(" %s", entry.Message))

	// Fields
	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		builder.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		builder.WriteString("}")
	}

	// File and line for debug/trace
	if entry.File != "" {
		builder.WriteString(fmt.Sprintf(" (%s:%d)", entry.File, entry.Line))
	}

	return builder.String()
}

// Field represents a structured field in a log entry
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	return Field{Key: "error", Value: err.Error()}
}

// LogEntry represents a log entry
type LogEntry struct {
	Time      time.Time              `json:"time"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Convenience functions for default logger
func Trace(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(TraceLevel, message, fields...)
	}
}

func Debug(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(DebugLevel, message, fields...)
	}
}

func Info(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(InfoLevel, message, fields...)
	} else {
		// Fallback to stderr if logger not initialized
		os.Stderr.WriteString(fmt.Sprintf("[INFO] bundlecheck: %s\n", message))
	}
}

func Warn(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(WarnLevel, message, fields...)
	}
}

func Error(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(ErrorLevel, message, fields...)
	}
}

// SetOutput sets the output writer for the logger
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger != nil {
		defaultLogger.logger.SetOutput(w)
	}
}
