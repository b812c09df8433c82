package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      slog.Level `json:"level"`
	Format     string     `json:"format"`      // "json" or "text"
	Output     string     `json:"output"`      // "stdout", "stderr", or file path
	EnableFile bool       `json:"enable_file"` // mirror output to a log file
	FilePath   string     `json:"file_path"`
}

// DefaultLogConfig returns sensible default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:    slog.LevelInfo,
		Format:   "json",
		Output:   "stdout",
		FilePath: "/var/log/lead-dedup/app.log",
	}
}

// Logger provides structured logging on top of log/slog.
type Logger struct {
	config  LogConfig
	slogger *slog.Logger
	file    *os.File
}

// NewLogger creates a new structured logger.
func NewLogger(config LogConfig) (*Logger, error) {
	l := &Logger{config: config}

	var writer io.Writer
	switch config.Output {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		if err := l.openFile(config.Output); err != nil {
			return nil, err
		}
		writer = l.file
	}

	if config.EnableFile && l.file == nil && config.FilePath != "" {
		if err := l.openFile(config.FilePath); err != nil {
			return nil, err
		}
		writer = io.MultiWriter(writer, l.file)
	}

	opts := &slog.HandlerOptions{Level: config.Level}
	var handler slog.Handler
	if config.Format == "text" {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}
	l.slogger = slog.New(handler)

	return l, nil
}

func (l *Logger) openFile(path string) error {
	if path == "" {
		return fmt.Errorf("file path is required for file logging")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.file = f
	return nil
}

// Close releases the log file if one is open.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// WithComponent returns a logger that tags every entry with a component name.
func (l *Logger) WithComponent(component string) *ComponentLogger {
	return &ComponentLogger{logger: l, component: component}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(slog.LevelDebug, msg, nil, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(slog.LevelInfo, msg, nil, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(slog.LevelWarn, msg, nil, fields) }
func (l *Logger) Error(msg string, err error, fields ...Field) {
	l.log(slog.LevelError, msg, err, fields)
}

// Fatal logs at error level and exits.
func (l *Logger) Fatal(msg string, err error, fields ...Field) {
	l.log(slog.LevelError, msg, err, fields)
	l.Close()
	os.Exit(1)
}

func (l *Logger) log(level slog.Level, msg string, err error, fields []Field) {
	attrs := make([]any, 0, len(fields)+1)
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	l.slogger.Log(nil, level, msg, attrs...)
}

// ComponentLogger is a Logger bound to one component.
type ComponentLogger struct {
	logger    *Logger
	component string
}

func (cl *ComponentLogger) Debug(msg string, fields ...Field) {
	cl.logger.log(slog.LevelDebug, msg, nil, cl.tag(fields))
}

func (cl *ComponentLogger) Info(msg string, fields ...Field) {
	cl.logger.log(slog.LevelInfo, msg, nil, cl.tag(fields))
}

func (cl *ComponentLogger) Warn(msg string, fields ...Field) {
	cl.logger.log(slog.LevelWarn, msg, nil, cl.tag(fields))
}

func (cl *ComponentLogger) Error(msg string, err error, fields ...Field) {
	cl.logger.log(slog.LevelError, msg, err, cl.tag(fields))
}

func (cl *ComponentLogger) tag(fields []Field) []Field {
	return append(fields, String("component", cl.component))
}

// Field represents a structured log field.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors
func String(key, value string) Field             { return Field{Key: key, Value: value} }
func Int(key string, value int) Field            { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field        { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field    { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field          { return Field{Key: key, Value: value} }
func Duration(key string, v time.Duration) Field { return Field{Key: key, Value: v} }
func Any(key string, value interface{}) Field    { return Field{Key: key, Value: value} }
func LeadID(id int64) Field                      { return Field{Key: "lead_id", Value: id} }

// ParseLevel maps a config string to a slog level; unknown input means info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
