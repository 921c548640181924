// Package logger provides leveled printf-style logging for the whole
// service. Output goes to stderr by default; SetOutput exists so the log
// capture service can tee entries into its ring buffer.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

var (
	mu       sync.Mutex
	minLevel = InfoLevel
	std      = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

// Init configures the default logger level and format. Format "text" adds
// caller file:line to each entry.
func Init(level string, format string) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = ParseLevel(level)
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}
	std.SetFlags(flags)
}

// SetOutput redirects all subsequent log entries to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

func emit(l Level, tag, format string, args ...interface{}) {
	mu.Lock()
	enabled := l >= minLevel
	mu.Unlock()
	if !enabled {
		return
	}
	_ = std.Output(3, fmt.Sprintf(tag+format, args...))
}

func Debug(format string, args ...interface{}) { emit(DebugLevel, "[DEBUG] ", format, args...) }
func Info(format string, args ...interface{})  { emit(InfoLevel, "[INFO] ", format, args...) }
func Warn(format string, args ...interface{})  { emit(WarnLevel, "[WARN] ", format, args...) }
func Error(format string, args ...interface{}) { emit(ErrorLevel, "[ERROR] ", format, args...) }

// Fatal logs at error level and exits.
func Fatal(format string, args ...interface{}) {
	_ = std.Output(2, fmt.Sprintf("[FATAL] "+format, args...))
	os.Exit(1)
}
