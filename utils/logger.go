package utils

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel controls which messages reach the output
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	logMu    sync.RWMutex
	logLevel = LevelInfo

	debugLogger = log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	infoLogger  = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	warnLogger  = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	errorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
)

// ParseLogLevel converts a LOG_LEVEL value into a LogLevel, defaulting to info
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// InitLogger sets the minimum level and redirects all loggers to out.
// A nil writer keeps stdout/stderr.
func InitLogger(level string, out io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()

	logLevel = ParseLogLevel(level)
	if out != nil {
		debugLogger.SetOutput(out)
		infoLogger.SetOutput(out)
		warnLogger.SetOutput(out)
		errorLogger.SetOutput(out)
	}
}

func enabled(level LogLevel) bool {
	logMu.RLock()
	defer logMu.RUnlock()
	return level >= logLevel
}

// LogDebug logs a debug message
func LogDebug(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		_ = debugLogger.Output(2, sprintf(format, v...))
	}
}

// LogInfo logs an informational message
func LogInfo(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		_ = infoLogger.Output(2, sprintf(format, v...))
	}
}

// LogWarn logs a warning message
func LogWarn(format string, v ...interface{}) {
	if enabled(LevelWarn) {
		_ = warnLogger.Output(2, sprintf(format, v...))
	}
}

// LogError logs an error message
func LogError(format string, v ...interface{}) {
	if enabled(LevelError) {
		_ = errorLogger.Output(2, sprintf(format, v...))
	}
}

// LogRequest logs HTTP request details
func LogRequest(requestID, method, path, ip string, status int, duration time.Duration) {
	if enabled(LevelInfo) {
		_ = infoLogger.Output(2, sprintf("[%s] %s %s from %s - Status: %d - Duration: %v", requestID, method, path, ip, status, duration))
	}
}
