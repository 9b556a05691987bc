package logging

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

type requestIDKey struct{}

// WithRequestID stores the request id in ctx so services can log it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID extracts the request id from a standard context.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

type level int32

const (
	levelInfo level = iota
	levelWarn
	levelError
)

func (lv level) String() string {
	switch lv {
	case levelWarn:
		return "warn"
	case levelError:
		return "error"
	default:
		return "info"
	}
}

var minLevel atomic.Int32

// SetLevel drops lines below the named level ("info", "warn" or "error").
// Unknown names fall back to info.
func SetLevel(name string) {
	lv := levelInfo
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "warn", "warning":
		lv = levelWarn
	case "error":
		lv = levelError
	}
	minLevel.Store(int32(lv))
}

// output is swapped in tests.
var output = log.Default()

// Logger writes key=value lines tagged with the request id of the context it
// was built from.
type Logger struct {
	requestID string
}

// NewLogger binds a Logger to the request id carried by ctx, or "unknown".
func NewLogger(ctx context.Context) *Logger {
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}
	return &Logger{requestID: requestID}
}

func (l *Logger) emit(lv level, operation, rest string) {
	if int32(lv) < minLevel.Load() {
		return
	}
	output.Printf("[%s] request_id=%s operation=%s %s", lv, l.requestID, operation, rest)
}

func (l *Logger) LogError(operation string, err error) {
	l.emit(levelError, operation, fmt.Sprintf("error=%v", err))
}

func (l *Logger) LogErrorf(operation string, format string, args ...any) {
	l.emit(levelError, operation, fmt.Sprintf(format, args...))
}

func (l *Logger) LogInfo(operation string, message string) {
	l.emit(levelInfo, operation, "message="+message)
}

// LogInfof appends the formatted text after the request and operation keys.
func (l *Logger) LogInfof(operation string, format string, args ...any) {
	l.emit(levelInfo, operation, fmt.Sprintf(format, args...))
}

func (l *Logger) LogWarn(operation string, message string) {
	l.emit(levelWarn, operation, "message="+message)
}

func (l *Logger) LogWarnf(operation string, format string, args ...any) {
	l.emit(levelWarn, operation, fmt.Sprintf(format, args...))
}
