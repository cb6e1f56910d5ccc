// Copyright 2025 Joseph Cumines
//
// Audit logging for gateway operations and tool invocations

package server

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// AuditLogger writes one structured JSON line per gateway operation or MCP
// tool invocation: the operation name, redacted request arguments, result
// status, and duration. Uses log/slog for the JSON output.
//
// A nil *AuditLogger is valid and logs nothing, so callers never need to
// guard their log sites.
type AuditLogger struct {
	logger  *slog.Logger
	file    *os.File
	enabled bool
	mu      sync.RWMutex
}

// redactedKeys lists argument keys whose values never reach the audit log.
// "text" is here because typed keystrokes and clipboard writes routinely
// carry passwords.
var redactedKeys = map[string]bool{
	"password":      true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"credential":    true,
	"credentials":   true,
	"authorization": true,
	"auth":          true,
	"bearer":        true,
	"passphrase":    true,
	"text":          true,
}

// NewAuditLogger creates an audit logger appending to filePath. An empty
// path disables audit logging entirely. Returns an error if the file
// cannot be opened.
func NewAuditLogger(filePath string) (*AuditLogger, error) {
	if filePath == "" {
		return &AuditLogger{enabled: false}, nil
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	return &AuditLogger{
		logger:  slog.New(handler),
		file:    file,
		enabled: true,
	}, nil
}

// Close closes the audit log file if it is open. Safe to call multiple
// times.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

// IsEnabled reports whether audit entries are being written.
func (a *AuditLogger) IsEnabled() bool {
	if a == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// LogOp records one REST operation: "METHOD /path", the redacted request
// body, the HTTP status it produced, and how long dispatch took.
func (a *AuditLogger) LogOp(op string, body []byte, status int, duration time.Duration) {
	logger := a.activeLogger()
	if logger == nil {
		return
	}

	logger.Info("operation",
		slog.String("op", op),
		slog.String("arguments", redactArguments(body)),
		slog.Int("status", status),
		slog.Float64("duration_seconds", duration.Seconds()),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// LogToolCall records one MCP tool invocation with redacted arguments.
func (a *AuditLogger) LogToolCall(tool string, args json.RawMessage, status string, duration time.Duration) {
	logger := a.activeLogger()
	if logger == nil {
		return
	}

	logger.Info("tool_invocation",
		slog.String("tool", tool),
		slog.String("arguments", redactArguments(args)),
		slog.String("status", status),
		slog.Float64("duration_seconds", duration.Seconds()),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

func (a *AuditLogger) activeLogger() *slog.Logger {
	if !a.IsEnabled() {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.logger
}

// redactArguments redacts sensitive values from JSON arguments.
func redactArguments(args []byte) string {
	if len(args) == 0 {
		return "{}"
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(args, &parsed); err != nil {
		// Can't parse, return placeholder
		return "[unparseable]"
	}

	redactMapValues(parsed)

	redacted, err := json.Marshal(parsed)
	if err != nil {
		return "[error]"
	}
	return string(redacted)
}

// redactMapValues recursively redacts sensitive values in a map.
func redactMapValues(m map[string]interface{}) {
	for key, value := range m {
		lowerKey := strings.ToLower(key)

		if redactedKeys[lowerKey] {
			m[key] = "[REDACTED]"
			continue
		}

		// Partial matches catch variants like "auth_token".
		for redactKey := range redactedKeys {
			if strings.Contains(lowerKey, redactKey) {
				m[key] = "[REDACTED]"
				break
			}
		}

		if nested, ok := value.(map[string]interface{}); ok {
			redactMapValues(nested)
		}

		if arr, ok := value.([]interface{}); ok {
			for _, item := range arr {
				if nestedMap, ok := item.(map[string]interface{}); ok {
					redactMapValues(nestedMap)
				}
			}
		}
	}
}
