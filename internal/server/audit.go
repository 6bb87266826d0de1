// Copyright 2025 Minseo Park
//
// Audit logging for MCP tool invocations

package server

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditLogger writes one structured JSON line per tool invocation: an
// invocation ID, the tool name, redacted arguments, result status, and
// duration. Disabled when no file path is configured.
type AuditLogger struct {
	logger  *slog.Logger
	file    *os.File
	enabled bool
	mu      sync.RWMutex
}

// redactedKeys are argument keys whose values never reach the audit log.
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
	"cookie":        true,
	"passphrase":    true,
}

// NewAuditLogger creates an audit logger appending to filePath. An empty
// path disables audit logging.
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

// Close closes the audit log file if it is open. Safe to call repeatedly.
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file != nil {
		err := a.file.Close()
		a.file = nil
		return err
	}
	return nil
}

// IsEnabled reports whether audit logging is active.
func (a *AuditLogger) IsEnabled() bool {
	if a == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// LogToolCall records one tool invocation with redacted arguments.
func (a *AuditLogger) LogToolCall(tool string, args json.RawMessage, status string, duration time.Duration) {
	if !a.IsEnabled() {
		return
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	a.logger.Info("tool_call",
		slog.String("invocation_id", uuid.NewString()),
		slog.String("tool", tool),
		slog.Any("arguments", redactArguments(args)),
		slog.String("status", status),
		slog.Duration("duration", duration),
	)
}

// redactArguments parses raw JSON arguments and replaces sensitive values.
// Unparseable arguments are summarised rather than logged verbatim.
func redactArguments(args json.RawMessage) map[string]any {
	if len(args) == 0 {
		return nil
	}

	var parsed map[string]any
	if err := json.Unmarshal(args, &parsed); err != nil {
		return map[string]any{"_unparsed_bytes": len(args)}
	}

	for key := range parsed {
		if redactedKeys[strings.ToLower(key)] {
			parsed[key] = "[REDACTED]"
		}
	}
	return parsed
}
