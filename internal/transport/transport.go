// Copyright 2025 Minseo Park

// Package transport provides JSON-RPC 2.0 message transports for the MCP
// server: newline-delimited messages over stdio, and HTTP with an SSE
// response stream.
package transport

import "encoding/json"

// JSON-RPC 2.0 standard error codes.
// See: https://www.jsonrpc.org/specification#error_object
const (
	// ErrCodeParseError indicates invalid JSON was received by the server.
	ErrCodeParseError = -32700

	// ErrCodeInvalidRequest indicates the JSON sent is not a valid Request object.
	ErrCodeInvalidRequest = -32600

	// ErrCodeMethodNotFound indicates the method does not exist or is not available.
	ErrCodeMethodNotFound = -32601

	// ErrCodeInvalidParams indicates invalid method parameter(s).
	ErrCodeInvalidParams = -32602

	// ErrCodeInternalError indicates an internal JSON-RPC error.
	ErrCodeInternalError = -32603
)

// Message is a JSON-RPC 2.0 message, usable as either a request or a
// response. Result and Error are mutually exclusive; ID is omitted for
// notifications.
type Message struct {
	Error   *ErrorObj       `json:"error,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// ErrorObj is a JSON-RPC 2.0 error object.
type ErrorObj struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Code    int             `json:"code"`
}

// NewError builds an error response for the given request ID.
func NewError(id json.RawMessage, code int, message string) *Message {
	return &Message{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &ErrorObj{Code: code, Message: message},
	}
}

// Transport moves JSON-RPC 2.0 messages between the MCP server and its
// client. Implementations must be safe for concurrent use.
type Transport interface {
	// ReadMessage blocks until a message arrives, the peer disconnects, or
	// the transport is closed.
	ReadMessage() (*Message, error)

	// WriteMessage sends a message; for the HTTP transport this broadcasts
	// to all connected SSE clients.
	WriteMessage(msg *Message) error

	// Close releases the transport. Idempotent.
	Close() error
}
