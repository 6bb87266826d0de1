// Copyright 2025 Minseo Park
//
// Stdio transport for JSON-RPC 2.0 communication

package transport

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed is returned by operations on a closed transport.
var ErrClosed = errors.New("transport is closed")

// StdioTransport implements JSON-RPC 2.0 over newline-delimited JSON on
// stdin/stdout.
type StdioTransport struct {
	logger  *zap.Logger
	reader  *bufio.Reader
	writer  io.Writer
	readMu  sync.Mutex
	writeMu sync.Mutex
	closed  bool
	stateMu sync.Mutex
}

// NewStdioTransport creates a stdio transport reading from stdin and writing
// to stdout. A nil logger disables transport logging.
func NewStdioTransport(stdin io.Reader, stdout io.Writer, logger *zap.Logger) *StdioTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StdioTransport{
		logger: logger,
		reader: bufio.NewReader(stdin),
		writer: stdout,
	}
}

// ReadMessage reads one newline-delimited JSON-RPC message.
// Returns io.EOF when stdin is closed by the peer.
func (t *StdioTransport) ReadMessage() (*Message, error) {
	t.readMu.Lock()
	defer t.readMu.Unlock()

	if t.IsClosed() {
		return nil, ErrClosed
	}

	line, err := t.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read line: %w", err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("empty line received")
	}

	var msg Message
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &msg, nil
}

// WriteMessage writes one message followed by a newline. Writes are
// serialised so concurrent handlers cannot interleave output.
func (t *StdioTransport) WriteMessage(msg *Message) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.IsClosed() {
		return ErrClosed
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	if _, err := t.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Close marks the transport closed. Idempotent.
func (t *StdioTransport) Close() error {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	t.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (t *StdioTransport) IsClosed() bool {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.closed
}

// Serve reads messages in a loop and passes each to handler, writing back
// whatever response the handler produces. It returns nil when stdin closes.
func (t *StdioTransport) Serve(handler func(*Message) (*Message, error)) error {
	for {
		msg, err := t.ReadMessage()
		if err != nil {
			if err == io.EOF || errors.Is(err, ErrClosed) {
				t.logger.Info("stdio transport stopping")
				return nil
			}
			t.logger.Warn("failed to read message", zap.Error(err))
			continue
		}

		response, err := handler(msg)
		if err != nil {
			t.logger.Error("handler failed", zap.String("method", msg.Method), zap.Error(err))
			response = NewError(msg.ID, ErrCodeInternalError, err.Error())
		}

		if response != nil {
			if err := t.WriteMessage(response); err != nil {
				t.logger.Error("failed to write response", zap.Error(err))
			}
		}
	}
}
