// Copyright 2025 Minseo Park
//
// Stdio transport unit tests

package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestStdioReadMessage(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","method":"tools/list","id":1}` + "\n")
	tr := NewStdioTransport(in, &bytes.Buffer{}, nil)

	msg, err := tr.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	if msg.Method != "tools/list" {
		t.Errorf("Method = %s, want tools/list", msg.Method)
	}
	if string(msg.ID) != "1" {
		t.Errorf("ID = %s, want 1", msg.ID)
	}
}

func TestStdioReadMessageEOF(t *testing.T) {
	tr := NewStdioTransport(strings.NewReader(""), &bytes.Buffer{}, nil)

	if _, err := tr.ReadMessage(); err != io.EOF {
		t.Errorf("ReadMessage() error = %v, want io.EOF", err)
	}
}

func TestStdioReadMessageInvalidJSON(t *testing.T) {
	tr := NewStdioTransport(strings.NewReader("not json\n"), &bytes.Buffer{}, nil)

	if _, err := tr.ReadMessage(); err == nil {
		t.Error("ReadMessage() expected error for invalid JSON")
	}
}

func TestStdioWriteMessage(t *testing.T) {
	var out bytes.Buffer
	tr := NewStdioTransport(strings.NewReader(""), &out, nil)

	err := tr.WriteMessage(&Message{
		JSONRPC: "2.0",
		ID:      json.RawMessage("1"),
		Result:  json.RawMessage(`{"ok":true}`),
	})
	if err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	line := out.String()
	if !strings.HasSuffix(line, "\n") {
		t.Error("output is not newline-terminated")
	}

	var decoded Message
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.JSONRPC != "2.0" {
		t.Errorf("JSONRPC = %s, want 2.0", decoded.JSONRPC)
	}
}

func TestStdioClosedTransport(t *testing.T) {
	tr := NewStdioTransport(strings.NewReader("{}\n"), &bytes.Buffer{}, nil)

	if err := tr.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !tr.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, err := tr.ReadMessage(); err != ErrClosed {
		t.Errorf("ReadMessage() error = %v, want ErrClosed", err)
	}
	if err := tr.WriteMessage(&Message{JSONRPC: "2.0"}); err != ErrClosed {
		t.Errorf("WriteMessage() error = %v, want ErrClosed", err)
	}
}

func TestStdioServeDispatchesAndResponds(t *testing.T) {
	in := strings.NewReader(
		`{"jsonrpc":"2.0","method":"ping","id":1}` + "\n" +
			`{"jsonrpc":"2.0","method":"ping","id":2}` + "\n")
	var out bytes.Buffer
	tr := NewStdioTransport(in, &out, nil)

	var served int
	err := tr.Serve(func(msg *Message) (*Message, error) {
		served++
		return &Message{JSONRPC: "2.0", ID: msg.ID, Result: json.RawMessage(`"pong"`)}, nil
	})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	if served != 2 {
		t.Errorf("served = %d, want 2", served)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d response lines, want 2", len(lines))
	}
}

func TestStdioServeHandlerError(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","method":"boom","id":7}` + "\n")
	var out bytes.Buffer
	tr := NewStdioTransport(in, &out, nil)

	err := tr.Serve(func(*Message) (*Message, error) {
		return nil, io.ErrUnexpectedEOF
	})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	var decoded Message
	if err := json.Unmarshal([]byte(strings.TrimSpace(out.String())), &decoded); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if decoded.Error == nil || decoded.Error.Code != ErrCodeInternalError {
		t.Errorf("Error = %+v, want internal error", decoded.Error)
	}
	if string(decoded.ID) != "7" {
		t.Errorf("ID = %s, want 7", decoded.ID)
	}
}
