// Copyright 2025 Minseo Park
//
// HTTP transport unit tests

package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestHTTPTransport wires a handler without starting a listener, using
// httptest against the individual endpoint handlers.
func newTestHTTPTransport(handler func(*Message) (*Message, error)) *HTTPTransport {
	tr := NewHTTPTransport(DefaultHTTPConfig(), nil)
	tr.handler = handler
	return tr
}

func echoHandler(msg *Message) (*Message, error) {
	return &Message{JSONRPC: "2.0", ID: msg.ID, Result: json.RawMessage(`"ok"`)}, nil
}

func TestHandleRPCSuccess(t *testing.T) {
	tr := newTestHTTPTransport(echoHandler)

	req := httptest.NewRequest(http.MethodPost, "/rpc",
		strings.NewReader(`{"jsonrpc":"2.0","method":"tools/list","id":5}`))
	rec := httptest.NewRecorder()
	tr.handleRPC(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp Message
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if string(resp.ID) != "5" {
		t.Errorf("ID = %s, want 5", resp.ID)
	}
	if string(resp.Result) != `"ok"` {
		t.Errorf("Result = %s, want \"ok\"", resp.Result)
	}
}

func TestHandleRPCInvalidJSON(t *testing.T) {
	tr := newTestHTTPTransport(echoHandler)

	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader("junk"))
	rec := httptest.NewRecorder()
	tr.handleRPC(rec, req)

	var resp Message
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeParseError {
		t.Errorf("Error = %+v, want parse error", resp.Error)
	}
}

func TestHandleRPCRejectsGet(t *testing.T) {
	tr := newTestHTTPTransport(echoHandler)

	rec := httptest.NewRecorder()
	tr.handleRPC(rec, httptest.NewRequest(http.MethodGet, "/rpc", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleRPCCountsRequests(t *testing.T) {
	tr := newTestHTTPTransport(echoHandler)

	req := httptest.NewRequest(http.MethodPost, "/rpc",
		strings.NewReader(`{"jsonrpc":"2.0","method":"tools/call","id":1}`))
	tr.handleRPC(httptest.NewRecorder(), req)

	got := tr.Metrics().CounterValue("chatgpt_mcp_requests_total",
		map[string]string{"method": "tools/call", "status": "ok"})
	if got != 1 {
		t.Errorf("requests_total = %d, want 1", got)
	}
}

func TestHandleHealth(t *testing.T) {
	tr := newTestHTTPTransport(echoHandler)

	rec := httptest.NewRecorder()
	tr.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandleMetricsEndpoint(t *testing.T) {
	tr := newTestHTTPTransport(echoHandler)
	tr.Metrics().IncCounter("chatgpt_mcp_requests_total", map[string]string{"method": "x", "status": "ok"})

	rec := httptest.NewRecorder()
	tr.handleMetrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "chatgpt_mcp_requests_total") {
		t.Error("metrics output missing requests_total")
	}
}

func TestCORSMiddleware(t *testing.T) {
	cfg := DefaultHTTPConfig()
	cfg.CORSOrigin = "https://example.com"
	tr := NewHTTPTransport(cfg, nil)

	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := tr.corsMiddleware(inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/rpc", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Errorf("Allow-Origin = %s", got)
	}
}

func TestWriteMessageNoClients(t *testing.T) {
	tr := newTestHTTPTransport(echoHandler)

	if err := tr.WriteMessage(&Message{JSONRPC: "2.0"}); err != nil {
		t.Errorf("WriteMessage() error = %v", err)
	}
}

func TestWriteMessageAfterClose(t *testing.T) {
	tr := newTestHTTPTransport(echoHandler)

	if err := tr.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := tr.WriteMessage(&Message{JSONRPC: "2.0"}); err != ErrClosed {
		t.Errorf("WriteMessage() error = %v, want ErrClosed", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestWriteMessageBroadcastsToClients(t *testing.T) {
	tr := newTestHTTPTransport(echoHandler)

	client := &sseClient{id: 1, events: make(chan string, 4)}
	tr.clientMu.Lock()
	tr.clients[client.id] = client
	tr.clientMu.Unlock()

	if err := tr.WriteMessage(&Message{JSONRPC: "2.0", Result: json.RawMessage(`"hello"`)}); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	select {
	case data := <-client.events:
		if !strings.Contains(data, `"hello"`) {
			t.Errorf("event data = %s", data)
		}
	default:
		t.Fatal("no event delivered to client")
	}

	if got := tr.Metrics().CounterValue("chatgpt_mcp_sse_events_sent_total", nil); got != 1 {
		t.Errorf("sse_events_sent_total = %d, want 1", got)
	}
}

func TestReadMessageUnsupported(t *testing.T) {
	tr := newTestHTTPTransport(echoHandler)

	if _, err := tr.ReadMessage(); err == nil {
		t.Error("ReadMessage() expected error")
	}
}
