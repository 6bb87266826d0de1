// Copyright 2025 Minseo Park
//
// HTTP/SSE transport for JSON-RPC 2.0 communication

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// HTTPConfig holds configuration for the HTTP transport. SocketPath, when
// set, takes precedence over Address and serves on a Unix domain socket.
// WriteTimeout defaults to 0 because SSE streams are long-lived.
type HTTPConfig struct {
	Address           string
	SocketPath        string
	CORSOrigin        string
	HeartbeatInterval time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	RateLimit         float64
}

// DefaultHTTPConfig returns the default HTTP transport configuration.
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		Address:           ":8080",
		CORSOrigin:        "*",
		HeartbeatInterval: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
	}
}

// sseClient is one connected SSE stream.
type sseClient struct {
	events chan string
	id     uint64
}

// HTTPTransport serves JSON-RPC over HTTP: requests arrive as POST /rpc and
// responses are both returned inline and broadcast on the GET /events SSE
// stream. /health and /metrics are served unauthenticated and exempt from
// rate limiting.
type HTTPTransport struct {
	logger   *zap.Logger
	config   *HTTPConfig
	server   *http.Server
	handler  func(*Message) (*Message, error)
	metrics  *MetricsRegistry
	limiter  *RateLimiter
	clients  map[uint64]*sseClient
	clientMu sync.RWMutex
	nextID   atomic.Uint64
	eventID  atomic.Uint64
	closed   atomic.Bool
}

// NewHTTPTransport creates an HTTP transport with the given config. A nil
// config uses defaults; a nil logger disables logging.
func NewHTTPTransport(cfg *HTTPConfig, logger *zap.Logger) *HTTPTransport {
	if cfg == nil {
		cfg = DefaultHTTPConfig()
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPTransport{
		logger:  logger,
		config:  cfg,
		metrics: NewMetricsRegistry(),
		limiter: NewRateLimiter(cfg.RateLimit),
		clients: make(map[uint64]*sseClient),
	}
}

// Metrics exposes the transport's metrics registry.
func (t *HTTPTransport) Metrics() *MetricsRegistry {
	return t.metrics
}

// ReadMessage is not supported; the HTTP transport dispatches through the
// handler passed to Serve.
func (t *HTTPTransport) ReadMessage() (*Message, error) {
	return nil, fmt.Errorf("http transport does not support ReadMessage; use Serve")
}

// WriteMessage broadcasts a message to every connected SSE client. Slow
// clients that cannot drain their buffer are skipped rather than blocking
// the broadcast.
func (t *HTTPTransport) WriteMessage(msg *Message) error {
	if t.closed.Load() {
		return ErrClosed
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	t.clientMu.RLock()
	defer t.clientMu.RUnlock()
	for _, c := range t.clients {
		select {
		case c.events <- string(data):
			t.metrics.IncCounter("chatgpt_mcp_sse_events_sent_total", nil)
		default:
			t.logger.Warn("dropping SSE event for slow client", zap.Uint64("client", c.id))
		}
	}
	return nil
}

// Serve starts the HTTP server and blocks until Close or a listener error.
func (t *HTTPTransport) Serve(handler func(*Message) (*Message, error)) error {
	t.handler = handler

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", t.handleRPC)
	mux.HandleFunc("/events", t.handleSSE)
	mux.HandleFunc("/health", t.handleHealth)
	mux.HandleFunc("/metrics", t.handleMetrics)

	t.server = &http.Server{
		Handler:      RateLimitMiddleware(t.limiter, t.corsMiddleware(mux)),
		ReadTimeout:  t.config.ReadTimeout,
		WriteTimeout: t.config.WriteTimeout,
	}

	listener, err := t.listen()
	if err != nil {
		return err
	}

	t.logger.Info("http transport serving",
		zap.String("address", t.config.Address),
		zap.String("socket", t.config.SocketPath))

	if err := t.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (t *HTTPTransport) listen() (net.Listener, error) {
	if t.config.SocketPath != "" {
		// Stale socket files prevent rebinding after an unclean exit.
		if err := os.Remove(t.config.SocketPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
		listener, err := net.Listen("unix", t.config.SocketPath)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on socket %s: %w", t.config.SocketPath, err)
		}
		return listener, nil
	}

	listener, err := net.Listen("tcp", t.config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", t.config.Address, err)
	}
	return listener, nil
}

// Close shuts the server down gracefully and disconnects all SSE clients.
func (t *HTTPTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}

	t.clientMu.Lock()
	for id, c := range t.clients {
		close(c.events)
		delete(t.clients, id)
	}
	t.clientMu.Unlock()

	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

func (t *HTTPTransport) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := t.config.CORSOrigin
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Last-Event-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (t *HTTPTransport) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		t.writeJSON(w, NewError(nil, ErrCodeParseError, fmt.Sprintf("invalid JSON: %v", err)))
		return
	}

	response, err := t.handler(&msg)
	if err != nil {
		response = NewError(msg.ID, ErrCodeInternalError, err.Error())
	}

	status := "ok"
	if response != nil && response.Error != nil {
		status = "error"
	}
	t.metrics.IncCounter("chatgpt_mcp_requests_total", map[string]string{
		"method": msg.Method,
		"status": status,
	})
	t.metrics.ObserveHistogram("chatgpt_mcp_request_duration_seconds", nil, time.Since(start).Seconds())

	if response == nil {
		// Notification: acknowledge with no body.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	t.writeJSON(w, response)

	// Mirror the response onto the SSE stream for subscribers.
	if err := t.WriteMessage(response); err != nil && err != ErrClosed {
		t.logger.Warn("failed to broadcast response", zap.Error(err))
	}
}

func (t *HTTPTransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := &sseClient{
		id:     t.nextID.Add(1),
		events: make(chan string, 64),
	}

	t.clientMu.Lock()
	t.clients[client.id] = client
	count := len(t.clients)
	t.clientMu.Unlock()
	t.metrics.SetGauge("chatgpt_mcp_sse_connections_active", nil, float64(count))

	defer func() {
		t.clientMu.Lock()
		delete(t.clients, client.id)
		count := len(t.clients)
		t.clientMu.Unlock()
		t.metrics.SetGauge("chatgpt_mcp_sse_connections_active", nil, float64(count))
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(t.config.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case data, ok := <-client.events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "id: %s\nevent: message\ndata: %s\n\n",
				strconv.FormatUint(t.eventID.Add(1), 10), data)
			flusher.Flush()
		}
	}
}

func (t *HTTPTransport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (t *HTTPTransport) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	t.metrics.WritePrometheus(w)
}

func (t *HTTPTransport) writeJSON(w http.ResponseWriter, msg *Message) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		t.logger.Warn("failed to write response body", zap.Error(err))
	}
}
