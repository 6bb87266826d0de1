// Copyright 2025 Minseo Park
//
// MCP server implementation

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/minseopark/chatgpt-use-mcp/internal/chatgpt"
	"github.com/minseopark/chatgpt-use-mcp/internal/config"
	"github.com/minseopark/chatgpt-use-mcp/internal/transport"
)

// protocolVersion is the MCP protocol revision this server speaks.
const protocolVersion = "2024-11-05"

// Automation is the surface of the ChatGPT client the tool handlers use.
// *chatgpt.Client satisfies it; tests substitute fakes.
type Automation interface {
	Ask(ctx context.Context, prompt string, cfg chatgpt.WaitConfig) (string, error)
	GetResponse(ctx context.Context, baseline string, cfg chatgpt.WaitConfig) (string, error)
	StartNewChat(ctx context.Context) (string, error)
	ReadScreen(ctx context.Context) string
	DumpControls(ctx context.Context) ([]chatgpt.Control, error)
}

// MCPServer dispatches MCP requests to the ChatGPT automation client.
type MCPServer struct {
	client Automation
	cfg    *config.Config
	logger *zap.Logger
	audit  *AuditLogger
	ctx    context.Context
	cancel context.CancelFunc
	tools  map[string]*Tool
	mu     sync.RWMutex
}

// Tool represents an MCP tool
type Tool struct {
	Handler     func(*ToolCall) (*ToolResult, error)
	InputSchema map[string]interface{}
	Name        string
	Description string
}

// ToolCall represents a tool call request
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult represents a tool call result
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content represents a content item in a tool result
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// NewMCPServer creates an MCP server around the given automation client.
// A nil logger disables logging.
func NewMCPServer(cfg *config.Config, client Automation, logger *zap.Logger) (*MCPServer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	audit, err := NewAuditLogger(cfg.AuditLogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &MCPServer{
		client: client,
		cfg:    cfg,
		logger: logger,
		audit:  audit,
		ctx:    ctx,
		cancel: cancel,
	}
	s.registerTools()
	return s, nil
}

// Shutdown cancels in-flight handlers and closes the audit log.
func (s *MCPServer) Shutdown() {
	s.logger.Info("shutting down MCP server")
	s.cancel()
	if err := s.audit.Close(); err != nil {
		s.logger.Warn("failed to close audit log", zap.Error(err))
	}
}

// waitConfig builds the conversation wait tuning from config.
func (s *MCPServer) waitConfig() chatgpt.WaitConfig {
	interval, max, cycles := s.cfg.WaitSettings()
	return chatgpt.WaitConfig{
		Interval:     interval,
		MaxWait:      max,
		StableCycles: cycles,
	}
}

// registerTools registers all available tools
func (s *MCPServer) registerTools() {
	s.tools = map[string]*Tool{
		"ask_chatgpt": {
			Name:        "ask_chatgpt",
			Description: "Send a prompt to ChatGPT and return the response",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"prompt": map[string]interface{}{
						"type":        "string",
						"description": "The text to send to ChatGPT",
					},
				},
				"required": []string{"prompt"},
			},
			Handler: s.handleAskChatGPT,
		},
		"get_chatgpt_response": {
			Name:        "get_chatgpt_response",
			Description: "Get the latest response from ChatGPT after sending a message",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
			Handler: s.handleGetResponse,
		},
		"new_chatgpt_chat": {
			Name:        "new_chatgpt_chat",
			Description: "Start a new chat conversation in ChatGPT",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
			Handler: s.handleNewChat,
		},
		"read_screen": {
			Name:        "read_screen",
			Description: "Read the ChatGPT window once and return the raw UI snapshot JSON",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
			Handler: s.handleReadScreen,
		},
		"dump_controls": {
			Name:        "dump_controls",
			Description: "List every control in the ChatGPT window with its role and accessible name (locale triage)",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
			Handler: s.handleDumpControls,
		},
	}
}

// Serve starts serving MCP requests on the given transport until the
// transport drains or the server shuts down.
func (s *MCPServer) Serve(tr transport.Transport) error {
	s.logger.Info("MCP server starting")

	type servable interface {
		Serve(handler func(*transport.Message) (*transport.Message, error)) error
	}
	srv, ok := tr.(servable)
	if !ok {
		return fmt.Errorf("transport does not support serving")
	}
	return srv.Serve(s.HandleMessage)
}

// HandleMessage dispatches a single MCP message and returns the response,
// or nil for notifications.
func (s *MCPServer) HandleMessage(msg *transport.Message) (*transport.Message, error) {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg), nil
	case "notifications/initialized":
		return nil, nil
	case "tools/list":
		return s.handleToolsList(msg), nil
	case "tools/call":
		return s.handleToolsCall(msg), nil
	default:
		return transport.NewError(msg.ID, transport.ErrCodeMethodNotFound,
			fmt.Sprintf("Method not found: %s", msg.Method)), nil
	}
}

func (s *MCPServer) handleInitialize(msg *transport.Message) *transport.Message {
	result := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]interface{}{"tools": map[string]interface{}{}},
		"serverInfo": map[string]interface{}{
			"name":    "chatgpt-use-mcp",
			"version": "0.1.0",
		},
	}
	raw, _ := json.Marshal(result)
	return &transport.Message{JSONRPC: "2.0", ID: msg.ID, Result: raw}
}

func (s *MCPServer) handleToolsList(msg *transport.Message) *transport.Message {
	s.mu.RLock()
	tools := make([]map[string]interface{}, 0, len(s.tools))
	for _, tool := range s.tools {
		tools = append(tools, map[string]interface{}{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		})
	}
	s.mu.RUnlock()

	raw, _ := json.Marshal(map[string]interface{}{"tools": tools})
	return &transport.Message{JSONRPC: "2.0", ID: msg.ID, Result: raw}
}

func (s *MCPServer) handleToolsCall(msg *transport.Message) *transport.Message {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return transport.NewError(msg.ID, transport.ErrCodeInvalidRequest,
			fmt.Sprintf("Invalid request: %v", err))
	}

	s.mu.RLock()
	tool, exists := s.tools[params.Name]
	s.mu.RUnlock()
	if !exists {
		return transport.NewError(msg.ID, transport.ErrCodeMethodNotFound,
			fmt.Sprintf("Tool not found: %s", params.Name))
	}

	if errMsg := validateToolInput(tool, params.Arguments); errMsg != nil {
		errMsg.ID = msg.ID
		return errMsg
	}

	start := time.Now()
	result, err := tool.Handler(&ToolCall{Name: params.Name, Arguments: params.Arguments})
	duration := time.Since(start)

	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case result != nil && result.IsError:
		status = "tool_error"
	}
	s.audit.LogToolCall(params.Name, params.Arguments, status, duration)
	s.logger.Debug("tool call finished",
		zap.String("tool", params.Name),
		zap.String("status", status),
		zap.Duration("duration", duration))

	if err != nil {
		return transport.NewError(msg.ID, transport.ErrCodeInternalError, err.Error())
	}

	resultMap := map[string]interface{}{"content": result.Content}
	if result.IsError {
		resultMap["isError"] = true
	}
	raw, _ := json.Marshal(resultMap)
	return &transport.Message{JSONRPC: "2.0", ID: msg.ID, Result: raw}
}
