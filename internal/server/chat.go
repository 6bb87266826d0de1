// Copyright 2025 Minseo Park
//
// Chat tool handlers

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// handleAskChatGPT handles the ask_chatgpt tool
func (s *MCPServer) handleAskChatGPT(call *ToolCall) (*ToolResult, error) {
	ctx, cancel := s.requestContext()
	defer cancel()

	var params struct {
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(call.Arguments, &params); err != nil {
		return errorResultf("Invalid parameters: %v", err), nil
	}
	if strings.TrimSpace(params.Prompt) == "" {
		return errorResult("prompt parameter is required"), nil
	}

	response, err := s.client.Ask(ctx, params.Prompt, s.waitConfig())
	if err != nil {
		return errorResultf("Failed to send message to ChatGPT: %v", err), nil
	}
	return textResult(response), nil
}

// handleGetResponse handles the get_chatgpt_response tool
func (s *MCPServer) handleGetResponse(call *ToolCall) (*ToolResult, error) {
	ctx, cancel := s.requestContext()
	defer cancel()

	response, err := s.client.GetResponse(ctx, "", s.waitConfig())
	if err != nil {
		return errorResultf("Failed to get response from ChatGPT: %v", err), nil
	}
	return textResult(response), nil
}

// handleNewChat handles the new_chatgpt_chat tool
func (s *MCPServer) handleNewChat(call *ToolCall) (*ToolResult, error) {
	ctx, cancel := s.requestContext()
	defer cancel()

	result, err := s.client.StartNewChat(ctx)
	if err != nil {
		return errorResultf("Failed to create new chat: %v", err), nil
	}
	return textResult(result), nil
}

// handleReadScreen handles the read_screen tool. The snapshot JSON is
// relayed byte-for-byte: its shape is a contract with callers that parse it.
func (s *MCPServer) handleReadScreen(call *ToolCall) (*ToolResult, error) {
	ctx, cancel := s.requestContext()
	defer cancel()

	return textResult(s.client.ReadScreen(ctx)), nil
}

// handleDumpControls handles the dump_controls tool
func (s *MCPServer) handleDumpControls(call *ToolCall) (*ToolResult, error) {
	ctx, cancel := s.requestContext()
	defer cancel()

	controls, err := s.client.DumpControls(ctx)
	if err != nil {
		return errorResultf("Failed to dump controls: %v", err), nil
	}
	if len(controls) == 0 {
		return textResult("No controls found in the ChatGPT window"), nil
	}

	var lines []string
	for i, ctrl := range controls {
		name := ctrl.Name
		if name == "" {
			name = "(unnamed)"
		}
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, ctrl.Role, name))
	}
	return textResultf("Found %d controls:\n%s", len(controls), strings.Join(lines, "\n")), nil
}

// requestContext derives the per-tool-call context with the configured
// request timeout.
func (s *MCPServer) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
}
