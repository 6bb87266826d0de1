// Copyright 2025 Minseo Park
//
// Helper functions for tool handlers

package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/minseopark/chatgpt-use-mcp/internal/transport"
)

// errorResult creates a ToolResult with IsError=true and the given message.
func errorResult(msg string) *ToolResult {
	return &ToolResult{
		IsError: true,
		Content: []Content{{Type: "text", Text: msg}},
	}
}

// errorResultf creates a ToolResult with IsError=true and a formatted message.
func errorResultf(format string, args ...any) *ToolResult {
	return errorResult(fmt.Sprintf(format, args...))
}

// textResult creates a ToolResult with a single text content.
func textResult(text string) *ToolResult {
	return &ToolResult{
		Content: []Content{{Type: "text", Text: text}},
	}
}

// textResultf creates a ToolResult with a formatted text content.
func textResultf(format string, args ...any) *ToolResult {
	return textResult(fmt.Sprintf(format, args...))
}

// validateToolInput validates raw JSON arguments against a tool's
// InputSchema: required fields present, value types matching, enum values in
// range. Extra properties are allowed. Returns a JSON-RPC invalid-params
// error (with the ID left for the caller to fill), or nil when valid.
func validateToolInput(tool *Tool, rawArgs json.RawMessage) *transport.Message {
	schema := tool.InputSchema
	if schema == nil {
		return nil
	}

	args := map[string]any{}
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return invalidParamsError(fmt.Sprintf("arguments must be an object: %v", err))
		}
	}

	for _, field := range requiredFields(schema) {
		if _, ok := args[field]; !ok {
			return invalidParamsError(fmt.Sprintf("missing required field: %s", field))
		}
	}

	properties := schemaProperties(schema)
	for name, value := range args {
		propSchema, ok := properties[name]
		if !ok {
			continue
		}
		if err := validateFieldValue(name, value, propSchema); err != nil {
			return invalidParamsError(err.Error())
		}
	}

	return nil
}

// invalidParamsError creates a JSON-RPC error response with ErrCodeInvalidParams.
func invalidParamsError(message string) *transport.Message {
	return transport.NewError(nil, transport.ErrCodeInvalidParams, message)
}

// requiredFields extracts the "required" array from a JSON schema.
func requiredFields(schema map[string]any) []string {
	switch required := schema["required"].(type) {
	case []string:
		return required
	case []any:
		fields := make([]string, 0, len(required))
		for _, v := range required {
			if s, ok := v.(string); ok {
				fields = append(fields, s)
			}
		}
		return fields
	default:
		return nil
	}
}

// schemaProperties extracts the "properties" map from a JSON schema.
func schemaProperties(schema map[string]any) map[string]map[string]any {
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	result := make(map[string]map[string]any, len(props))
	for k, v := range props {
		if propSchema, ok := v.(map[string]any); ok {
			result[k] = propSchema
		}
	}
	return result
}

// validateFieldValue validates a single field value against its property schema.
func validateFieldValue(name string, value any, propSchema map[string]any) error {
	if value == nil {
		return nil
	}

	if schemaType, ok := propSchema["type"].(string); ok {
		if err := validateType(name, value, schemaType); err != nil {
			return err
		}
	}
	return validateEnumValue(name, value, propSchema)
}

// validateType checks a value against a JSON Schema type name.
func validateType(name string, value any, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field %q must be a string, got %T", name, value)
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("field %q must be a number, got %T", name, value)
		}
	case "integer":
		// JSON numbers decode as float64; an integer must be a whole one.
		f, ok := value.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("field %q must be an integer, got %v", name, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %q must be a boolean, got %T", name, value)
		}
	case "array":
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("field %q must be an array, got %T", name, value)
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("field %q must be an object, got %T", name, value)
		}
	}
	return nil
}

// validateEnumValue checks a value against an "enum" list, when one exists.
func validateEnumValue(name string, value any, propSchema map[string]any) error {
	raw, ok := propSchema["enum"]
	if !ok {
		return nil
	}

	var allowed []string
	switch enum := raw.(type) {
	case []string:
		allowed = enum
	case []any:
		for _, v := range enum {
			if s, ok := v.(string); ok {
				allowed = append(allowed, s)
			}
		}
	default:
		return nil
	}

	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("field %q must be a string for enum validation, got %T", name, value)
	}
	for _, a := range allowed {
		if str == a {
			return nil
		}
	}
	return fmt.Errorf("field %q must be one of [%s], got %q", name, strings.Join(allowed, ", "), str)
}
