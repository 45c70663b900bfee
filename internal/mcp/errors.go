package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jonathan/module-builder/internal/validation"
)

// Error codes carried in failed tool results.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidBlueprint = "INVALID_BLUEPRINT"
	CodeCancelled        = "CANCELLED"
	CodeInternal         = "INTERNAL"
)

// RequestError reports tool arguments that cannot be acted on.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// errorCode classifies err for a tool result.
func errorCode(err error) string {
	var reqErr *RequestError
	var structural *validation.StructuralError
	switch {
	case errors.As(err, &reqErr):
		return CodeInvalidRequest
	case errors.As(err, &structural):
		return CodeInvalidBlueprint
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	default:
		return CodeInternal
	}
}

// errorResult creates an MCP error result. Internal failures are logged and
// reported without their message.
func errorResult(err error) *mcp.CallToolResult {
	code := errorCode(err)
	errorObj := map[string]any{"code": code, "message": err.Error()}
	if code == CodeInternal {
		log.Printf("MCP tool failed: %v", err)
		errorObj["message"] = "an internal error occurred"
	}
	var structural *validation.StructuralError
	if errors.As(err, &structural) {
		errorObj["details"] = structural.Errors
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
