// Package tools implements the tool dispatch subsystem: one MCP tool per
// row of the tool table, each validating its arguments, routing through
// internal/orchestrator, and formatting a human-oriented text result.
package tools

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

var extensionLanguage = map[string]string{
	".ts":  "typescript",
	".tsx": "typescript",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".rs":  "rust",
	".py":  "pyright",
	".go":  "go",
}

// LanguageForFile guesses a language id from filePath's extension, used
// when a tool call's root doesn't carry an explicit language override.
func LanguageForFile(filePath string) (string, bool) {
	lang, ok := extensionLanguage[strings.ToLower(filepath.Ext(filePath))]
	return lang, ok
}

// requiredString extracts a required string argument.
func requiredString(req mcp.CallToolRequest, name string) (string, error) {
	args := req.GetArguments()
	v, ok := args[name].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// optionalString extracts an optional string argument, returning "" if
// absent or of the wrong type.
func optionalString(req mcp.CallToolRequest, name string) string {
	args := req.GetArguments()
	v, _ := args[name].(string)
	return v
}

// optionalBool extracts an optional boolean argument, defaulting to false.
func optionalBool(req mcp.CallToolRequest, name string) bool {
	args := req.GetArguments()
	v, _ := args[name].(bool)
	return v
}

// requiredOneBasedLine extracts a required 1-based line argument and
// converts it to the 0-based line LSP positions use. Line arguments are
// always 1-based; other coordinates in tool output match the caller's
// file, which is also 1-based.
func requiredOneBasedLine(req mcp.CallToolRequest, name string) (uint32, error) {
	args := req.GetArguments()
	switch v := args[name].(type) {
	case float64:
		if v < 1 {
			return 0, fmt.Errorf("%s must be a positive 1-based line number", name)
		}
		return uint32(v) - 1, nil
	default:
		return 0, fmt.Errorf("%s is required and must be a number", name)
	}
}

// optionalOneBasedCharacter extracts an optional 1-based character column,
// returning ok=false when absent so callers can fall back to a
// target-substring search across the line.
func optionalOneBasedCharacter(req mcp.CallToolRequest, name string) (uint32, bool) {
	args := req.GetArguments()
	v, ok := args[name].(float64)
	if !ok || v < 1 {
		return 0, false
	}
	return uint32(v) - 1, true
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

func toolText(text string) *mcp.CallToolResult {
	return mcp.NewToolResultText(text)
}
