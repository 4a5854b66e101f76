package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.lsp.dev/protocol"

	"github.com/lsmcp-dev/lsmcp/internal/edits"
	"github.com/lsmcp-dev/lsmcp/internal/pool"
)

func formatOptions(req mcp.CallToolRequest) protocol.FormattingOptions {
	tabSize := uint32(2)
	if args := req.GetArguments(); args["tabSize"] != nil {
		if v, ok := args["tabSize"].(float64); ok {
			tabSize = uint32(v)
		}
	}
	insertSpaces := true
	if args := req.GetArguments(); args["insertSpaces"] != nil {
		if v, ok := args["insertSpaces"].(bool); ok {
			insertSpaces = v
		}
	}
	return protocol.FormattingOptions{"tabSize": float64(tabSize), "insertSpaces": insertSpaces}
}

func formatDocumentTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("format_document",
		mcp.WithDescription("Format an entire file, applying the server's formatting edits"),
		mcp.WithString("filePath", mcp.Required()),
		mcp.WithNumber("tabSize", mcp.Description("Spaces per indent level, default 2")),
		mcp.WithBoolean("insertSpaces", mcp.Description("Use spaces instead of tabs, default true")),
		mcp.WithString("root", mcp.Description("Project root; detected from filePath if omitted")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := requiredString(req, "filePath")
		if err != nil {
			return toolError(err), nil
		}
		root := resolveRoot(req, deps, filePath)
		language, err := resolveLanguage(deps, filePath)
		if err != nil {
			return toolError(err), nil
		}
		options := formatOptions(req)

		result, err := deps.Orchestrator.Run(ctx, language, root, filePath, func(ctx context.Context, entry *pool.Entry, docURI protocol.DocumentURI) (any, error) {
			var edits []protocol.TextEdit
			params := protocol.DocumentFormattingParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
				Options:      options,
			}
			if callErr := entry.Process.Client.Call(ctx, protocol.MethodTextDocumentFormatting, params, &edits, entry.Profile.OperationTimeout); callErr != nil {
				return nil, callErr
			}
			return edits, nil
		})
		if err != nil {
			return toolError(err), nil
		}

		edgeList := result.([]protocol.TextEdit)
		if len(edgeList) == 0 {
			return toolText("already formatted, no changes"), nil
		}
		if applyErr := edits.ApplyToFile(filePath, edgeList); applyErr != nil {
			return toolError(applyErr), nil
		}
		return toolText(fmt.Sprintf("applied %d formatting edit(s) to %s", len(edgeList), relativePath(root, filePath))), nil
	}}
}

func formatRangeTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("format_range",
		mcp.WithDescription("Format a line range within a file"),
		mcp.WithString("filePath", mcp.Required()),
		mcp.WithNumber("startLine", mcp.Required(), mcp.Description("1-based start line")),
		mcp.WithNumber("endLine", mcp.Required(), mcp.Description("1-based end line")),
		mcp.WithNumber("tabSize", mcp.Description("Spaces per indent level, default 2")),
		mcp.WithBoolean("insertSpaces", mcp.Description("Use spaces instead of tabs, default true")),
		mcp.WithString("root", mcp.Description("Project root; detected from filePath if omitted")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := requiredString(req, "filePath")
		if err != nil {
			return toolError(err), nil
		}
		startLine, err := requiredOneBasedLine(req, "startLine")
		if err != nil {
			return toolError(err), nil
		}
		endLine, err := requiredOneBasedLine(req, "endLine")
		if err != nil {
			return toolError(err), nil
		}
		root := resolveRoot(req, deps, filePath)
		language, err := resolveLanguage(deps, filePath)
		if err != nil {
			return toolError(err), nil
		}
		options := formatOptions(req)

		result, err := deps.Orchestrator.Run(ctx, language, root, filePath, func(ctx context.Context, entry *pool.Entry, docURI protocol.DocumentURI) (any, error) {
			var textEdits []protocol.TextEdit
			params := protocol.DocumentRangeFormattingParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
				Range:        protocol.Range{Start: protocol.Position{Line: startLine}, End: protocol.Position{Line: endLine + 1}},
				Options:      options,
			}
			if callErr := entry.Process.Client.Call(ctx, protocol.MethodTextDocumentRangeFormatting, params, &textEdits, entry.Profile.OperationTimeout); callErr != nil {
				return nil, callErr
			}
			return textEdits, nil
		})
		if err != nil {
			return toolError(err), nil
		}

		edgeList := result.([]protocol.TextEdit)
		if len(edgeList) == 0 {
			return toolText("already formatted, no changes"), nil
		}
		if applyErr := edits.ApplyToFile(filePath, edgeList); applyErr != nil {
			return toolError(applyErr), nil
		}
		return toolText(fmt.Sprintf("applied %d formatting edit(s) to %s:%d-%d", len(edgeList), relativePath(root, filePath), startLine+1, endLine+1)), nil
	}}
}
