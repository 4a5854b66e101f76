package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.lsp.dev/protocol"

	"github.com/lsmcp-dev/lsmcp/internal/pool"
)

func completionTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("get_completion",
		mcp.WithDescription("List completion candidates at a location"),
		mcp.WithString("filePath", mcp.Required()),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("1-based line number")),
		mcp.WithNumber("character", mcp.Description("1-based column; omit to use target")),
		mcp.WithString("target", mcp.Description("Substring on the line to resolve a column from")),
		mcp.WithString("root", mcp.Description("Project root; detected from filePath if omitted")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := requiredString(req, "filePath")
		if err != nil {
			return toolError(err), nil
		}
		line, err := requiredOneBasedLine(req, "line")
		if err != nil {
			return toolError(err), nil
		}
		character, err := resolveCharacter(req, filePath, line)
		if err != nil {
			return toolError(err), nil
		}
		root := resolveRoot(req, deps, filePath)
		language, err := resolveLanguage(deps, filePath)
		if err != nil {
			return toolError(err), nil
		}

		result, err := deps.Orchestrator.Run(ctx, language, root, filePath, func(ctx context.Context, entry *pool.Entry, docURI protocol.DocumentURI) (any, error) {
			var list protocol.CompletionList
			params := protocol.CompletionParams{TextDocumentPositionParams: protocol.TextDocumentPositionParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
				Position:     protocol.Position{Line: line, Character: character},
			}}
			if callErr := entry.Process.Client.Call(ctx, protocol.MethodTextDocumentCompletion, params, &list, entry.Profile.OperationTimeout); callErr != nil {
				return nil, callErr
			}
			return list.Items, nil
		})
		if err != nil {
			return toolError(err), nil
		}

		items := result.([]protocol.CompletionItem)
		if len(items) == 0 {
			return toolText("no completions available"), nil
		}
		lines := make([]string, 0, len(items))
		for _, item := range items {
			if item.Detail != "" {
				lines = append(lines, fmt.Sprintf("%s — %s", item.Label, item.Detail))
			} else {
				lines = append(lines, item.Label)
			}
		}
		return toolText(strings.Join(lines, "\n")), nil
	}}
}
