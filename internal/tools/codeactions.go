package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.lsp.dev/protocol"

	"github.com/lsmcp-dev/lsmcp/internal/pool"
)

func codeActionsTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("get_code_actions",
		mcp.WithDescription("List available code actions (quick fixes, refactors) over a range"),
		mcp.WithString("filePath", mcp.Required()),
		mcp.WithNumber("startLine", mcp.Required(), mcp.Description("1-based start line")),
		mcp.WithNumber("endLine", mcp.Description("1-based end line; defaults to startLine")),
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
		endLine := startLine
		if args := req.GetArguments(); args["endLine"] != nil {
			endLine, err = requiredOneBasedLine(req, "endLine")
			if err != nil {
				return toolError(err), nil
			}
		}
		root := resolveRoot(req, deps, filePath)
		language, err := resolveLanguage(deps, filePath)
		if err != nil {
			return toolError(err), nil
		}

		result, err := deps.Orchestrator.Run(ctx, language, root, filePath, func(ctx context.Context, entry *pool.Entry, docURI protocol.DocumentURI) (any, error) {
			rng := protocol.Range{Start: protocol.Position{Line: startLine}, End: protocol.Position{Line: endLine}}
			params := protocol.CodeActionParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
				Range:        rng,
				Context:      protocol.CodeActionContext{Diagnostics: entry.Diagnostics.Get(docURI)},
			}
			var rawActions []json.RawMessage
			if callErr := entry.Process.Client.Call(ctx, protocol.MethodTextDocumentCodeAction, params, &rawActions, entry.Profile.OperationTimeout); callErr != nil {
				return nil, callErr
			}
			return decodeCodeActions(rawActions), nil
		})
		if err != nil {
			return toolError(err), nil
		}

		actions := result.([]protocol.CodeAction)
		if len(actions) == 0 {
			return toolText("no code actions available"), nil
		}
		lines := make([]string, 0, len(actions))
		for _, a := range actions {
			if a.Kind != "" {
				lines = append(lines, fmt.Sprintf("[%s] %s", a.Kind, a.Title))
			} else {
				lines = append(lines, a.Title)
			}
		}
		return toolText(strings.Join(lines, "\n")), nil
	}}
}

// decodeCodeActions best-effort decodes a textDocument/codeAction result,
// tolerating servers that return bare Command objects instead of the
// CodeAction literal the broker's capabilities request advertises support
// for.
func decodeCodeActions(raw []json.RawMessage) []protocol.CodeAction {
	actions := make([]protocol.CodeAction, 0, len(raw))
	for _, r := range raw {
		var a protocol.CodeAction
		if err := json.Unmarshal(r, &a); err == nil && a.Title != "" {
			actions = append(actions, a)
		}
	}
	return actions
}
