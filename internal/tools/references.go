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

func referencesTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("find_references",
		mcp.WithDescription("List every reference to a symbol, with surrounding context"),
		mcp.WithString("filePath", mcp.Required()),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("1-based line the symbol appears on")),
		mcp.WithString("symbolName", mcp.Required(), mcp.Description("Name of the symbol on that line")),
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
		symbolName, err := requiredString(req, "symbolName")
		if err != nil {
			return toolError(err), nil
		}
		character, err := resolveCharacterOnLine(filePath, line, symbolName)
		if err != nil {
			return toolError(err), nil
		}
		root := resolveRoot(req, deps, filePath)
		language, err := resolveLanguage(deps, filePath)
		if err != nil {
			return toolError(err), nil
		}

		result, err := deps.Orchestrator.Run(ctx, language, root, filePath, func(ctx context.Context, entry *pool.Entry, docURI protocol.DocumentURI) (any, error) {
			var locations []protocol.Location
			params := protocol.ReferenceParams{
				TextDocumentPositionParams: protocol.TextDocumentPositionParams{
					TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
					Position:     protocol.Position{Line: line, Character: character},
				},
				Context: protocol.ReferenceContext{IncludeDeclaration: true},
			}
			if callErr := entry.Process.Client.Call(ctx, protocol.MethodTextDocumentReferences, params, &locations, entry.Profile.OperationTimeout); callErr != nil {
				return nil, callErr
			}
			return locations, nil
		})
		if err != nil {
			return toolError(err), nil
		}

		locations := result.([]protocol.Location)
		if len(locations) == 0 {
			return toolText(fmt.Sprintf("no references found for %q", symbolName)), nil
		}

		var b strings.Builder
		for _, loc := range locations {
			path := uriToPath(loc.URI)
			fmt.Fprintf(&b, "%s\n", formatLocation(root, loc.URI, loc.Range.Start))
			if preview, previewErr := contextPreview(path, loc.Range.Start.Line, 1); previewErr == nil {
				fmt.Fprintf(&b, "%s\n\n", preview)
			}
		}
		return toolText(strings.TrimRight(b.String(), "\n")), nil
	}}
}
