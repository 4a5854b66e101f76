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

func definitionsTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("get_definitions",
		mcp.WithDescription("List the definition locations of a symbol"),
		mcp.WithString("filePath", mcp.Required()),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("1-based line the symbol appears on")),
		mcp.WithString("symbolName", mcp.Required()),
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
			params := protocol.DefinitionParams{TextDocumentPositionParams: protocol.TextDocumentPositionParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
				Position:     protocol.Position{Line: line, Character: character},
			}}
			if callErr := entry.Process.Client.Call(ctx, protocol.MethodTextDocumentDefinition, params, &locations, entry.Profile.OperationTimeout); callErr != nil {
				return nil, callErr
			}
			return locations, nil
		})
		if err != nil {
			return toolError(err), nil
		}

		locations := result.([]protocol.Location)
		if len(locations) == 0 {
			return toolText(fmt.Sprintf("no definitions found for %q", symbolName)), nil
		}
		lines := make([]string, 0, len(locations))
		for _, loc := range locations {
			lines = append(lines, formatLocation(root, loc.URI, loc.Range.Start))
		}
		return toolText(strings.Join(lines, "\n")), nil
	}}
}
