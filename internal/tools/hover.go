package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.lsp.dev/protocol"

	"github.com/lsmcp-dev/lsmcp/internal/pool"
)

func hoverTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("get_hover",
		mcp.WithDescription("Show the signature and documentation for the symbol at a location"),
		mcp.WithString("filePath", mcp.Required(), mcp.Description("File containing the symbol")),
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
			var hover protocol.Hover
			params := protocol.HoverParams{TextDocumentPositionParams: protocol.TextDocumentPositionParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
				Position:     protocol.Position{Line: line, Character: character},
			}}
			if callErr := entry.Process.Client.Call(ctx, protocol.MethodTextDocumentHover, params, &hover, entry.Profile.OperationTimeout); callErr != nil {
				return nil, callErr
			}
			return &hover, nil
		})
		if err != nil {
			return toolError(err), nil
		}

		hover := result.(*protocol.Hover)
		if hover.Contents.Value == "" {
			return toolText("no hover information available"), nil
		}
		return toolText(hover.Contents.Value), nil
	}}
}

// resolveCharacter returns an explicit character argument if present,
// otherwise resolves one from a required "target" substring on line.
func resolveCharacter(req mcp.CallToolRequest, filePath string, line uint32) (uint32, error) {
	if character, ok := optionalOneBasedCharacter(req, "character"); ok {
		return character, nil
	}
	target := optionalString(req, "target")
	if target == "" {
		return 0, fmt.Errorf("either character or target is required")
	}
	return resolveCharacterOnLine(filePath, line, target)
}
