package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.lsp.dev/protocol"

	"github.com/lsmcp-dev/lsmcp/internal/pool"
)

func signatureHelpTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("get_signature_help",
		mcp.WithDescription("Show the active call signature at a location, with the active parameter marked"),
		mcp.WithString("filePath", mcp.Required()),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("1-based line number")),
		mcp.WithString("target", mcp.Description("Substring on the line to resolve a column from; defaults to the open paren")),
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
		target := optionalString(req, "target")
		if target == "" {
			target = "("
		}
		character, err := resolveCharacterOnLine(filePath, line, target)
		if err != nil {
			return toolError(err), nil
		}
		root := resolveRoot(req, deps, filePath)
		language, err := resolveLanguage(deps, filePath)
		if err != nil {
			return toolError(err), nil
		}

		result, err := deps.Orchestrator.Run(ctx, language, root, filePath, func(ctx context.Context, entry *pool.Entry, docURI protocol.DocumentURI) (any, error) {
			var help protocol.SignatureHelp
			params := protocol.SignatureHelpParams{TextDocumentPositionParams: protocol.TextDocumentPositionParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
				Position:     protocol.Position{Line: line, Character: character},
			}}
			if callErr := entry.Process.Client.Call(ctx, protocol.MethodTextDocumentSignatureHelp, params, &help, entry.Profile.OperationTimeout); callErr != nil {
				return nil, callErr
			}
			return &help, nil
		})
		if err != nil {
			return toolError(err), nil
		}

		help := result.(*protocol.SignatureHelp)
		if len(help.Signatures) == 0 {
			return toolText("no signature help available"), nil
		}
		active := int(help.ActiveSignature)
		if active >= len(help.Signatures) {
			active = 0
		}
		sig := help.Signatures[active]
		params := make([]string, len(sig.Parameters))
		for i, p := range sig.Parameters {
			params[i] = fmt.Sprint(p.Label)
		}
		return toolText(highlightParameter(sig.Label, params, int(sig.ActiveParameter))), nil
	}}
}
