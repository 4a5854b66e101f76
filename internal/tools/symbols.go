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

func documentSymbolsTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("get_document_symbols",
		mcp.WithDescription("Show the symbol tree of a file"),
		mcp.WithString("filePath", mcp.Required()),
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

		result, err := deps.Orchestrator.Run(ctx, language, root, filePath, func(ctx context.Context, entry *pool.Entry, docURI protocol.DocumentURI) (any, error) {
			var symbols []protocol.DocumentSymbol
			params := protocol.DocumentSymbolParams{TextDocument: protocol.TextDocumentIdentifier{URI: docURI}}
			if callErr := entry.Process.Client.Call(ctx, protocol.MethodTextDocumentDocumentSymbol, params, &symbols, entry.Profile.OperationTimeout); callErr != nil {
				return nil, callErr
			}
			return symbols, nil
		})
		if err != nil {
			return toolError(err), nil
		}

		symbols := result.([]protocol.DocumentSymbol)
		if len(symbols) == 0 {
			return toolText("no symbols found"), nil
		}
		var b strings.Builder
		renderSymbolTree(&b, symbols, 0)
		return toolText(strings.TrimRight(b.String(), "\n")), nil
	}}
}

func renderSymbolTree(b *strings.Builder, symbols []protocol.DocumentSymbol, depth int) {
	for _, s := range symbols {
		fmt.Fprintf(b, "%s[%s] %s (line %d)\n", strings.Repeat("  ", depth), symbolKindLabel(s.Kind), s.Name, s.SelectionRange.Start.Line+1)
		renderSymbolTree(b, s.Children, depth+1)
	}
}

func workspaceSymbolsTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("get_workspace_symbols",
		mcp.WithDescription("Search for symbols by name across the whole project"),
		mcp.WithString("query", mcp.Required()),
		mcp.WithString("root", mcp.Description("Project root; used to pick which pooled server to query")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := requiredString(req, "query")
		if err != nil {
			return toolError(err), nil
		}
		root := optionalString(req, "root")
		language := deps.Config.ForceLanguage
		if language == "" {
			language = "go"
		}

		result, err := deps.Orchestrator.RunWithoutDocument(ctx, language, root, func(ctx context.Context, entry *pool.Entry) (any, error) {
			var symbols []protocol.SymbolInformation
			params := protocol.WorkspaceSymbolParams{Query: query}
			if callErr := entry.Process.Client.Call(ctx, protocol.MethodWorkspaceSymbol, params, &symbols, entry.Profile.OperationTimeout); callErr != nil {
				return nil, callErr
			}
			return symbols, nil
		})
		if err != nil {
			return toolError(err), nil
		}

		symbols := result.([]protocol.SymbolInformation)
		if len(symbols) == 0 {
			return toolText(fmt.Sprintf("no symbols matching %q", query)), nil
		}

		byFile := make(map[string][]protocol.SymbolInformation)
		var order []string
		for _, s := range symbols {
			path := uriToPath(s.Location.URI)
			if _, seen := byFile[path]; !seen {
				order = append(order, path)
			}
			byFile[path] = append(byFile[path], s)
		}

		var b strings.Builder
		for _, path := range order {
			fmt.Fprintf(&b, "%s\n", relativePath(root, path))
			for _, s := range byFile[path] {
				fmt.Fprintf(&b, "  [%s] %s:%d\n", symbolKindLabel(s.Kind), s.Name, s.Location.Range.Start.Line+1)
			}
		}
		return toolText(strings.TrimRight(b.String(), "\n")), nil
	}}
}

func symbolKindLabel(kind protocol.SymbolKind) string {
	labels := map[protocol.SymbolKind]string{
		protocol.SymbolKindFile: "file", protocol.SymbolKindModule: "module",
		protocol.SymbolKindNamespace: "namespace", protocol.SymbolKindPackage: "package",
		protocol.SymbolKindClass: "class", protocol.SymbolKindMethod: "method",
		protocol.SymbolKindProperty: "property", protocol.SymbolKindField: "field",
		protocol.SymbolKindConstructor: "constructor", protocol.SymbolKindEnum: "enum",
		protocol.SymbolKindInterface: "interface", protocol.SymbolKindFunction: "function",
		protocol.SymbolKindVariable: "variable", protocol.SymbolKindConstant: "constant",
		protocol.SymbolKindStruct: "struct", protocol.SymbolKindEnumMember: "enum_member",
		protocol.SymbolKindTypeParameter: "type_parameter",
	}
	if label, ok := labels[kind]; ok {
		return label
	}
	return "symbol"
}
