package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.lsp.dev/protocol"

	"github.com/lsmcp-dev/lsmcp/internal/brokererr"
	"github.com/lsmcp-dev/lsmcp/internal/edits"
	"github.com/lsmcp-dev/lsmcp/internal/pool"
)

func deleteSymbolTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("delete_symbol",
		mcp.WithDescription("Delete a symbol's declaration, optionally also removing its references"),
		mcp.WithString("filePath", mcp.Required()),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("1-based line the symbol is declared on")),
		mcp.WithString("symbolName", mcp.Required()),
		mcp.WithBoolean("removeReferences", mcp.Description("Also delete every reference site's line")),
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
		removeReferences := optionalBool(req, "removeReferences")
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
			sym := findSymbolOnLine(symbols, symbolName, line)
			if sym == nil {
				return nil, &brokererr.Error{Kind: brokererr.KindSymbolNotFoundOnLine, Op: "delete_symbol", FilePath: filePath, Symbol: symbolName, Message: "symbol not found on the given line"}
			}

			var refs []protocol.Location
			if removeReferences {
				refParams := protocol.ReferenceParams{
					TextDocumentPositionParams: protocol.TextDocumentPositionParams{TextDocument: protocol.TextDocumentIdentifier{URI: docURI}, Position: sym.SelectionRange.Start},
					Context:                    protocol.ReferenceContext{IncludeDeclaration: false},
				}
				_ = entry.Process.Client.Call(ctx, protocol.MethodTextDocumentReferences, refParams, &refs, entry.Profile.OperationTimeout)
			}
			return deletePlan{symbol: *sym, references: refs}, nil
		})
		if err != nil {
			return toolError(err), nil
		}

		plan := result.(deletePlan)
		touched := map[string]bool{filePath: true}

		localEdits, otherFileRefs := planDeleteEdits(filePath, plan.symbol.Range, plan.references)
		if delErr := edits.ApplyToFile(filePath, localEdits); delErr != nil {
			return toolError(delErr), nil
		}

		for _, ref := range otherFileRefs {
			path := uriToPath(ref.URI)
			if delErr := edits.ApplyToFile(path, []protocol.TextEdit{{Range: wholeLine(ref.Range.Start.Line), NewText: ""}}); delErr == nil {
				touched[path] = true
			}
		}

		var b strings.Builder
		fmt.Fprintf(&b, "deleted %q from:\n", symbolName)
		for path := range touched {
			fmt.Fprintf(&b, "%s\n", relativePath(root, path))
		}
		return toolText(strings.TrimRight(b.String(), "\n")), nil
	}}
}

type deletePlan struct {
	symbol     protocol.DocumentSymbol
	references []protocol.Location
}

func findSymbolOnLine(symbols []protocol.DocumentSymbol, name string, line uint32) *protocol.DocumentSymbol {
	for i := range symbols {
		s := &symbols[i]
		if s.Name == name && s.SelectionRange.Start.Line == line {
			return s
		}
		if found := findSymbolOnLine(s.Children, name, line); found != nil {
			return found
		}
	}
	return nil
}

// planDeleteEdits splits a symbol's references into the edits to apply
// locally, in one ApplyToFile call alongside the declaration's own range,
// and the references that live in other files and need a file of their
// own. Same-file references are common (a function called from elsewhere
// in the same file it's declared in) and must not be dropped just because
// they share a file with the declaration.
func planDeleteEdits(filePath string, declRange protocol.Range, references []protocol.Location) ([]protocol.TextEdit, []protocol.Location) {
	seenLines := map[uint32]bool{declRange.Start.Line: true}
	localEdits := []protocol.TextEdit{{Range: declRange, NewText: ""}}
	var otherFileRefs []protocol.Location
	for _, ref := range references {
		path := uriToPath(ref.URI)
		if path != filePath {
			otherFileRefs = append(otherFileRefs, ref)
			continue
		}
		line := ref.Range.Start.Line
		if seenLines[line] {
			continue
		}
		seenLines[line] = true
		localEdits = append(localEdits, protocol.TextEdit{Range: wholeLine(line), NewText: ""})
	}
	return localEdits, otherFileRefs
}

func wholeLine(line uint32) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: 0},
		End:   protocol.Position{Line: line + 1, Character: 0},
	}
}
