package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.lsp.dev/protocol"

	"github.com/lsmcp-dev/lsmcp/internal/edits"
	"github.com/lsmcp-dev/lsmcp/internal/pool"
	"github.com/lsmcp-dev/lsmcp/internal/symbolindex"
)

func renameTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("rename_symbol",
		mcp.WithDescription("Rename a symbol everywhere it is used"),
		mcp.WithString("filePath", mcp.Required()),
		mcp.WithNumber("line", mcp.Description("1-based line target appears on; resolved from the index if omitted")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Current symbol name")),
		mcp.WithString("newName", mcp.Required()),
		mcp.WithString("root", mcp.Description("Project root; detected from filePath if omitted")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := requiredString(req, "filePath")
		if err != nil {
			return toolError(err), nil
		}
		target, err := requiredString(req, "target")
		if err != nil {
			return toolError(err), nil
		}
		newName, err := requiredString(req, "newName")
		if err != nil {
			return toolError(err), nil
		}

		var line uint32
		if args := req.GetArguments(); args["line"] != nil {
			line, err = requiredOneBasedLine(req, "line")
			if err != nil {
				return toolError(err), nil
			}
		} else if matches := deps.Index.Query(symbolindex.Query{Name: target}); len(matches) > 0 && matches[0].File == filePath {
			line = matches[0].Range.Start.Line
		} else {
			return toolError(fmt.Errorf("line is required when %q is not already indexed in %s", target, filePath)), nil
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
			var edit protocol.WorkspaceEdit
			params := protocol.RenameParams{
				TextDocumentPositionParams: protocol.TextDocumentPositionParams{
					TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
					Position:     protocol.Position{Line: line, Character: character},
				},
				NewName: newName,
			}
			if callErr := entry.Process.Client.Call(ctx, protocol.MethodTextDocumentRename, params, &edit, entry.Profile.OperationTimeout); callErr != nil {
				return nil, callErr
			}
			return &edit, nil
		})
		if err != nil {
			return toolError(err), nil
		}

		edit := result.(*protocol.WorkspaceEdit)
		changes, applyErr := edits.ApplyWorkspaceEdit(*edit)
		if applyErr != nil {
			return toolError(applyErr), nil
		}
		return toolText(renderRenameResult(root, target, newName, changes)), nil
	}}
}

// renderRenameResult formats a rename_symbol tool response from the files
// and occurrences a workspace edit actually touched.
func renderRenameResult(root, target, newName string, changes []edits.FileChange) string {
	if len(changes) == 0 {
		return fmt.Sprintf("no changes: %q not found or rename rejected by server", target)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%q -> %q\n", target, newName)
	total := 0
	for _, c := range changes {
		total += len(c.Occurrences)
		fmt.Fprintf(&b, "%s (%d occurrence(s))\n", relativePath(root, c.Path), len(c.Occurrences))
	}
	fmt.Fprintf(&b, "%d file(s) changed, %d occurrence(s)", len(changes), total)
	return b.String()
}
