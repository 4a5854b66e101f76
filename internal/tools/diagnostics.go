package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.lsp.dev/protocol"

	"github.com/lsmcp-dev/lsmcp/internal/pool"
)

func diagnosticsTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("get_diagnostics",
		mcp.WithDescription("Collect diagnostics for a set of files, grouped by file"),
		mcp.WithArray("filePaths", mcp.Description("Explicit list of files to check")),
		mcp.WithString("pattern", mcp.Description("Glob pattern of files to check, used if filePaths is omitted")),
		mcp.WithString("root", mcp.Required(), mcp.Description("Project root")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		root, err := requiredString(req, "root")
		if err != nil {
			return toolError(err), nil
		}

		files, err := resolveFileList(req, root)
		if err != nil {
			return toolError(err), nil
		}
		if len(files) == 0 {
			return toolText("no files matched"), nil
		}

		var b strings.Builder
		totalDiags := 0
		for _, filePath := range files {
			language, langErr := resolveLanguage(deps, filePath)
			if langErr != nil {
				fmt.Fprintf(&b, "%s: %v\n", relativePath(root, filePath), langErr)
				continue
			}

			result, runErr := deps.Orchestrator.Run(ctx, language, root, filePath, func(ctx context.Context, entry *pool.Entry, docURI protocol.DocumentURI) (any, error) {
				return entry.Diagnostics.Pull(ctx, docURI, entry.Profile.OperationTimeout), nil
			})
			if runErr != nil {
				fmt.Fprintf(&b, "%s: error: %v\n", relativePath(root, filePath), runErr)
				continue
			}

			diags := result.([]protocol.Diagnostic)
			totalDiags += len(diags)
			fmt.Fprintf(&b, "%s (%d)\n", relativePath(root, filePath), len(diags))
			for _, d := range diags {
				fmt.Fprintf(&b, "  %d:%d %s: %s\n", d.Range.Start.Line+1, d.Range.Start.Character+1, severityLabel(d.Severity), d.Message)
			}
		}
		fmt.Fprintf(&b, "\n%d diagnostic(s) across %d file(s)", totalDiags, len(files))
		return toolText(b.String()), nil
	}}
}

func resolveFileList(req mcp.CallToolRequest, root string) ([]string, error) {
	args := req.GetArguments()
	if raw, ok := args["filePaths"].([]any); ok {
		files := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				files = append(files, s)
			}
		}
		return files, nil
	}
	pattern := optionalString(req, "pattern")
	if pattern == "" {
		return nil, fmt.Errorf("either filePaths or pattern is required")
	}
	matches, err := filepath.Glob(filepath.Join(root, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return matches, nil
}

func severityLabel(sev protocol.DiagnosticSeverity) string {
	switch sev {
	case protocol.DiagnosticSeverityError:
		return "error"
	case protocol.DiagnosticSeverityWarning:
		return "warning"
	case protocol.DiagnosticSeverityInformation:
		return "info"
	case protocol.DiagnosticSeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}
