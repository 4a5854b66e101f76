package tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/lsmcp-dev/lsmcp/internal/config"
	"github.com/lsmcp-dev/lsmcp/internal/orchestrator"
	"github.com/lsmcp-dev/lsmcp/internal/symbolindex"
)

// Deps are the shared collaborators every tool handler routes through.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Index        *symbolindex.Index
	Config       *config.Config
	Logger       *zap.Logger
}

// Register installs every tool in the dispatch table on mcpServer.
func Register(mcpServer *mcpserver.MCPServer, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	mcpServer.AddTools(
		hoverTool(deps),
		referencesTool(deps),
		definitionsTool(deps),
		diagnosticsTool(deps),
		renameTool(deps),
		deleteSymbolTool(deps),
		documentSymbolsTool(deps),
		workspaceSymbolsTool(deps),
		completionTool(deps),
		signatureHelpTool(deps),
		codeActionsTool(deps),
		formatDocumentTool(deps),
		formatRangeTool(deps),
		searchSymbolsTool(deps),
	)
}

// resolveRoot returns the tool call's explicit root argument if present,
// otherwise the nearest project marker ancestor of filePath.
func resolveRoot(req mcp.CallToolRequest, deps Deps, filePath string) string {
	if root := optionalString(req, "root"); root != "" {
		return root
	}
	return config.ProjectRoot(filePath)
}

// resolveLanguage picks the language for filePath, honoring a forced
// override
func resolveLanguage(deps Deps, filePath string) (string, error) {
	detected, ok := LanguageForFile(filePath)
	if !ok && deps.Config.ForceLanguage == "" {
		return "", fmt.Errorf("could not determine language for %s", filePath)
	}
	return deps.Config.ResolveLanguage(detected), nil
}
