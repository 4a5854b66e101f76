package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.lsp.dev/protocol"

	"github.com/lsmcp-dev/lsmcp/internal/cli/ui"
	"github.com/lsmcp-dev/lsmcp/internal/symbolindex"
)

func searchSymbolsTool(deps Deps) mcpserver.ServerTool {
	tool := mcp.NewTool("search_symbols",
		mcp.WithDescription("Search the in-memory workspace symbol index"),
		mcp.WithString("name", mcp.Description("Exact-then-substring name filter")),
		mcp.WithString("kind", mcp.Description("Symbol kind filter, e.g. function, class, struct")),
		mcp.WithString("containerName", mcp.Description("Filter to symbols declared within this container")),
		mcp.WithString("file", mcp.Description("Filter to symbols declared in this file")),
		mcp.WithBoolean("includeChildren", mcp.Description("Include container-scoped child symbols in output")),
		mcp.WithBoolean("includeExternal", mcp.Description("Include symbols from external/vendored libraries")),
		mcp.WithBoolean("onlyExternal", mcp.Description("Only return symbols from external/vendored libraries")),
		mcp.WithString("sourceLibrary", mcp.Description("Filter external symbols to those whose file path mentions this library")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := symbolindex.Query{
			Name:            optionalString(req, "name"),
			IncludeExternal: optionalBool(req, "includeExternal"),
			OnlyExternal:    optionalBool(req, "onlyExternal"),
		}
		if kindName := optionalString(req, "kind"); kindName != "" {
			if kind, ok := kindFromLabel(kindName); ok {
				q.Kinds = []protocol.SymbolKind{kind}
			} else if best := ui.FindBestMatch(kindName, knownKindLabels(), nil); best != "" {
				return toolError(fmt.Errorf("unknown symbol kind %q (did you mean %q?)", kindName, best)), nil
			} else {
				return toolError(fmt.Errorf("unknown symbol kind %q", kindName)), nil
			}
		}

		results := deps.Index.Query(q)
		filtered := filterSearchResults(results, searchFilters{
			container:       optionalString(req, "containerName"),
			file:            optionalString(req, "file"),
			library:         optionalString(req, "sourceLibrary"),
			includeChildren: optionalBool(req, "includeChildren"),
		})

		if len(filtered) == 0 {
			return toolText("no symbols matched"), nil
		}

		byFile := make(map[string][]*symbolindex.Symbol)
		var order []string
		for _, s := range filtered {
			if _, seen := byFile[s.File]; !seen {
				order = append(order, s.File)
			}
			byFile[s.File] = append(byFile[s.File], s)
		}

		var b strings.Builder
		for _, file := range order {
			fmt.Fprintf(&b, "%s\n", file)
			for _, s := range byFile[file] {
				label := fmt.Sprintf("  [%s] %s", symbolKindLabel(s.Kind), s.Name)
				if s.Container != "" {
					label += " (in " + s.Container + ")"
				}
				if s.External {
					label += " [external]"
				}
				fmt.Fprintf(&b, "%s\n", label)
			}
		}
		return toolText(strings.TrimRight(b.String(), "\n")), nil
	}}
}

// searchFilters holds search_symbols' post-query narrowing options.
type searchFilters struct {
	container       string
	file            string
	library         string
	includeChildren bool
}

// filterSearchResults narrows results by container, file, and source
// library, and drops container-scoped child symbols unless
// includeChildren is set, matching documentSymbol's distinction between
// top-level declarations and the members nested under them.
func filterSearchResults(results []*symbolindex.Symbol, f searchFilters) []*symbolindex.Symbol {
	filtered := results[:0]
	for _, s := range results {
		if f.container != "" && !strings.EqualFold(s.Container, f.container) {
			continue
		}
		if f.file != "" && s.File != f.file {
			continue
		}
		if f.library != "" && !strings.Contains(s.File, f.library) {
			continue
		}
		if f.container == "" && !f.includeChildren && s.Container != "" {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

func kindFromLabel(label string) (protocol.SymbolKind, bool) {
	kinds := map[string]protocol.SymbolKind{
		"file": protocol.SymbolKindFile, "module": protocol.SymbolKindModule,
		"namespace": protocol.SymbolKindNamespace, "package": protocol.SymbolKindPackage,
		"class": protocol.SymbolKindClass, "method": protocol.SymbolKindMethod,
		"property": protocol.SymbolKindProperty, "field": protocol.SymbolKindField,
		"constructor": protocol.SymbolKindConstructor, "enum": protocol.SymbolKindEnum,
		"interface": protocol.SymbolKindInterface, "function": protocol.SymbolKindFunction,
		"variable": protocol.SymbolKindVariable, "constant": protocol.SymbolKindConstant,
		"struct": protocol.SymbolKindStruct, "enum_member": protocol.SymbolKindEnumMember,
		"type_parameter": protocol.SymbolKindTypeParameter,
	}
	k, ok := kinds[strings.ToLower(label)]
	return k, ok
}

func knownKindLabels() []string {
	return []string{
		"file", "module", "namespace", "package", "class", "method",
		"property", "field", "constructor", "enum", "interface", "function",
		"variable", "constant", "struct", "enum_member", "type_parameter",
	}
}
