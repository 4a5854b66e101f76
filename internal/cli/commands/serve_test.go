package commands

import (
	"testing"

	"go.lsp.dev/protocol"

	"github.com/lsmcp-dev/lsmcp/internal/config"
)

func TestLanguageNamesListsConfiguredLanguages(t *testing.T) {
	cfg := &config.Config{Languages: map[string]config.LanguageConfig{
		"go":   {},
		"rust": {},
	}}
	names := languageNames(cfg)
	if len(names) != 2 {
		t.Fatalf("languageNames() = %v, want 2 entries", names)
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["go"] || !seen["rust"] {
		t.Errorf("languageNames() = %v, want go and rust", names)
	}
}

func TestFlattenSymbolsTopLevelOnly(t *testing.T) {
	docSymbols := []protocol.DocumentSymbol{
		{Name: "Foo", Kind: protocol.SymbolKindFunction},
		{Name: "Bar", Kind: protocol.SymbolKindFunction},
	}
	got := flattenSymbols(docSymbols, "main.go", "", false)
	if len(got) != 2 {
		t.Fatalf("flattenSymbols() returned %d symbols, want 2", len(got))
	}
	if got[0].Name != "Foo" || got[0].File != "main.go" || got[0].Container != "" {
		t.Errorf("flattenSymbols()[0] = %+v, want Name=Foo File=main.go Container=\"\"", got[0])
	}
	if got[0].External {
		t.Error("flattenSymbols() marked an in-root symbol External")
	}
}

func TestFlattenSymbolsNestsChildrenUnderContainer(t *testing.T) {
	docSymbols := []protocol.DocumentSymbol{
		{
			Name: "Server",
			Kind: protocol.SymbolKindStruct,
			Children: []protocol.DocumentSymbol{
				{Name: "Run", Kind: protocol.SymbolKindMethod},
			},
		},
	}
	got := flattenSymbols(docSymbols, "server.go", "", true)
	if len(got) != 2 {
		t.Fatalf("flattenSymbols() returned %d symbols, want 2 (parent + child)", len(got))
	}
	if got[1].Name != "Run" || got[1].Container != "Server" {
		t.Errorf("flattenSymbols()[1] = %+v, want Name=Run Container=Server", got[1])
	}
	if !got[0].External || !got[1].External {
		t.Error("flattenSymbols() should propagate external to children")
	}
}

func TestIsExternalFileDetectsOutsideRoot(t *testing.T) {
	if isExternalFile("/proj", "/proj/main.go") {
		t.Error("isExternalFile() = true for a file under root")
	}
	if !isExternalFile("/proj", "/other/main.go") {
		t.Error("isExternalFile() = false for a file outside root")
	}
}
