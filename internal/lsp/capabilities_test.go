package lsp

import "testing"

func TestClientCapabilitiesAdvertisesHierarchicalSymbols(t *testing.T) {
	caps := ClientCapabilities()
	if caps.TextDocument.DocumentSymbol == nil || !caps.TextDocument.DocumentSymbol.HierarchicalDocumentSymbolSupport {
		t.Error("expected hierarchical document symbol support to be advertised")
	}
}

func TestClientCapabilitiesAdvertisesSnippetCompletion(t *testing.T) {
	caps := ClientCapabilities()
	item := caps.TextDocument.Completion.CompletionItem
	if item == nil || !item.SnippetSupport {
		t.Error("expected snippet completion support to be advertised")
	}
}

func TestAllSymbolKindsIsNonEmptyAndUnique(t *testing.T) {
	kinds := allSymbolKinds()
	if len(kinds) == 0 {
		t.Fatal("expected a non-empty symbol kind list")
	}
	seen := make(map[int]bool, len(kinds))
	for _, k := range kinds {
		if seen[int(k)] {
			t.Errorf("duplicate symbol kind %v", k)
		}
		seen[int(k)] = true
	}
}
