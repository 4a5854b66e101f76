package symbolindex

import (
	"testing"

	"go.lsp.dev/protocol"
)

func rng(startLine, startChar, endLine, endChar uint32) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: startLine, Character: startChar},
		End:   protocol.Position{Line: endLine, Character: endChar},
	}
}

func TestIndexFileAndQueryExactMatch(t *testing.T) {
	idx := New()
	foo := &Symbol{Name: "Foo", Kind: protocol.SymbolKindFunction, File: "a.go", Range: rng(0, 0, 2, 0)}
	idx.IndexFile("a.go", []*Symbol{foo})

	results := idx.Query(Query{Name: "Foo"})
	if len(results) != 1 || results[0] != foo {
		t.Fatalf("Query(Foo) = %v, want [foo]", results)
	}
}

func TestQueryFallsBackToSubstring(t *testing.T) {
	idx := New()
	handler := &Symbol{Name: "HandleRequest", Kind: protocol.SymbolKindFunction, File: "a.go"}
	idx.IndexFile("a.go", []*Symbol{handler})

	results := idx.Query(Query{Name: "Request"})
	if len(results) != 1 || results[0] != handler {
		t.Fatalf("Query(Request) = %v, want [handler]", results)
	}
}

func TestQueryFiltersByKind(t *testing.T) {
	idx := New()
	fn := &Symbol{Name: "Foo", Kind: protocol.SymbolKindFunction, File: "a.go"}
	typ := &Symbol{Name: "Foo", Kind: protocol.SymbolKindClass, File: "a.go"}
	idx.IndexFile("a.go", []*Symbol{fn, typ})

	results := idx.Query(Query{Name: "Foo", Kinds: []protocol.SymbolKind{protocol.SymbolKindClass}})
	if len(results) != 1 || results[0] != typ {
		t.Fatalf("Query(kind=Class) = %v, want [typ]", results)
	}
}

func TestQueryExcludesExternalByDefault(t *testing.T) {
	idx := New()
	local := &Symbol{Name: "Foo", File: "a.go"}
	external := &Symbol{Name: "Foo", File: "a.go", External: true}
	idx.IndexFile("a.go", []*Symbol{local, external})

	results := idx.Query(Query{Name: "Foo"})
	if len(results) != 1 || results[0] != local {
		t.Fatalf("Query() = %v, want [local]", results)
	}

	withExternal := idx.Query(Query{Name: "Foo", IncludeExternal: true})
	if len(withExternal) != 2 {
		t.Fatalf("Query(IncludeExternal) = %v, want both symbols", withExternal)
	}

	onlyExternal := idx.Query(Query{Name: "Foo", OnlyExternal: true})
	if len(onlyExternal) != 1 || onlyExternal[0] != external {
		t.Fatalf("Query(OnlyExternal) = %v, want [external]", onlyExternal)
	}
}

func TestQueryByKindWithNoNameUsesByKindIndex(t *testing.T) {
	idx := New()
	fn := &Symbol{Name: "Foo", Kind: protocol.SymbolKindFunction, File: "a.go"}
	typ := &Symbol{Name: "Bar", Kind: protocol.SymbolKindClass, File: "a.go"}
	idx.IndexFile("a.go", []*Symbol{fn, typ})

	results := idx.Query(Query{Kinds: []protocol.SymbolKind{protocol.SymbolKindFunction}})
	if len(results) != 1 || results[0] != fn {
		t.Fatalf("Query(kind=Function, no name) = %v, want [fn]", results)
	}
}

func TestRemoveFileDropsFromByKindIndex(t *testing.T) {
	idx := New()
	idx.IndexFile("a.go", []*Symbol{{Name: "Foo", Kind: protocol.SymbolKindFunction, File: "a.go"}})
	idx.RemoveFile("a.go")

	results := idx.Query(Query{Kinds: []protocol.SymbolKind{protocol.SymbolKindFunction}})
	if len(results) != 0 {
		t.Errorf("Query(kind=Function) after RemoveFile = %v, want none", results)
	}
}

func TestIndexFileReplacesPreviousSymbols(t *testing.T) {
	idx := New()
	idx.IndexFile("a.go", []*Symbol{{Name: "Old", File: "a.go"}})
	idx.IndexFile("a.go", []*Symbol{{Name: "New", File: "a.go"}})

	if results := idx.Query(Query{Name: "Old"}); len(results) != 0 {
		t.Errorf("Query(Old) = %v, want none after replace", results)
	}
	if results := idx.Query(Query{Name: "New"}); len(results) != 1 {
		t.Errorf("Query(New) = %v, want one", results)
	}
}

func TestRemoveFile(t *testing.T) {
	idx := New()
	idx.IndexFile("a.go", []*Symbol{{Name: "Foo", File: "a.go"}})
	idx.RemoveFile("a.go")

	if stats := idx.Stats(); stats.Files != 0 || stats.Symbols != 0 {
		t.Errorf("Stats() = %+v, want zero", stats)
	}
}

func TestSymbolAtReturnsInnermostMatch(t *testing.T) {
	idx := New()
	outer := &Symbol{Name: "Outer", File: "a.go", Range: rng(0, 0, 10, 0)}
	inner := &Symbol{Name: "Inner", File: "a.go", Range: rng(2, 0, 4, 0)}
	idx.IndexFile("a.go", []*Symbol{outer, inner})

	got := idx.SymbolAt("a.go", protocol.Position{Line: 3, Character: 0})
	if got != inner {
		t.Errorf("SymbolAt() = %v, want inner", got)
	}
}

func TestSymbolAtReturnsNilWhenNoMatch(t *testing.T) {
	idx := New()
	idx.IndexFile("a.go", []*Symbol{{Name: "Foo", File: "a.go", Range: rng(0, 0, 2, 0)}})

	if got := idx.SymbolAt("a.go", protocol.Position{Line: 50, Character: 0}); got != nil {
		t.Errorf("SymbolAt() = %v, want nil", got)
	}
}

func TestStats(t *testing.T) {
	idx := New()
	idx.IndexFile("a.go", []*Symbol{{Name: "A"}, {Name: "B"}})
	idx.IndexFile("b.go", []*Symbol{{Name: "C"}})

	stats := idx.Stats()
	if stats.Files != 2 || stats.Symbols != 3 {
		t.Errorf("Stats() = %+v, want {Files:2 Symbols:3}", stats)
	}
}
