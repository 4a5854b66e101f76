package tools

import (
	"testing"

	"go.lsp.dev/protocol"
)

func TestFindSymbolOnLineTopLevel(t *testing.T) {
	symbols := []protocol.DocumentSymbol{
		{Name: "Foo", SelectionRange: protocol.Range{Start: protocol.Position{Line: 4}}},
		{Name: "Bar", SelectionRange: protocol.Range{Start: protocol.Position{Line: 9}}},
	}
	got := findSymbolOnLine(symbols, "Bar", 9)
	if got == nil || got.Name != "Bar" {
		t.Errorf("findSymbolOnLine() = %v, want Bar", got)
	}
}

func TestFindSymbolOnLineNested(t *testing.T) {
	symbols := []protocol.DocumentSymbol{
		{
			Name: "Server",
			Children: []protocol.DocumentSymbol{
				{Name: "Run", SelectionRange: protocol.Range{Start: protocol.Position{Line: 12}}},
			},
		},
	}
	got := findSymbolOnLine(symbols, "Run", 12)
	if got == nil || got.Name != "Run" {
		t.Errorf("findSymbolOnLine() = %v, want Run", got)
	}
}

func TestFindSymbolOnLineNoMatch(t *testing.T) {
	symbols := []protocol.DocumentSymbol{
		{Name: "Foo", SelectionRange: protocol.Range{Start: protocol.Position{Line: 4}}},
	}
	if got := findSymbolOnLine(symbols, "Foo", 5); got != nil {
		t.Errorf("findSymbolOnLine() = %v, want nil for a non-matching line", got)
	}
}

func TestWholeLineSpansToNextLineStart(t *testing.T) {
	rng := wholeLine(3)
	want := protocol.Range{
		Start: protocol.Position{Line: 3, Character: 0},
		End:   protocol.Position{Line: 4, Character: 0},
	}
	if rng != want {
		t.Errorf("wholeLine(3) = %+v, want %+v", rng, want)
	}
}

func TestPlanDeleteEditsIncludesSameFileReferences(t *testing.T) {
	declRange := protocol.Range{Start: protocol.Position{Line: 4}, End: protocol.Position{Line: 4, Character: 10}}
	references := []protocol.Location{
		{URI: "file:///proj/main.go", Range: protocol.Range{Start: protocol.Position{Line: 12}}},
		{URI: "file:///proj/main.go", Range: protocol.Range{Start: protocol.Position{Line: 20}}},
		{URI: "file:///proj/other.go", Range: protocol.Range{Start: protocol.Position{Line: 3}}},
	}

	localEdits, otherFileRefs := planDeleteEdits("/proj/main.go", declRange, references)

	if len(localEdits) != 3 {
		t.Fatalf("localEdits = %v, want 3 (declaration + 2 same-file references)", localEdits)
	}
	if localEdits[0].Range != declRange {
		t.Errorf("localEdits[0] = %+v, want the declaration range first", localEdits[0])
	}
	if len(otherFileRefs) != 1 || uriToPath(otherFileRefs[0].URI) != "/proj/other.go" {
		t.Errorf("otherFileRefs = %v, want exactly the reference in other.go", otherFileRefs)
	}
}

func TestPlanDeleteEditsDedupesReferenceOnDeclarationLine(t *testing.T) {
	declRange := protocol.Range{Start: protocol.Position{Line: 4}, End: protocol.Position{Line: 4, Character: 10}}
	references := []protocol.Location{
		{URI: "file:///proj/main.go", Range: protocol.Range{Start: protocol.Position{Line: 4}}},
	}

	localEdits, otherFileRefs := planDeleteEdits("/proj/main.go", declRange, references)

	if len(localEdits) != 1 {
		t.Errorf("localEdits = %v, want only the declaration edit when a reference shares its line", localEdits)
	}
	if len(otherFileRefs) != 0 {
		t.Errorf("otherFileRefs = %v, want none", otherFileRefs)
	}
}
