package edits

import (
	"fmt"
	"sort"
	"unicode/utf16"

	"go.lsp.dev/protocol"
)

// Invert computes the edit list that undoes edits against content, so that
// Apply(Apply(content, edits), Invert(content, edits)) reconstructs the
// original text: an edit's inverse, applied after it, reproduces the
// pre-edit text.
func Invert(content string, edits []protocol.TextEdit) ([]protocol.TextEdit, error) {
	units := utf16.Encode([]rune(content))
	sorted := append([]protocol.TextEdit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool { return comparePosition(sorted[i].Range.Start, sorted[j].Range.Start) < 0 })

	inverted := make([]protocol.TextEdit, 0, len(edits))
	lineDelta, charDelta, prevEndLine := 0, 0, uint32(0)
	for _, e := range sorted {
		startOff, err := positionToOffset(units, e.Range.Start)
		if err != nil {
			return nil, fmt.Errorf("edits.Invert: %w", err)
		}
		endOff, err := positionToOffset(units, e.Range.End)
		if err != nil {
			return nil, fmt.Errorf("edits.Invert: %w", err)
		}

		original := string(utf16.Decode(units[startOff:endOff]))
		newUnits := utf16.Encode([]rune(e.NewText))
		start := e.Range.Start
		start.Line = uint32(int(start.Line) + lineDelta)
		if len(inverted) > 0 && e.Range.Start.Line == prevEndLine {
			start.Character = uint32(int(start.Character) + charDelta)
		}
		rel := offsetToPosition(newUnits, len(newUnits))
		newEnd := protocol.Position{Line: start.Line + rel.Line, Character: start.Character + rel.Character}
		if rel.Line > 0 {
			newEnd.Character = rel.Character
		}

		inverted = append(inverted, protocol.TextEdit{
			Range:   protocol.Range{Start: start, End: newEnd},
			NewText: original,
		})
		lineDelta += int(rel.Line) - int(e.Range.End.Line-e.Range.Start.Line)
		charDelta, prevEndLine = int(newEnd.Character)-int(e.Range.End.Character), e.Range.End.Line
	}
	return inverted, nil
}

func offsetToPosition(units []uint16, offset int) protocol.Position {
	line := uint32(0)
	lineStart := 0
	for i := 0; i < offset && i < len(units); i++ {
		if units[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return protocol.Position{Line: line, Character: uint32(offset - lineStart)}
}
