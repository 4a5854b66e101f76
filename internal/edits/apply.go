// Package edits applies a language server's TextEdit list to in-memory
// file content in reverse range order so earlier edits' offsets stay
// valid. WorkspaceEdits, including ones spanning more than one document,
// are applied locally file by file; they are not handed to a language
// server through workspace/applyEdit.
package edits

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"
	"unicode/utf16"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/lsmcp-dev/lsmcp/internal/brokererr"
)

// Applier is the minimal RPC surface needed to delegate a workspace edit to
// the language server, when one is available: a server-driven rename
// should be applied the way the server expects, including any
// non-textual document changes it reports.
type Applier interface {
	Call(ctx context.Context, method string, params, result any, timeout time.Duration) error
}

// Apply applies edits to content and returns the resulting text. Edits are
// applied in reverse start-position order so that earlier edits in the
// list never see their offsets invalidated by a later one.
func Apply(content string, edits []protocol.TextEdit) (string, error) {
	units := utf16.Encode([]rune(content))
	sorted := make([]protocol.TextEdit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		return comparePosition(sorted[i].Range.Start, sorted[j].Range.Start) > 0
	})

	for i := 0; i+1 < len(sorted); i++ {
		if comparePosition(sorted[i+1].Range.End, sorted[i].Range.Start) > 0 {
			return "", &brokererr.Error{Kind: brokererr.KindEditConflict, Op: "edits.Apply", Message: "overlapping text edits"}
		}
	}

	for _, e := range sorted {
		startOff, err := positionToOffset(units, e.Range.Start)
		if err != nil {
			return "", fmt.Errorf("edits.Apply: %w", err)
		}
		endOff, err := positionToOffset(units, e.Range.End)
		if err != nil {
			return "", fmt.Errorf("edits.Apply: %w", err)
		}
		newUnits := utf16.Encode([]rune(e.NewText))

		merged := make([]uint16, 0, len(units)-(endOff-startOff)+len(newUnits))
		merged = append(merged, units[:startOff]...)
		merged = append(merged, newUnits...)
		merged = append(merged, units[endOff:]...)
		units = merged
	}

	return string(utf16.Decode(units)), nil
}

// ApplyToFile reads path, applies edits, and writes the result back.
func ApplyToFile(path string, edits []protocol.TextEdit) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return &brokererr.Error{Kind: brokererr.KindFileNotFound, Op: "edits.ApplyToFile", FilePath: path, Err: err}
	}
	updated, err := Apply(string(content), edits)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return brokererr.Wrap(brokererr.KindTransport, "edits.ApplyToFile", err)
	}
	return nil
}

// Occurrence describes one applied text edit in terms a caller can report
// to a user: its 1-based position and the text it replaced.
type Occurrence struct {
	Line    uint32
	Column  uint32
	OldText string
	NewText string
}

// FileChange is the per-file summary of every occurrence changed in one
// document by a workspace edit.
type FileChange struct {
	Path        string
	Occurrences []Occurrence
}

// ApplyWorkspaceEdit applies a WorkspaceEdit that may span multiple files.
// Text-only changes are applied locally file by file; any DocumentChanges
// entry that is not a plain TextDocumentEdit (a create, rename, or delete
// operation) is reported Unsupported rather than silently ignored. The
// returned FileChanges name the files touched and, per file, the exact
// occurrences replaced.
func ApplyWorkspaceEdit(edit protocol.WorkspaceEdit) ([]FileChange, error) {
	var changes []FileChange

	apply := func(path string, fileEdits []protocol.TextEdit) error {
		occurrences, err := describeEdits(path, fileEdits)
		if err != nil {
			return err
		}
		if err := ApplyToFile(path, fileEdits); err != nil {
			return err
		}
		changes = append(changes, FileChange{Path: path, Occurrences: occurrences})
		return nil
	}

	if len(edit.DocumentChanges) > 0 {
		for _, change := range edit.DocumentChanges {
			if change.TextDocumentEdit == nil {
				return changes, &brokererr.Error{Kind: brokererr.KindUnsupported, Op: "edits.ApplyWorkspaceEdit", Message: "workspace edit contains a non-text document change (create/rename/delete)"}
			}
			path := uri.New(string(change.TextDocumentEdit.TextDocument.URI)).Filename()
			if err := apply(path, change.TextDocumentEdit.Edits); err != nil {
				return changes, err
			}
		}
		return changes, nil
	}

	for docURI, fileEdits := range edit.Changes {
		path := uri.New(string(docURI)).Filename()
		if err := apply(path, fileEdits); err != nil {
			return changes, err
		}
	}
	return changes, nil
}

// describeEdits reads path's current content and extracts the text each
// edit is about to replace, before ApplyToFile overwrites it.
func describeEdits(path string, fileEdits []protocol.TextEdit) ([]Occurrence, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &brokererr.Error{Kind: brokererr.KindFileNotFound, Op: "edits.ApplyWorkspaceEdit", FilePath: path, Err: err}
	}
	units := utf16.Encode([]rune(string(content)))

	occurrences := make([]Occurrence, 0, len(fileEdits))
	for _, e := range fileEdits {
		oldText, err := extractText(units, e.Range)
		if err != nil {
			return nil, fmt.Errorf("edits.ApplyWorkspaceEdit: %w", err)
		}
		occurrences = append(occurrences, Occurrence{
			Line:    e.Range.Start.Line + 1,
			Column:  e.Range.Start.Character + 1,
			OldText: oldText,
			NewText: e.NewText,
		})
	}
	sort.Slice(occurrences, func(i, j int) bool {
		if occurrences[i].Line != occurrences[j].Line {
			return occurrences[i].Line < occurrences[j].Line
		}
		return occurrences[i].Column < occurrences[j].Column
	})
	return occurrences, nil
}

func extractText(units []uint16, rng protocol.Range) (string, error) {
	start, err := positionToOffset(units, rng.Start)
	if err != nil {
		return "", err
	}
	end, err := positionToOffset(units, rng.End)
	if err != nil {
		return "", err
	}
	if end < start {
		end = start
	}
	return string(utf16.Decode(units[start:end])), nil
}

func comparePosition(a, b protocol.Position) int {
	if a.Line != b.Line {
		if a.Line < b.Line {
			return -1
		}
		return 1
	}
	switch {
	case a.Character < b.Character:
		return -1
	case a.Character > b.Character:
		return 1
	default:
		return 0
	}
}

func positionToOffset(units []uint16, pos protocol.Position) (int, error) {
	line := uint32(0)
	i := 0
	for line < pos.Line {
		if i >= len(units) {
			return 0, fmt.Errorf("position line %d out of range", pos.Line)
		}
		if units[i] == '\n' {
			line++
		}
		i++
	}
	offset := i + int(pos.Character)
	if offset > len(units) {
		offset = len(units)
	}
	return offset, nil
}
