package tools

import (
	"os"
	"path/filepath"
	"testing"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

func TestRelativePathUnderRoot(t *testing.T) {
	root := "/workspace/app"
	path := "/workspace/app/internal/foo.go"
	if got, want := relativePath(root, path), "internal/foo.go"; got != want {
		t.Errorf("relativePath() = %q, want %q", got, want)
	}
}

func TestRelativePathOutsideRootFallsBackToAbsolute(t *testing.T) {
	root := "/workspace/app"
	path := "/other/foo.go"
	if got := relativePath(root, path); got != path {
		t.Errorf("relativePath() = %q, want %q", got, path)
	}
}

func TestFormatLocation(t *testing.T) {
	root := "/workspace/app"
	u := protocol.DocumentURI(uri.File("/workspace/app/main.go"))
	pos := protocol.Position{Line: 4, Character: 2}

	if got, want := formatLocation(root, u, pos), "main.go:5:3"; got != want {
		t.Errorf("formatLocation() = %q, want %q", got, want)
	}
}

func TestReadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.txt")
	if err := os.WriteFile(path, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := readLine(path, 1)
	if err != nil {
		t.Fatalf("readLine() error = %v", err)
	}
	if got != "second" {
		t.Errorf("readLine() = %q, want %q", got, "second")
	}

	if _, err := readLine(path, 99); err == nil {
		t.Error("expected an error for an out-of-range line")
	}
}

func TestResolveCharacterOnLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.go")
	if err := os.WriteFile(path, []byte("func HandleRequest() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	col, err := resolveCharacterOnLine(path, 0, "HandleRequest")
	if err != nil {
		t.Fatalf("resolveCharacterOnLine() error = %v", err)
	}
	if want := uint32(5); col != want {
		t.Errorf("resolveCharacterOnLine() = %d, want %d", col, want)
	}

	if _, err := resolveCharacterOnLine(path, 0, "NotThere"); err == nil {
		t.Error("expected an error when target is not found on the line")
	}
}

func TestContextPreviewMarksTargetLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.txt")
	if err := os.WriteFile(path, []byte("a\nb\nc\nd\ne\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := contextPreview(path, 2, 1)
	if err != nil {
		t.Fatalf("contextPreview() error = %v", err)
	}
	want := "      2: b\n>>    3: c\n      4: d"
	if got != want {
		t.Errorf("contextPreview() = %q, want %q", got, want)
	}
}

func TestHighlightParameter(t *testing.T) {
	label := "func(a string, b int)"
	params := []string{"a string", "b int"}

	got := highlightParameter(label, params, 1)
	want := "func(a string, [b int])"
	if got != want {
		t.Errorf("highlightParameter() = %q, want %q", got, want)
	}

	if got := highlightParameter(label, params, 5); got != label {
		t.Errorf("highlightParameter() out-of-range = %q, want unchanged label", got)
	}
}
