package tools

import (
	"os"
	"path/filepath"
	"testing"

	"go.lsp.dev/protocol"
)

func TestSeverityLabel(t *testing.T) {
	cases := map[protocol.DiagnosticSeverity]string{
		protocol.DiagnosticSeverityError:       "error",
		protocol.DiagnosticSeverityWarning:     "warning",
		protocol.DiagnosticSeverityInformation: "info",
		protocol.DiagnosticSeverityHint:        "hint",
		protocol.DiagnosticSeverity(99):        "unknown",
	}
	for sev, want := range cases {
		if got := severityLabel(sev); got != want {
			t.Errorf("severityLabel(%v) = %q, want %q", sev, got, want)
		}
	}
}

func TestResolveFileListExplicitPaths(t *testing.T) {
	r := req(map[string]any{"filePaths": []any{"a.go", "b.go"}})
	files, err := resolveFileList(r, "/app")
	if err != nil {
		t.Fatalf("resolveFileList() error = %v", err)
	}
	if len(files) != 2 || files[0] != "a.go" || files[1] != "b.go" {
		t.Errorf("resolveFileList() = %v, want [a.go b.go]", files)
	}
}

func TestResolveFileListGlobPattern(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.go", "b.go", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	r := req(map[string]any{"pattern": "*.go"})
	files, err := resolveFileList(r, dir)
	if err != nil {
		t.Fatalf("resolveFileList() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("resolveFileList() = %v, want 2 .go files", files)
	}
}

func TestResolveFileListRequiresPathsOrPattern(t *testing.T) {
	if _, err := resolveFileList(req(nil), "/app"); err == nil {
		t.Error("expected an error when neither filePaths nor pattern is given")
	}
}
