package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lsmcp-dev/lsmcp/internal/config"
)

func TestDiscoverSourceFilesSkipsIgnoredDirs(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "main.go"), "package main\n")
	mustMkdir(t, filepath.Join(dir, "vendor"))
	mustWrite(t, filepath.Join(dir, "vendor", "lib.go"), "package lib\n")
	mustMkdir(t, filepath.Join(dir, "node_modules"))
	mustWrite(t, filepath.Join(dir, "node_modules", "index.js"), "console.log(1)\n")

	files, err := discoverSourceFiles(dir, &config.Config{})
	if err != nil {
		t.Fatalf("discoverSourceFiles() error = %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "main.go" {
		t.Errorf("discoverSourceFiles() = %v, want only main.go", files)
	}
}

func TestDiscoverSourceFilesRespectsForceLanguage(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "script.unknown"), "whatever\n")

	files, err := discoverSourceFiles(dir, &config.Config{ForceLanguage: "go"})
	if err != nil {
		t.Fatalf("discoverSourceFiles() error = %v", err)
	}
	if len(files) != 1 {
		t.Errorf("discoverSourceFiles() with ForceLanguage = %v, want the unrecognized file included", files)
	}
}

func TestNewIndexCommandHasRootFlag(t *testing.T) {
	cmd := NewIndexCommand()
	if cmd.Use != "index" {
		t.Errorf("expected Use to be 'index', got %s", cmd.Use)
	}
	if flag := cmd.Flags().Lookup("root"); flag == nil {
		t.Fatal("expected a --root flag")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
}
