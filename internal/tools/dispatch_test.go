package tools

import (
	"testing"

	"github.com/lsmcp-dev/lsmcp/internal/config"
)

func TestResolveRootPrefersExplicitArgument(t *testing.T) {
	r := req(map[string]any{"root": "/explicit/root"})
	if got := resolveRoot(r, Deps{}, "/explicit/root/a.go"); got != "/explicit/root" {
		t.Errorf("resolveRoot() = %q, want %q", got, "/explicit/root")
	}
}

func TestResolveRootFallsBackToProjectMarker(t *testing.T) {
	r := req(nil)
	got := resolveRoot(r, Deps{}, "/a.go")
	if got == "" {
		t.Error("resolveRoot() = empty, want a fallback root")
	}
}

func TestResolveLanguageDetectsFromExtension(t *testing.T) {
	deps := Deps{Config: &config.Config{}}
	got, err := resolveLanguage(deps, "main.go")
	if err != nil {
		t.Fatalf("resolveLanguage() error = %v", err)
	}
	if got != "go" {
		t.Errorf("resolveLanguage() = %q, want %q", got, "go")
	}
}

func TestResolveLanguageHonorsForceLanguage(t *testing.T) {
	deps := Deps{Config: &config.Config{ForceLanguage: "rust"}}
	got, err := resolveLanguage(deps, "whatever.unknownext")
	if err != nil {
		t.Fatalf("resolveLanguage() error = %v", err)
	}
	if got != "rust" {
		t.Errorf("resolveLanguage() = %q, want %q", got, "rust")
	}
}

func TestResolveLanguageFailsForUnknownExtensionWithoutForce(t *testing.T) {
	deps := Deps{Config: &config.Config{}}
	if _, err := resolveLanguage(deps, "whatever.unknownext"); err == nil {
		t.Error("expected an error when the language cannot be determined")
	}
}
