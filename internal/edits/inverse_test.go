package edits

import (
	"testing"

	"go.lsp.dev/protocol"
)

func TestInvertRoundTrip(t *testing.T) {
	content := "hello world\n"
	forward := []protocol.TextEdit{
		{Range: protocol.Range{Start: pos(0, 6), End: pos(0, 11)}, NewText: "there"},
	}

	applied, err := Apply(content, forward)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	inverse, err := Invert(content, forward)
	if err != nil {
		t.Fatalf("Invert() error = %v", err)
	}

	restored, err := Apply(applied, inverse)
	if err != nil {
		t.Fatalf("Apply(inverse) error = %v", err)
	}
	if restored != content {
		t.Errorf("round trip = %q, want %q", restored, content)
	}
}

func TestInvertRoundTripMultiLine(t *testing.T) {
	content := "line one\nline two\nline three\n"
	forward := []protocol.TextEdit{
		{Range: protocol.Range{Start: pos(1, 5), End: pos(1, 8)}, NewText: "TWO!"},
	}

	applied, err := Apply(content, forward)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	inverse, err := Invert(content, forward)
	if err != nil {
		t.Fatalf("Invert() error = %v", err)
	}

	restored, err := Apply(applied, inverse)
	if err != nil {
		t.Fatalf("Apply(inverse) error = %v", err)
	}
	if restored != content {
		t.Errorf("round trip = %q, want %q", restored, content)
	}
}
