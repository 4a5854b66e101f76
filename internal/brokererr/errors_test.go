package brokererr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindInvalidArgument:      "InvalidArgument",
		KindFileNotFound:         "FileNotFound",
		KindLineNotFound:         "LineNotFound",
		KindSymbolNotFoundOnLine: "SymbolNotFoundOnLine",
		KindNotInitialized:       "NotInitialized",
		KindTransport:            "Transport",
		KindTimeout:              "Timeout",
		KindServerError:          "ServerError",
		KindUnsupported:          "Unsupported",
		KindEditConflict:         "EditConflict",
		Kind(999):                "Unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	e := New(KindFileNotFound, "hover", "no such file")
	if got, want := e.Error(), "hover: FileNotFound: no such file"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	withFile := e.WithFile("/tmp/main.go")
	if got, want := withFile.Error(), "hover: FileNotFound: (/tmp/main.go): no such file"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	withSymbol := withFile.WithSymbol("Foo")
	want := `hover: FileNotFound (/tmp/main.go, symbol "Foo"): no such file`
	if got := withSymbol.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorMessageFallsBackToWrappedErr(t *testing.T) {
	cause := errors.New("boom")
	e := Wrap(KindTransport, "pool.Acquire", cause)
	if got, want := e.Error(), "pool.Acquire: Transport: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(e, cause) {
		t.Error("expected errors.Is to unwrap to cause")
	}
}

func TestWithLanguage(t *testing.T) {
	e := New(KindUnsupported, "rename_symbol", "no rename capability").WithLanguage("rust")
	if e.Language != "rust" {
		t.Errorf("Language = %q, want rust", e.Language)
	}
}

func TestIs(t *testing.T) {
	e := New(KindTimeout, "hover", "deadline exceeded")
	wrapped := fmt.Errorf("tool failed: %w", e)

	if !Is(wrapped, KindTimeout) {
		t.Error("expected Is to match through fmt.Errorf wrapping")
	}
	if Is(wrapped, KindTransport) {
		t.Error("expected Is to not match a different kind")
	}
	if Is(errors.New("plain error"), KindTimeout) {
		t.Error("expected Is to return false for a non-*Error")
	}
}

func TestWithAnnotationsDoNotMutateOriginal(t *testing.T) {
	base := New(KindLineNotFound, "find_references", "no match")
	_ = base.WithFile("a.go")
	if base.FilePath != "" {
		t.Error("WithFile mutated the receiver instead of returning a copy")
	}
}
