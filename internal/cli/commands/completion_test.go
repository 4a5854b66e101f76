package commands

import "testing"

func TestCompletionCommandRejectsUnknownShell(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"completion", "not-a-shell"})

	if err := root.Execute(); err == nil {
		t.Fatal("expected an error for an unrecognized shell name")
	}
}

func TestCompletionCommandRejectsMissingShell(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"completion"})

	if err := root.Execute(); err == nil {
		t.Fatal("expected an error when no shell argument is given")
	}
}
