package lsp

import "time"

// Profile is a language's capability profile: document-open delay,
// operation timeout, and language-specific warm-up behavior.
type Profile struct {
	Language string

	// OpenDelay is how long the orchestrator waits after each transient
	// open of a document for this language before issuing the operation,
	// giving lazily-loading servers (typescript, rust) time to settle.
	OpenDelay time.Duration

	// OperationTimeout overrides rpc.DefaultTimeout for requests against
	// servers of this language.
	OperationTimeout time.Duration

	// PreOpenProjectFiles marks languages (typescript, javascript) whose
	// servers may not be fully warmed up until the project's manifest has
	// been seen. No code path reads it: manifest files are not opened
	// ahead of the first operation.
	PreOpenProjectFiles bool

	// ReadyOnFirstDiagnostic, when true, makes the orchestrator wait after
	// opening a file for that file's first publishDiagnostics, for at most
	// OpenDelay, instead of sleeping the fixed delay; rust-analyzer in
	// particular stays silent until it has finished indexing.
	ReadyOnFirstDiagnostic bool
}

// defaultProfile is used for any language id not present in Profiles.
var defaultProfile = Profile{
	Language:         "default",
	OpenDelay:        500 * time.Millisecond,
	OperationTimeout: 30 * time.Second,
}

// Profiles is the capability profile table, keyed by language id.
var Profiles = map[string]Profile{
	"typescript": {
		Language:            "typescript",
		OpenDelay:           500 * time.Millisecond,
		OperationTimeout:    30 * time.Second,
		PreOpenProjectFiles: true,
	},
	"javascript": {
		Language:            "javascript",
		OpenDelay:           500 * time.Millisecond,
		OperationTimeout:    30 * time.Second,
		PreOpenProjectFiles: true,
	},
	"rust": {
		Language:               "rust",
		OpenDelay:              1500 * time.Millisecond,
		OperationTimeout:       60 * time.Second,
		ReadyOnFirstDiagnostic: true,
	},
	"pyright": {
		Language:         "pyright",
		OpenDelay:        1000 * time.Millisecond,
		OperationTimeout: 30 * time.Second,
	},
	"pylsp": {
		Language:         "pylsp",
		OpenDelay:        1000 * time.Millisecond,
		OperationTimeout: 30 * time.Second,
	},
	"go": {
		Language:         "go",
		OpenDelay:        500 * time.Millisecond,
		OperationTimeout: 30 * time.Second,
	},
}

// ProfileFor returns the configured profile for a language id, or
// defaultProfile if none is registered.
func ProfileFor(language string) Profile {
	if p, ok := Profiles[language]; ok {
		return p
	}
	p := defaultProfile
	p.Language = language
	return p
}
