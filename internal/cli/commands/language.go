package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lsmcp-dev/lsmcp/internal/cli/ui"
	"github.com/lsmcp-dev/lsmcp/internal/config"
)

// warnOnUnknownForceLanguage rejects a LSMCP_FORCE_LANGUAGE override that
// names a language id absent from the configured language table, offering a
// fuzzy-matched "did you mean" instead of letting the typo surface only
// once the pool fails to resolve a server command for it.
func warnOnUnknownForceLanguage(cmd *cobra.Command, cfg *config.Config) error {
	if cfg.ForceLanguage == "" {
		return nil
	}
	if _, ok := cfg.Languages[cfg.ForceLanguage]; ok {
		return nil
	}

	known := languageNames(cfg)
	var suggestions []string
	if best := ui.FindBestMatch(cfg.ForceLanguage, known, nil); best != "" {
		suggestions = []string{best}
	}
	fmt.Fprint(cmd.ErrOrStderr(), ui.LanguageNotConfiguredError(cfg.ForceLanguage, suggestions, false))
	return fmt.Errorf("%s is not a configured language", cfg.ForceLanguage)
}
