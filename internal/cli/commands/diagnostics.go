package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/lsmcp-dev/lsmcp/internal/cli/ui"
	"github.com/lsmcp-dev/lsmcp/internal/config"
	"github.com/lsmcp-dev/lsmcp/internal/orchestrator"
	"github.com/lsmcp-dev/lsmcp/internal/pool"
	"github.com/lsmcp-dev/lsmcp/internal/reportdb"
	"github.com/lsmcp-dev/lsmcp/internal/tools"
)

// NewDiagnosticsCommand creates the diagnostics command, a pattern-based
// batch mode that checks a set of files without starting the MCP server.
func NewDiagnosticsCommand() *cobra.Command {
	var pattern string
	var root string

	cmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Check a batch of files for diagnostics and print a summary",
		Long: `Collect diagnostics for every file matching --pattern, without starting
the MCP server. Exits 0 if every matched file checked cleanly, 1 if any
file-level error occurred or the command failed to start.

If report.enabled is set in lsmcp.yml, the run is archived and can later
be inspected with "lsmcp report list" and "lsmcp report show".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := runDiagnostics(cmd, pattern, root)
			if err != nil {
				return err
			}
			if !ok {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "", "glob pattern of files to check, relative to root")
	cmd.Flags().StringVar(&root, "root", "", "project root; defaults to the current directory's project root")
	_ = cmd.MarkFlagRequired("pattern")
	return cmd
}

// runDiagnostics returns (true, nil) when every matched file checked clean,
// (false, nil) when at least one file-level error was found, and a non-nil
// error only on a startup failure (bad config, an invalid pattern, etc). A
// pattern that matches no file counts as clean.
func runDiagnostics(cmd *cobra.Command, pattern, root string) (bool, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return false, fmt.Errorf("diagnostics: build logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return false, fmt.Errorf("diagnostics: load config: %w", err)
	}
	if warnErr := warnOnUnknownForceLanguage(cmd, cfg); warnErr != nil {
		return false, warnErr
	}

	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return false, fmt.Errorf("diagnostics: getwd: %w", err)
		}
		root = config.ProjectRoot(wd)
	}

	matches, err := filepath.Glob(filepath.Join(root, pattern))
	if err != nil {
		return false, fmt.Errorf("diagnostics: invalid pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no files matched %q under %s\n", pattern, root)
		return true, nil
	}

	p := pool.New(cfg.Resolver(), drainGrace, killGrace, logger)
	defer p.ShutdownAll()
	orch := orchestrator.New(p, logger)

	startedAt := time.Now()
	clean := true
	totalDiags := 0
	filesChecked := 0

	noColor := os.Getenv("NO_COLOR") != ""
	bar := ui.NewProgressBar(cmd.OutOrStdout(), ui.ProgressBarOptions{
		Total:   len(matches),
		Message: "checking diagnostics",
		NoColor: noColor,
	})

	for i, filePath := range matches {
		language, ok := tools.LanguageForFile(filePath)
		if !ok {
			if cfg.ForceLanguage == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s: could not determine language, skipped\n", filePath)
				bar.Set(i + 1)
				continue
			}
			language = cfg.ForceLanguage
		}
		language = cfg.ResolveLanguage(language)

		result, runErr := orch.Run(cmd.Context(), language, root, filePath, func(ctx context.Context, entry *pool.Entry, docURI protocol.DocumentURI) (any, error) {
			return entry.Diagnostics.Pull(ctx, docURI, entry.Profile.OperationTimeout), nil
		})
		filesChecked++
		if runErr != nil {
			clean = false
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s: error: %v\n", filePath, runErr)
			bar.Set(i + 1)
			continue
		}

		diags := result.([]protocol.Diagnostic)
		totalDiags += len(diags)
		if len(diags) > 0 {
			clean = false
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s (%d)\n", filePath, len(diags))
		for _, d := range diags {
			fmt.Fprintf(cmd.OutOrStdout(), "  %d:%d %s: %s\n", d.Range.Start.Line+1, d.Range.Start.Character+1, severityLabel(d.Severity), d.Message)
		}
		bar.Set(i + 1)
	}
	bar.Finish()

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d diagnostic(s) across %d file(s)\n", totalDiags, filesChecked)

	if cfg.Report.Enabled {
		if archiveErr := archiveRun(cfg, startedAt, root, filesChecked, totalDiags, matches); archiveErr != nil {
			logger.Warn("failed to archive diagnostics run", zap.Error(archiveErr))
		}
	}

	return clean, nil
}

func archiveRun(cfg *config.Config, startedAt time.Time, root string, filesChecked, totalDiags int, matches []string) error {
	store, err := reportdb.Open(cfg.Report.Path)
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	defer store.Close()

	language := cfg.ForceLanguage
	if language == "" && len(matches) > 0 {
		language, _ = tools.LanguageForFile(matches[0])
	}

	_, err = store.RecordRun(reportdb.Run{
		StartedAt:       startedAt,
		FinishedAt:      time.Now(),
		ProjectRoot:     root,
		Language:        language,
		FilesChecked:    filesChecked,
		DiagnosticCount: totalDiags,
		Summary:         fmt.Sprintf("%d file(s), %d diagnostic(s)", filesChecked, totalDiags),
	})
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	return nil
}

func severityLabel(sev protocol.DiagnosticSeverity) string {
	switch sev {
	case protocol.DiagnosticSeverityError:
		return "error"
	case protocol.DiagnosticSeverityWarning:
		return "warning"
	case protocol.DiagnosticSeverityInformation:
		return "info"
	case protocol.DiagnosticSeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}
