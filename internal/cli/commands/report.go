package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lsmcp-dev/lsmcp/internal/cli/ui"
	"github.com/lsmcp-dev/lsmcp/internal/config"
	"github.com/lsmcp-dev/lsmcp/internal/reportdb"
)

// NewReportCommand creates the report command group, which inspects the
// archived batch-diagnostics run history of the supplemented
// report-archive feature.
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect archived diagnostic run history",
		Long: `Inspect the SQLite archive of past batch-diagnostics runs.

Archiving only happens when report.enabled is set in lsmcp.yml; the
archive itself is populated by "lsmcp diagnostics", not by this command,
which is read-only.`,
	}

	cmd.AddCommand(newReportListCommand())
	cmd.AddCommand(newReportShowCommand())
	return cmd
}

func newReportListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent archived runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openReportStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return fmt.Errorf("report list: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no archived runs")
				return nil
			}

			table := ui.NewTable(cmd.OutOrStdout(),
				[]string{"ID", "STARTED", "LANGUAGE", "ROOT", "FILES", "DIAGNOSTICS"}, nil)
			for _, r := range runs {
				table.AddRow(
					strconv.FormatInt(r.ID, 10),
					r.StartedAt.Format("2006-01-02 15:04:05"),
					r.Language,
					r.ProjectRoot,
					strconv.Itoa(r.FilesChecked),
					strconv.Itoa(r.DiagnosticCount),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	return cmd
}

func newReportShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one archived run in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("report show: invalid run id %q", args[0])
			}

			store, err := openReportStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(id)
			if err != nil {
				return fmt.Errorf("report show: %w", err)
			}
			if run == nil {
				return fmt.Errorf("report show: no run with id %d", id)
			}

			kv := ui.NewKeyValueTable(cmd.OutOrStdout(), false)
			kv.AddRow("id", strconv.FormatInt(run.ID, 10))
			kv.AddRow("started", run.StartedAt.String())
			kv.AddRow("finished", run.FinishedAt.String())
			kv.AddRow("language", run.Language)
			kv.AddRow("project root", run.ProjectRoot)
			kv.AddRow("files checked", strconv.Itoa(run.FilesChecked))
			kv.AddRow("diagnostics", strconv.Itoa(run.DiagnosticCount))
			kv.AddRow("summary", run.Summary)
			kv.Render()
			return nil
		},
	}
}

func openReportStore() (*reportdb.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("%s", ui.ConfigError(err.Error(), nil, false))
	}
	if !cfg.Report.Enabled {
		return nil, fmt.Errorf("%s", ui.ReportDisabledError(false))
	}
	store, err := reportdb.Open(cfg.Report.Path)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return store, nil
}
