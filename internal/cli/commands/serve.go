package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/lsmcp-dev/lsmcp/internal/cli/ui"
	"github.com/lsmcp-dev/lsmcp/internal/config"
	"github.com/lsmcp-dev/lsmcp/internal/orchestrator"
	"github.com/lsmcp-dev/lsmcp/internal/pool"
	"github.com/lsmcp-dev/lsmcp/internal/symbolindex"
	"github.com/lsmcp-dev/lsmcp/internal/tools"
	"github.com/lsmcp-dev/lsmcp/internal/watch"
)

const (
	drainGrace = 2 * time.Minute
	killGrace  = 5 * time.Second
	cacheSize  = 4096
)

// NewServeCommand creates the serve command, which starts the broker's MCP
// tool server over stdio
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP tool server",
		Long: `Start lsmcp's Model Context Protocol server.

This command exposes the code-intelligence tool table (hover, references,
definitions, diagnostics, rename, completion, and friends) over stdio,
for an external assistant to drive. Each tool call spawns or reuses a
pooled language-server process for the project it targets.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("serve: build logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("serve: load config: %w", err)
	}
	if err := warnOnUnknownForceLanguage(cmd, cfg); err != nil {
		return err
	}

	p := pool.New(cfg.Resolver(), drainGrace, killGrace, logger)

	index := symbolindex.New()
	cache, err := symbolindex.NewCache(cfg.CacheDir, cacheSize)
	if err != nil {
		return fmt.Errorf("serve: open symbol cache: %w", err)
	}
	bus := symbolindex.NewBus()

	orch := orchestrator.New(p, logger)

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("serve: getwd: %w", err)
	}
	root = config.ProjectRoot(root)

	w, err := watch.New(root, index, cache, bus, reindexFunc(orch, cfg, logger), logger)
	if err != nil {
		return fmt.Errorf("serve: build watcher: %w", err)
	}
	startErr := ui.WithSpinner(cmd.OutOrStdout(), "starting file watcher", os.Getenv("NO_COLOR") != "", w.Start)
	if startErr != nil {
		return fmt.Errorf("serve: start watcher: %w", startErr)
	}
	defer w.Stop()

	mcpServer := mcpserver.NewMCPServer("lsmcp", Version)
	tools.Register(mcpServer, tools.Deps{
		Orchestrator: orch,
		Index:        index,
		Config:       cfg,
		Logger:       logger,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down, draining pooled servers")
		p.ShutdownAll()
		os.Exit(0)
	}()

	logger.Info("lsmcp serving over stdio")
	serveErr := mcpserver.ServeStdio(mcpServer)
	p.ShutdownAll()
	if serveErr != nil {
		return fmt.Errorf("serve: %w", serveErr)
	}
	return nil
}

// reindexFunc adapts the orchestrator into a watch.ReindexFunc: a
// textDocument/documentSymbol round trip against the pooled server for
// file's language, flattened into symbolindex.Symbol rows.
func reindexFunc(orch *orchestrator.Orchestrator, cfg *config.Config, logger *zap.Logger) watch.ReindexFunc {
	return func(file string) ([]*symbolindex.Symbol, error) {
		language, ok := tools.LanguageForFile(file)
		if !ok {
			if cfg.ForceLanguage == "" {
				logger.Debug(ui.LanguageNotConfiguredError(file, languageNames(cfg), true))
				return nil, fmt.Errorf("reindex %s: unknown language", file)
			}
			language = cfg.ForceLanguage
		}
		language = cfg.ResolveLanguage(language)
		root := config.ProjectRoot(file)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result, err := orch.Run(ctx, language, root, file, func(ctx context.Context, entry *pool.Entry, docURI protocol.DocumentURI) (any, error) {
			var symbols []protocol.DocumentSymbol
			params := protocol.DocumentSymbolParams{TextDocument: protocol.TextDocumentIdentifier{URI: docURI}}
			if callErr := entry.Process.Client.Call(ctx, protocol.MethodTextDocumentDocumentSymbol, params, &symbols, entry.Profile.OperationTimeout); callErr != nil {
				return nil, callErr
			}
			return symbols, nil
		})
		if err != nil {
			logger.Debug(ui.LanguageServerError(language, err.Error(), true))
			return nil, err
		}
		return flattenSymbols(result.([]protocol.DocumentSymbol), file, "", isExternalFile(root, file)), nil
	}
}

func languageNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Languages))
	for lang := range cfg.Languages {
		names = append(names, lang)
	}
	return names
}

func flattenSymbols(docSymbols []protocol.DocumentSymbol, file, container string, external bool) []*symbolindex.Symbol {
	var out []*symbolindex.Symbol
	for _, s := range docSymbols {
		out = append(out, &symbolindex.Symbol{
			Name:      s.Name,
			Kind:      s.Kind,
			Container: container,
			File:      file,
			Range:     s.Range,
			External:  external,
		})
		out = append(out, flattenSymbols(s.Children, file, s.Name, external)...)
	}
	return out
}

// isExternalFile reports whether file resolves outside root once symlinks
// are followed, the case when a language server's documentSymbol response
// names a file reached through a symlinked dependency (a vendored package
// or a go.mod replace directive pointing outside the project tree).
func isExternalFile(root, file string) bool {
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		resolvedRoot = root
	}
	resolvedFile, err := filepath.EvalSymlinks(file)
	if err != nil {
		resolvedFile = file
	}
	rel, err := filepath.Rel(resolvedRoot, resolvedFile)
	if err != nil {
		return true
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
