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
	"github.com/lsmcp-dev/lsmcp/internal/symbolindex"
	"github.com/lsmcp-dev/lsmcp/internal/tools"
)

const indexOperationTimeout = 30 * time.Second

var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
	"target": true, "dist": true, "build": true, "__pycache__": true,
}

// NewIndexCommand creates the index command, which eagerly warms the
// on-disk symbol cache for a project without starting the MCP server, so a
// later "lsmcp serve" finds every unchanged file already cached.
func NewIndexCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Warm the on-disk symbol cache for a project",
		Long: `Walk a project, run textDocument/documentSymbol against every source
file recognized by a configured language, and populate the on-disk symbol
cache. A subsequent "lsmcp serve" run then serves those files from cache
instead of reaching the language server again; "lsmcp diagnostics" does
not use the symbol cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, root)
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "project root; defaults to the current directory's project root")
	return cmd
}

func runIndex(cmd *cobra.Command, root string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("index: build logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("index: load config: %w", err)
	}
	if err := warnOnUnknownForceLanguage(cmd, cfg); err != nil {
		return err
	}

	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("index: getwd: %w", err)
		}
		root = config.ProjectRoot(wd)
	}

	files, err := discoverSourceFiles(root, cfg)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if len(files) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no recognized source files under %s\n", root)
		return nil
	}

	cache, err := symbolindex.NewCache(cfg.CacheDir, cacheSize)
	if err != nil {
		return fmt.Errorf("index: open symbol cache: %w", err)
	}

	p := pool.New(cfg.Resolver(), drainGrace, killGrace, logger)
	defer p.ShutdownAll()
	orch := orchestrator.New(p, logger)

	noColor := os.Getenv("NO_COLOR") != ""
	bar := ui.NewProgressBar(cmd.OutOrStdout(), ui.ProgressBarOptions{
		Total:   len(files),
		Message: "indexing",
		NoColor: noColor,
	})

	indexed, skipped := 0, 0
	for i, file := range files {
		relPath, relErr := filepath.Rel(root, file)
		if relErr != nil {
			relPath = file
		}

		content, readErr := os.ReadFile(file)
		if readErr != nil {
			skipped++
			bar.Set(i + 1)
			continue
		}
		hash := symbolindex.HashContent(content)
		if _, hit := cache.Get(root, relPath, hash); hit {
			indexed++
			bar.Set(i + 1)
			continue
		}

		language, _ := tools.LanguageForFile(file)
		language = cfg.ResolveLanguage(language)

		ctx, cancel := context.WithTimeout(cmd.Context(), indexOperationTimeout)
		result, runErr := orch.Run(ctx, language, root, file, func(ctx context.Context, entry *pool.Entry, docURI protocol.DocumentURI) (any, error) {
			var symbols []protocol.DocumentSymbol
			params := protocol.DocumentSymbolParams{TextDocument: protocol.TextDocumentIdentifier{URI: docURI}}
			if callErr := entry.Process.Client.Call(ctx, protocol.MethodTextDocumentDocumentSymbol, params, &symbols, entry.Profile.OperationTimeout); callErr != nil {
				return nil, callErr
			}
			return symbols, nil
		})
		cancel()
		if runErr != nil {
			logger.Debug("index failed", zap.String("file", file), zap.Error(runErr))
			skipped++
			bar.Set(i + 1)
			continue
		}

		symbols := flattenSymbols(result.([]protocol.DocumentSymbol), file, "", isExternalFile(root, file))
		if putErr := cache.Put(root, relPath, hash, symbols); putErr != nil {
			logger.Debug("cache put failed", zap.String("file", file), zap.Error(putErr))
		}
		indexed++
		bar.Set(i + 1)
	}
	bar.Finish()

	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d file(s), skipped %d\n", indexed, skipped)
	return nil
}

func discoverSourceFiles(root string, cfg *config.Config) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if skipDirs[filepath.Base(path)] {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := tools.LanguageForFile(path); ok || cfg.ForceLanguage != "" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
