// Package config loads lsmcp's project configuration: which command
// starts each language's server, where the on-disk symbol cache lives,
// and whether report archiving is enabled.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/lsmcp-dev/lsmcp/internal/pool"
)

// ForceLanguageEnv, when set, overrides language detection for every
// request regardless of file extension
const ForceLanguageEnv = "LSMCP_FORCE_LANGUAGE"

// LanguageConfig is one entry of the server-command override table.
type LanguageConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// ReportConfig controls the optional SQLite run archive of the
// supplemented batch-diagnostics feature.
type ReportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config is the broker's configuration, loaded from lsmcp.yml/lsmcp.yaml.
type Config struct {
	Languages map[string]LanguageConfig `mapstructure:"languages"`
	CacheDir  string                    `mapstructure:"cache_dir"`
	Report    ReportConfig              `mapstructure:"report"`

	// ForceLanguage is read directly from ForceLanguageEnv rather than the
	// config file, since it is meant as a throwaway operator override.
	ForceLanguage string `mapstructure:"-"`
}

func defaults() map[string]LanguageConfig {
	return map[string]LanguageConfig{
		"typescript": {Command: "typescript-language-server", Args: []string{"--stdio"}},
		"javascript": {Command: "typescript-language-server", Args: []string{"--stdio"}},
		"rust":       {Command: "rust-analyzer"},
		"pyright":    {Command: "pyright-langserver", Args: []string{"--stdio"}},
		"pylsp":      {Command: "pylsp"},
		"go":         {Command: "gopls", Args: []string{"serve"}},
	}
}

// Load reads lsmcp.yml/lsmcp.yaml from the current directory, falling back
// to built-in defaults for any language not overridden.
func Load() (*Config, error) {
	v := viper.New()

	dflt := defaults()
	for lang, lc := range dflt {
		v.SetDefault("languages."+lang+".command", lc.Command)
		v.SetDefault("languages."+lang+".args", lc.Args)
	}
	home, _ := os.UserHomeDir()
	v.SetDefault("cache_dir", filepath.Join(home, ".cache", "lsmcp"))
	v.SetDefault("report.enabled", false)
	v.SetDefault("report.path", filepath.Join(home, ".cache", "lsmcp", "reports.db"))

	v.SetConfigName("lsmcp")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home != "" {
		v.AddConfigPath(home)
	}

	v.SetEnvPrefix("LSMCP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Merge defaults for languages the config file didn't mention at all.
	if cfg.Languages == nil {
		cfg.Languages = make(map[string]LanguageConfig)
	}
	for lang, lc := range dflt {
		if _, ok := cfg.Languages[lang]; !ok {
			cfg.Languages[lang] = lc
		}
	}

	cfg.ForceLanguage = os.Getenv(ForceLanguageEnv)

	return &cfg, nil
}

// Resolver returns a pool.CommandResolver honoring ForceLanguage when set.
func (c *Config) Resolver() pool.CommandResolver {
	return func(language string) (string, []string, bool) {
		lc, ok := c.Languages[language]
		if !ok || lc.Command == "" {
			return "", nil, false
		}
		return lc.Command, lc.Args, true
	}
}

// ResolveLanguage returns ForceLanguage if set, otherwise detected.
func (c *Config) ResolveLanguage(detected string) string {
	if c.ForceLanguage != "" {
		return c.ForceLanguage
	}
	return detected
}

// ProjectRoot walks up from startDir looking for a language's project
// marker file (go.mod, package.json, Cargo.toml, pyproject.toml,
// setup.py), returning the nearest ancestor containing one. If none is
// found, startDir itself is returned so callers always get a usable root.
func ProjectRoot(startDir string) string {
	markers := []string{"go.mod", "package.json", "Cargo.toml", "pyproject.toml", "setup.py"}

	dir := startDir
	for {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}
