package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/questgen/internal/config"
	"github.com/abhisek/questgen/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "questgen",
	Short: "Personalized multi-type question generator",
	Long: `questgen generates personalized practice questions across several question
types in one request, scoring each type's relevance against a search backend
and falling back to template content when a generator is unavailable.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUESTGEN_DB env var)")
	rootCmd.PersistentFlags().String("search-url", "", "Search backend base URL (overrides QUESTGEN_SEARCH_URL env var)")
	rootCmd.PersistentFlags().String("env-file", "", "Load environment from this file instead of ./.env")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(distributeCmd)
	rootCmd.AddCommand(taxonomyCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the environment and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var files []string
	if f, _ := cmd.Flags().GetString("env-file"); f != "" {
		files = append(files, f)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	if u, _ := cmd.Flags().GetString("search-url"); u != "" {
		cfg.Search.BaseURL = u
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then QUESTGEN_DB env var, then the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// openStore loads configuration and opens the audit database.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, err
	}
	return store.Open(dbPath)
}
