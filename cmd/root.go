package cmd

import (
	"fmt"

	"github.com/hemisphere-labs/engine/internal/store"
	"github.com/hemisphere-labs/engine/internal/store/sqlite"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Adaptive spaced-repetition learning engine",
	Long:  "engine — a standalone driver for the FSRS scheduler, adaptive selector and session orchestrator, backed by a local SQLite store.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides ENGINE_DB env var)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(tuneCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then ENGINE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openRepo opens the database at the resolved path, runs the schema
// migration (a no-op once applied) and returns a ready Repository. The
// caller is responsible for closing the returned Store.
func openRepo(cmd *cobra.Command) (*sqlite.Repository, *store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	repo, err := sqlite.New(st)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("prepare repository: %w", err)
	}
	if err := repo.Migrate(); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("migrate schema: %w", err)
	}
	return repo, st, nil
}
