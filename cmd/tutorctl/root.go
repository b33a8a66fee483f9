package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/sambhav874/tuition-teacher/internal/config"
	"github.com/sambhav874/tuition-teacher/internal/store"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tutorctl",
		Short:         "Inspect and maintain tutor state",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := log.WarnLevel
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = log.DebugLevel
			}
			slog.SetDefault(slog.New(log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Level: level})))

			if err := godotenv.Load(); err == nil {
				slog.Debug("loaded .env")
			}
		},
	}

	rootCmd.PersistentFlags().String("db", "", "path to the SQLite database (defaults to DB_PATH)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newUsersCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newCleanupCmd())

	return rootCmd
}

func resolveDBPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		return path, nil
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		return path, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("resolve database path: %w", err)
	}
	return cfg.DBPath, nil
}

// openStore opens the repository named by --db and returns a close func.
func openStore(cmd *cobra.Command) (*store.SQLiteStore, func(), error) {
	path, err := resolveDBPath(cmd)
	if err != nil {
		return nil, nil, err
	}
	repo, err := store.NewSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	return repo, func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Warn("failed to close repository", "error", closeErr)
		}
	}, nil
}
