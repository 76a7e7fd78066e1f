// Package cli implements the recall CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/config"
	"github.com/recallhq/recall/internal/embedding"
	"github.com/recallhq/recall/internal/logging"
	"github.com/recallhq/recall/internal/store"
)

var (
	dbPath   string
	logLevel string

	cfg *config.Config
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Persistent memory for AI agents with hybrid retrieval",
	Long:  "Content-addressed memory for AI agents. Stores facts and documents, dedups by fingerprint, and retrieves by fused lexical and vector ranking. SQLite-backed, single binary.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}
		logging.Configure(level)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $RECALL_DB or ~/.recall/memory.db)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
}

func getConfig() *config.Config {
	if cfg != nil {
		return cfg
	}
	c, err := config.LoadDefault()
	if err != nil {
		exitErr("load config", err)
	}
	cfg = c
	return cfg
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return getConfig().DBPath
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

// getEmbedder returns the configured embedding provider, or nil when
// embeddings are disabled.
func getEmbedder() embedding.Embedder {
	return getConfig().NewEmbedder()
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
