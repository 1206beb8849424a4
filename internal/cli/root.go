// Package cli implements the recall CLI commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mstolt/recall/internal/config"
	"github.com/mstolt/recall/internal/llm"
	"github.com/mstolt/recall/internal/store"
)

var dbPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Long-term memory engine for a conversational companion",
	Long:  "Typed, scored, self-maintaining memory for an LLM companion. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $RECALL_DB or ~/.recall/memory.db)")
}

// app bundles everything a command needs: config, logger, persistence,
// model client, and the loaded store.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	db       *store.DB
	store    *store.Store
	llm      llm.Client
	closeLog func() error
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)

	db, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		closeLog()
		return nil, err
	}

	client := llm.NewOllama(cfg.OllamaHost, cfg.ChatModel, cfg.EmbedModel)
	st := store.New(context.Background(), db, client, nil, storeOptions(cfg.Policy), logger)

	return &app{cfg: cfg, log: logger, db: db, store: st, llm: client, closeLog: closeLog}, nil
}

func (a *app) Close() {
	a.db.Close()
	a.closeLog()
}

func storeOptions(p config.Policy) store.Options {
	return store.Options{
		Weights:             p.Weights,
		SearchThreshold:     p.SearchThreshold,
		SimilarityThreshold: p.SimilarityThreshold,
		SearchLimit:         p.SearchLimit,
		SimilarityLimit:     p.SimilarityLimit,
		RecencyDecay:        p.RecencyDecay,
		ConsolidateAfter:    p.ConsolidateAfter.Std(),
		ConsolidateMin:      p.ConsolidateMin,
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
