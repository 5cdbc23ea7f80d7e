// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/stackscout/internal/secrets"
	"github.com/pdiddy/stackscout/internal/server"
	"github.com/pdiddy/stackscout/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the research API server",
	Long: `Serve exposes the pipeline over HTTP: POST /api/research runs the full
plan-and-research flow, GET /api/runs and GET /api/runs/{id} browse
persisted runs, and GET /healthz reports liveness.

If the run store cannot be opened the server still starts; runs are
simply not persisted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()
		log := newLogger(cfg.Logging)
		defer log.Sync()

		if cfg.Planner.APIKey == "" || cfg.Research.APIKey == "" {
			return fmt.Errorf("both provider API keys are required (see .secrets/%s and .secrets/%s)",
				secrets.AnthropicAPIKey, secrets.PerplexityAPIKey)
		}

		orch := buildOrchestrator(cfg, log)

		var runs server.RunStore
		st, err := store.New(cfg.Store)
		if err != nil {
			log.Warn("run store unavailable, persistence disabled", zap.Error(err))
		} else {
			runs = st
			defer st.Close()
		}

		srv := server.New(orch, runs, cfg.Server, log)
		log.Info("starting server", zap.String("addr", cfg.Server.Addr))
		return srv.ListenAndServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
