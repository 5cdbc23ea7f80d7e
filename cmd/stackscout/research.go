// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/stackscout/internal/research"
	"github.com/pdiddy/stackscout/internal/secrets"
	"github.com/pdiddy/stackscout/internal/store"
	"github.com/pdiddy/stackscout/pkg/types"
)

var (
	researchContextFile string
	researchFormat      string
	researchSave        bool
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run the research pipeline once for a product context",
	Long: `Research reads a product context from a JSON or YAML file, plans which
technology categories matter, researches each category concurrently, and
prints the aggregated findings.

The context file needs at least a product name and description:

  product_name: Notely
  description: A collaborative note-taking app for small teams
  target_audience: remote startups
  core_features:
    - real-time editing
    - offline sync`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pctx, err := loadProductContext(researchContextFile)
		if err != nil {
			return err
		}
		if strings.TrimSpace(pctx.ProductName) == "" || strings.TrimSpace(pctx.Description) == "" {
			return fmt.Errorf("product context needs both product_name and description")
		}

		cfg := pipelineConfig()
		log := newLogger(cfg.Logging)
		defer log.Sync()

		if cfg.Planner.APIKey == "" || cfg.Research.APIKey == "" {
			return fmt.Errorf("both provider API keys are required (see .secrets/%s and .secrets/%s)",
				secrets.AnthropicAPIKey, secrets.PerplexityAPIKey)
		}

		orch := buildOrchestrator(cfg, log)
		agg, err := orch.Run(cmd.Context(), pctx)
		if err != nil {
			return err
		}

		if researchSave {
			if err := saveRun(cmd.Context(), cfg.Store, pctx, agg, log); err != nil {
				log.Warn("run not persisted", zap.Error(err))
			}
		}

		switch researchFormat {
		case "table":
			research.FormatTable(agg, os.Stdout)
			return nil
		case "json":
			return research.FormatJSON(agg, os.Stdout)
		case "yaml":
			return research.FormatYAML(agg, os.Stdout)
		default:
			return fmt.Errorf("unknown format %q (want table, json, or yaml)", researchFormat)
		}
	},
}

func init() {
	researchCmd.Flags().StringVar(&researchContextFile, "context", "", "path to a product context file (JSON or YAML)")
	researchCmd.Flags().StringVar(&researchFormat, "format", "table", "output format: table, json, or yaml")
	researchCmd.Flags().BoolVar(&researchSave, "save", false, "persist the run to the local store")
	researchCmd.MarkFlagRequired("context")
	rootCmd.AddCommand(researchCmd)
}

// loadProductContext reads a JSON or YAML context file, picking the decoder
// by extension with a JSON fallback for anything else.
func loadProductContext(path string) (types.ProductContext, error) {
	var pctx types.ProductContext

	data, err := os.ReadFile(path)
	if err != nil {
		return pctx, fmt.Errorf("reading context file: %w", err)
	}

	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &pctx); err != nil {
			return pctx, fmt.Errorf("parsing context file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &pctx); err != nil {
			return pctx, fmt.Errorf("parsing context file: %w", err)
		}
	}
	return pctx, nil
}

func saveRun(ctx context.Context, cfg types.StoreConfig, pctx types.ProductContext, agg types.ResearchAggregate, log *zap.Logger) error {
	st, err := store.New(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.SaveRun(ctx, pctx, agg)
	if err != nil {
		return err
	}
	log.Info("run saved", zap.String("id", run.ID))
	return nil
}
