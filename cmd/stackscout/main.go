// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the stackscout CLI.
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/stackscout/internal/logging"
	"github.com/pdiddy/stackscout/internal/planner"
	"github.com/pdiddy/stackscout/internal/research"
	"github.com/pdiddy/stackscout/internal/secrets"
	"github.com/pdiddy/stackscout/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the stackscout CLI.
var rootCmd = &cobra.Command{
	Use:   "stackscout",
	Short: "Tech-stack research for product ideas",
	Long: `stackscout researches which technologies fit a product idea. A reasoning
model plans which technology categories matter for the product, a
search-augmented model researches each category concurrently, and the
normalized findings are aggregated per category.

Run the pipeline once with "research", or expose it over HTTP with "serve".
Completed runs are persisted locally and browsable with "runs".`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./stackscout.yaml or ~/.config/stackscout/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("stackscout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "stackscout"))
		}
	}

	viper.SetEnvPrefix("STACKSCOUT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the stage configurations from the config file,
// environment, and loaded secrets. Config-file values win over key files.
func pipelineConfig() types.PipelineConfig {
	viper.SetDefault("planner.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("planner.plan_timeout", "30s")
	viper.SetDefault("planner.max_queries", 20)
	viper.SetDefault("planner.timeout", "60s")
	viper.SetDefault("research.model", "sonar")
	viper.SetDefault("research.query_timeout", "20s")
	viper.SetDefault("research.timeout", "30s")
	viper.SetDefault("user_agent", "stackscout/0.1")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("store.data_dir", "data")

	userAgent := viper.GetString("user_agent")

	return types.PipelineConfig{
		Planner: types.PlannerConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("planner.timeout"),
				UserAgent: userAgent,
			},
			Model:       viper.GetString("planner.model"),
			APIKey:      secrets.Or(loadedSecrets, secrets.AnthropicAPIKey, viper.GetString("planner.api_key")),
			PlanTimeout: viper.GetDuration("planner.plan_timeout"),
			MaxQueries:  viper.GetInt("planner.max_queries"),
			MaxTokens:   viper.GetInt("planner.max_tokens"),
		},
		Research: types.ResearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("research.timeout"),
				UserAgent: userAgent,
			},
			Model:        viper.GetString("research.model"),
			APIKey:       secrets.Or(loadedSecrets, secrets.PerplexityAPIKey, viper.GetString("research.api_key")),
			QueryTimeout: viper.GetDuration("research.query_timeout"),
			MaxTokens:    viper.GetInt("research.max_tokens"),
		},
		Server: types.ServerConfig{
			Addr:         viper.GetString("server.addr"),
			AuthToken:    secrets.Or(loadedSecrets, secrets.AuthToken, viper.GetString("server.auth_token")),
			ReadTimeout:  viper.GetDuration("server.read_timeout"),
			WriteTimeout: viper.GetDuration("server.write_timeout"),
		},
		Store: types.StoreConfig{
			DataDir: viper.GetString("store.data_dir"),
			MaxRuns: viper.GetInt("store.max_runs"),
		},
		Logging: types.LoggingConfig{
			Level:       viper.GetString("logging.level"),
			Development: viper.GetBool("logging.development"),
		},
	}
}

// newLogger builds the shared zap logger; on failure it falls back to a nop
// logger so commands still run.
func newLogger(cfg types.LoggingConfig) *zap.Logger {
	log, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logger disabled: %v\n", err)
		return zap.NewNop()
	}
	return log
}

// buildOrchestrator wires the provider backends into an orchestrator. Each
// provider gets its own http.Client; both support concurrent independent
// calls.
func buildOrchestrator(cfg types.PipelineConfig, log *zap.Logger) *research.Orchestrator {
	plannerClient := &http.Client{Timeout: httpTimeout(cfg.Planner.Timeout, 60*time.Second)}
	researchClient := &http.Client{Timeout: httpTimeout(cfg.Research.Timeout, 30*time.Second)}

	p := planner.New(
		&planner.AnthropicBackend{Client: plannerClient, Config: cfg.Planner},
		cfg.Planner, log)
	r := research.NewResearcher(
		&research.PerplexityBackend{Client: researchClient, Config: cfg.Research},
		cfg.Research, log)

	return research.NewOrchestrator(p, r, log)
}

func httpTimeout(configured, fallback time.Duration) time.Duration {
	if configured > 0 {
		return configured
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
