// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/stackscout/internal/research"
	"github.com/pdiddy/stackscout/internal/store"
)

var runsJSON bool

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse persisted research runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()

		st, err := store.New(cfg.Store)
		if err != nil {
			return fmt.Errorf("opening run store: %w", err)
		}
		defer st.Close()

		summaries, err := st.ListRuns(cmd.Context())
		if err != nil {
			return err
		}

		if runsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summaries)
		}

		if len(summaries) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPRODUCT\tCREATED\tCATEGORIES\tWITH OPTIONS")
		for _, s := range summaries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
				s.ID, s.ProductName, s.CreatedAt.Format("2006-01-02 15:04"), s.Categories, s.WithOptions)
		}
		return tw.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run's aggregated findings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()

		st, err := store.New(cfg.Store)
		if err != nil {
			return fmt.Errorf("opening run store: %w", err)
		}
		defer st.Close()

		run, err := st.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if runsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}

		fmt.Printf("Run %s for %q (%s)\n\n", run.ID, run.ProductName, run.CreatedAt.Format("2006-01-02 15:04"))
		research.FormatTable(run.Aggregate, os.Stdout)
		return nil
	},
}

func init() {
	runsCmd.PersistentFlags().BoolVar(&runsJSON, "json", false, "emit JSON instead of a table")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
