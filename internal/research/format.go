// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/stackscout/pkg/types"
)

// FormatTable writes an aggregate as a human-readable report to w.
// Categories are sorted for stable display; completion order of the
// underlying research is not deterministic.
func FormatTable(agg types.ResearchAggregate, w io.Writer) {
	if len(agg.QueriesGenerated) == 0 {
		fmt.Fprintln(w, "No research was needed for this product.")
		return
	}

	categories := make([]string, 0, len(agg.ResearchResults))
	for c := range agg.ResearchResults {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, c := range categories {
		findings := agg.ResearchResults[c]
		fmt.Fprintf(w, "%s (%s)\n", types.FormatCategory(c), findings.Reasoning)
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, opt := range findings.Options {
			fmt.Fprintf(w, "  %s", opt.Name)
			if opt.Popularity != "" {
				fmt.Fprintf(w, "  [%s]", opt.Popularity)
			}
			fmt.Fprintln(w)
			if opt.Description != "" {
				fmt.Fprintf(w, "    %s\n", opt.Description)
			}
			for _, p := range opt.Pros {
				fmt.Fprintf(w, "    + %s\n", p)
			}
			for _, cn := range opt.Cons {
				fmt.Fprintf(w, "    - %s\n", cn)
			}
			if opt.LearnMore != "" {
				fmt.Fprintf(w, "    %s\n", opt.LearnMore)
			}
		}
		fmt.Fprintln(w)
	}

	// Categories attempted but without findings.
	var empty []string
	for _, rec := range agg.QueriesGenerated {
		if _, ok := agg.ResearchResults[rec.Category]; !ok {
			empty = append(empty, rec.Category)
		}
	}
	if len(empty) > 0 {
		fmt.Fprintf(w, "No options found for: %s\n", strings.Join(empty, ", "))
	}

	fmt.Fprintln(w, Summarize(agg))
}

// FormatJSON writes an aggregate as indented JSON to w.
func FormatJSON(agg types.ResearchAggregate, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(agg)
}

// FormatYAML writes an aggregate as YAML to w.
func FormatYAML(agg types.ResearchAggregate, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(agg)
}
