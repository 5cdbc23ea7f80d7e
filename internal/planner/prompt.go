// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/stackscout/pkg/types"
)

// suggestedCategories is illustrative, not exhaustive. The prompt tells the
// model to invent categories outside this list and to skip any that do not
// apply to the product at hand.
var suggestedCategories = []string{
	"frontend",
	"backend",
	"database",
	"hosting",
	"authentication",
	"external-apis",
	"payments",
	"analytics",
}

// buildPrompt embeds the product context into a single planning prompt. The
// category set is conditional on relevance: a static marketing site needs no
// database, a Firebase-backed app needs no custom backend.
func buildPrompt(pctx types.ProductContext) string {
	var b strings.Builder

	b.WriteString("You are planning technology research for a new software product.\n\n")
	fmt.Fprintf(&b, "Product name: %s\n", pctx.ProductName)
	fmt.Fprintf(&b, "Description: %s\n", pctx.Description)
	if pctx.TargetAudience != "" {
		fmt.Fprintf(&b, "Target audience: %s\n", pctx.TargetAudience)
	}
	if len(pctx.CoreFeatures) > 0 {
		b.WriteString("Core features:\n")
		for _, f := range pctx.CoreFeatures {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	if len(pctx.Answers) > 0 {
		b.WriteString("Clarifying answers:\n")
		for _, q := range sortedKeys(pctx.Answers) {
			fmt.Fprintf(&b, "- Q: %s\n  A: %s\n", q, pctx.Answers[q])
		}
	}

	b.WriteString("\nDecide which technology categories actually matter for this product. ")
	b.WriteString("Example categories: ")
	b.WriteString(strings.Join(suggestedCategories, ", "))
	b.WriteString(". These are suggestions only: invent other categories when the product ")
	b.WriteString("calls for them, and omit any that do not apply. A static marketing site ")
	b.WriteString("needs no database; an app built on Firebase needs no custom backend. ")
	b.WriteString("Return an empty list if no research is needed.\n\n")

	b.WriteString("Respond with only a JSON array, one element per relevant category:\n")
	b.WriteString(`[{"category": "short-slug", "query": "the research question to send to a search engine", "reasoning": "one sentence on why this category matters for this product"}]`)
	b.WriteString("\n")

	return b.String()
}

// sortedKeys returns map keys in stable order so prompts are reproducible.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
