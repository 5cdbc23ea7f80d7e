// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// ResearchQuery is one planner-issued unit of research work. Categories are
// open string slugs ("frontend", "external-apis"), not a closed enum: product
// shapes vary too widely for a fixed taxonomy, so every consumer must handle
// an arbitrary, possibly empty category set.
type ResearchQuery struct {
	// Category is a short slug naming the technology area.
	Category string `json:"category" yaml:"category"`

	// Query is the literal text sent to the search model.
	Query string `json:"query" yaml:"query"`

	// Reasoning is a short human-readable justification for researching
	// this category.
	Reasoning string `json:"reasoning" yaml:"reasoning"`
}

// IsValid reports whether all required fields are non-empty.
func (q ResearchQuery) IsValid() bool {
	return strings.TrimSpace(q.Category) != "" &&
		strings.TrimSpace(q.Query) != "" &&
		strings.TrimSpace(q.Reasoning) != ""
}

// TechOption is one normalized technology recommendation extracted from a
// search model answer. Duplicate names within a list are tolerated; the
// upstream source may repeat itself and deduplication could silently drop
// legitimately distinct options sharing a name.
type TechOption struct {
	// Name is the technology name. Required.
	Name string `json:"name" yaml:"name"`

	// Description summarizes what the technology is.
	Description string `json:"description" yaml:"description"`

	// Pros lists advantages, in source order.
	Pros []string `json:"pros" yaml:"pros"`

	// Cons lists disadvantages, in source order.
	Cons []string `json:"cons" yaml:"cons"`

	// Popularity is an optional free-text adoption signal.
	Popularity string `json:"popularity,omitempty" yaml:"popularity,omitempty"`

	// LearnMore is an optional URL for further reading.
	LearnMore string `json:"learnMore,omitempty" yaml:"learn_more,omitempty"`
}

// CategoryResult is the outcome of researching one category. An empty
// Options list is a valid terminal state (timeout, provider error,
// unparseable answer), not a pipeline error.
type CategoryResult struct {
	Category  string       `json:"category" yaml:"category"`
	Options   []TechOption `json:"options" yaml:"options"`
	Reasoning string       `json:"reasoning" yaml:"reasoning"`
}

// CategoryFindings is the per-category value stored in a ResearchAggregate.
type CategoryFindings struct {
	Options   []TechOption `json:"options" yaml:"options"`
	Reasoning string       `json:"reasoning" yaml:"reasoning"`
}

// QueryRecord is the audit entry for one attempted category, kept regardless
// of whether the research produced options.
type QueryRecord struct {
	Category  string `json:"category" yaml:"category"`
	Reasoning string `json:"reasoning" yaml:"reasoning"`
}

// ResearchAggregate is the combined result of one pipeline run.
// ResearchResults contains only categories that produced at least one option;
// QueriesGenerated records every category attempted, so callers can show
// "we looked at X but found nothing" distinctly from "we never looked at X".
type ResearchAggregate struct {
	ResearchResults  map[string]CategoryFindings `json:"researchResults" yaml:"research_results"`
	QueriesGenerated []QueryRecord               `json:"queriesGenerated" yaml:"queries_generated"`
}

// FormatCategory renders a category slug for display: hyphens become spaces
// and each word is capitalized ("external-apis" → "External Apis").
func FormatCategory(slug string) string {
	words := strings.Split(strings.ReplaceAll(slug, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
