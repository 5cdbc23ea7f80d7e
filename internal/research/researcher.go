// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research executes planner-issued queries against a search-augmented
// model and aggregates the per-category findings. Every failure mode of a
// single category (timeout, provider error, unparseable answer) resolves to
// the same empty-options result; partial success is the expected common case,
// not an exception.
//
// See docs/ARCHITECTURE § Research.
package research

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/stackscout/internal/extract"
	"github.com/pdiddy/stackscout/pkg/types"
)

const defaultQueryTimeout = 20 * time.Second

// Backend abstracts the search-augmented model API so tests can supply a mock.
type Backend interface {
	// Ask sends one research prompt and returns the raw answer text.
	Ask(ctx context.Context, prompt string) (string, error)
}

// Researcher runs single-category research calls.
type Researcher struct {
	backend Backend
	cfg     types.ResearchConfig
	log     *zap.Logger
}

// NewResearcher constructs a Researcher. A nil logger disables logging.
func NewResearcher(backend Backend, cfg types.ResearchConfig, log *zap.Logger) *Researcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Researcher{backend: backend, cfg: cfg, log: log}
}

// Research executes one planner-issued query under the configured timeout
// (default 20s) and normalizes the answer into TechOptions. It never returns
// an error: whatever goes wrong, the caller gets a CategoryResult whose
// empty Options list is the uniform "nothing usable" signal, and the cause
// lands in the log with the category attached.
func (r *Researcher) Research(ctx context.Context, q types.ResearchQuery) types.CategoryResult {
	result := types.CategoryResult{Category: q.Category, Reasoning: q.Reasoning}

	timeout := r.cfg.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := r.backend.Ask(ctx, researchPrompt(q.Query))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			r.log.Warn("category research timed out",
				zap.String("category", q.Category),
				zap.Duration("timeout", timeout))
		} else {
			r.log.Warn("category research failed",
				zap.String("category", q.Category),
				zap.Error(err))
		}
		return result
	}

	options := decodeOptions(raw)
	if len(options) == 0 {
		r.log.Warn("category research produced no parseable options",
			zap.String("category", q.Category),
			zap.Int("answer_bytes", len(raw)))
		return result
	}

	r.log.Info("category research complete",
		zap.String("category", q.Category),
		zap.Int("options", len(options)))

	result.Options = options
	return result
}

// researchPrompt wraps the planner's query with output-format instructions.
// The search model is not guaranteed to honor them, which is why decoding
// falls back to prose parsing.
func researchPrompt(query string) string {
	return query + "\n\nFor each recommended technology, give its name, a one-sentence " +
		"description, pros, cons, how popular it is, and a link to learn more. " +
		`Prefer responding as a JSON array: [{"name": "...", "description": "...", ` +
		`"pros": ["..."], "cons": ["..."], "popularity": "...", "learnMore": "https://..."}]`
}

// optionsEnvelope matches answers that wrap the list in an object.
type optionsEnvelope struct {
	Options []types.TechOption `json:"options"`
}

// decodeOptions converts a raw model answer into TechOptions using a
// two-stage decode: structured extraction first (bare array, then an
// {"options": [...]} envelope), heuristic prose parsing second. Options
// without a name are dropped; names are the only required field.
func decodeOptions(raw string) []types.TechOption {
	if opts, ok := extract.Structured[[]types.TechOption](raw); ok {
		if named := keepNamed(opts); len(named) > 0 {
			return named
		}
	}
	if env, ok := extract.Structured[optionsEnvelope](raw); ok {
		if named := keepNamed(env.Options); len(named) > 0 {
			return named
		}
	}
	return parseProse(raw)
}

func keepNamed(opts []types.TechOption) []types.TechOption {
	var named []types.TechOption
	for _, o := range opts {
		if o.Name != "" {
			named = append(named, o)
		}
	}
	return named
}
