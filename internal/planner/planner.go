// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner decides which technology categories merit research for a
// product and issues one search query per category. Categories are open
// data, not a fixed schema: the model is free to return zero, a few, or many
// depending on what the product actually needs.
//
// See docs/ARCHITECTURE § Planning.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/stackscout/internal/extract"
	"github.com/pdiddy/stackscout/pkg/types"
)

// ErrTimeout reports that the planning call exceeded its deadline. Callers
// surface it distinctly: retrying the whole plan is cheap and likely to
// succeed, so the user gets a specific "try again" message.
var ErrTimeout = errors.New("query planning timed out")

// ErrInvalidPlan reports that the model returned a plan failing shape or
// field checks. A malformed plan is retried whole, never partially trusted.
var ErrInvalidPlan = errors.New("invalid research plan")

const (
	defaultPlanTimeout = 30 * time.Second
	defaultMaxQueries  = 20
)

// Backend abstracts the reasoning model API so tests can supply a mock.
type Backend interface {
	// Complete sends one prompt and returns the raw text response.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Planner generates research plans against a reasoning model backend.
type Planner struct {
	backend Backend
	cfg     types.PlannerConfig
	log     *zap.Logger
}

// New constructs a Planner. A nil logger disables logging.
func New(backend Backend, cfg types.PlannerConfig, log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{backend: backend, cfg: cfg, log: log}
}

// PlanQueries asks the reasoning model which technology categories are
// relevant to the product and returns one validated ResearchQuery per
// category. An empty plan is valid output meaning no research is needed.
// The plan is truncated to the configured maximum (default 20) when the
// model over-generates; truncation is a policy cap, not an error.
func (p *Planner) PlanQueries(ctx context.Context, pctx types.ProductContext) ([]types.ResearchQuery, error) {
	timeout := p.cfg.PlanTimeout
	if timeout <= 0 {
		timeout = defaultPlanTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := p.backend.Complete(ctx, buildPrompt(pctx))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("planning call: %w", err)
	}

	queries, err := extract.StructuredStrict[[]types.ResearchQuery](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}

	if err := validate(queries); err != nil {
		return nil, err
	}

	maxQueries := p.cfg.MaxQueries
	if maxQueries <= 0 {
		maxQueries = defaultMaxQueries
	}
	if len(queries) > maxQueries {
		p.log.Warn("truncating over-generated plan",
			zap.Int("generated", len(queries)),
			zap.Int("cap", maxQueries))
		queries = queries[:maxQueries]
	}

	p.log.Info("research plan generated",
		zap.String("product", pctx.ProductName),
		zap.Int("queries", len(queries)))

	return queries, nil
}

// validate rejects any plan entry with an empty required field, naming the
// offending index. Invalid entries are never silently dropped: a malformed
// plan means the whole plan cannot be trusted.
func validate(queries []types.ResearchQuery) error {
	for i, q := range queries {
		if !q.IsValid() {
			return fmt.Errorf("%w: query %d is missing a required field (category=%q)",
				ErrInvalidPlan, i, q.Category)
		}
	}
	return nil
}
