// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/stackscout/pkg/types"
)

// QueryPlanner produces the research plan. Implemented by planner.Planner.
type QueryPlanner interface {
	PlanQueries(ctx context.Context, pctx types.ProductContext) ([]types.ResearchQuery, error)
}

// CategoryResearcher runs one category's research. Implemented by Researcher.
type CategoryResearcher interface {
	Research(ctx context.Context, q types.ResearchQuery) types.CategoryResult
}

// Orchestrator fans the researcher out over a planner-issued query list and
// assembles the aggregate. It holds no state between runs.
type Orchestrator struct {
	planner    QueryPlanner
	researcher CategoryResearcher
	log        *zap.Logger
}

// NewOrchestrator constructs an Orchestrator. A nil logger disables logging.
func NewOrchestrator(planner QueryPlanner, researcher CategoryResearcher, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{planner: planner, researcher: researcher, log: log}
}

// Run executes the full pipeline: plan, fan out one research call per query,
// wait for every call to settle, aggregate.
//
// All research calls run concurrently; the planner's cap on plan size is the
// sole admission control, and each call's own timeout bounds worst-case
// latency. One category's failure never aborts its siblings. The aggregate's
// ResearchResults holds only categories that produced options, while
// QueriesGenerated records every attempted category in plan order, so the
// caller can distinguish "we looked and found nothing" from "we never
// looked".
//
// Errors from Run are planner errors only (timeout, invalid plan); an empty
// plan is valid and yields an empty aggregate with no research calls made.
func (o *Orchestrator) Run(ctx context.Context, pctx types.ProductContext) (types.ResearchAggregate, error) {
	aggregate := types.ResearchAggregate{
		ResearchResults:  map[string]types.CategoryFindings{},
		QueriesGenerated: []types.QueryRecord{},
	}

	queries, err := o.planner.PlanQueries(ctx, pctx)
	if err != nil {
		return types.ResearchAggregate{}, err
	}
	if len(queries) == 0 {
		o.log.Info("empty research plan, nothing to research",
			zap.String("product", pctx.ProductName))
		return aggregate, nil
	}

	o.log.Info("dispatching research",
		zap.String("product", pctx.ProductName),
		zap.Int("queries", len(queries)))

	type settled struct {
		index  int
		result types.CategoryResult
	}

	ch := make(chan settled, len(queries))
	var wg sync.WaitGroup

	for i, q := range queries {
		wg.Add(1)
		go func(i int, q types.ResearchQuery) {
			defer wg.Done()
			// The researcher's contract is to never fail, but the join must
			// not depend on that: a panicking task settles as an
			// empty-options result instead of taking the batch down.
			defer func() {
				if r := recover(); r != nil {
					o.log.Error("research task panicked",
						zap.String("category", q.Category),
						zap.Any("panic", r))
					ch <- settled{i, types.CategoryResult{Category: q.Category, Reasoning: q.Reasoning}}
				}
			}()
			ch <- settled{i, o.researcher.Research(ctx, q)}
		}(i, q)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	// Reassemble in plan order so output is stable regardless of completion
	// order.
	results := make([]types.CategoryResult, len(queries))
	for s := range ch {
		results[s.index] = s.result
	}

	succeeded := 0
	for _, r := range results {
		aggregate.QueriesGenerated = append(aggregate.QueriesGenerated, types.QueryRecord{
			Category:  r.Category,
			Reasoning: r.Reasoning,
		})
		if len(r.Options) > 0 {
			aggregate.ResearchResults[r.Category] = types.CategoryFindings{
				Options:   r.Options,
				Reasoning: r.Reasoning,
			}
			succeeded++
		}
	}

	o.log.Info("research complete",
		zap.String("product", pctx.ProductName),
		zap.Int("attempted", len(queries)),
		zap.Int("with_options", succeeded))

	return aggregate, nil
}

// Summarize renders a one-line human summary of an aggregate, used by the
// CLI after a run.
func Summarize(a types.ResearchAggregate) string {
	return fmt.Sprintf("%d categories researched, %d with options",
		len(a.QueriesGenerated), len(a.ResearchResults))
}
