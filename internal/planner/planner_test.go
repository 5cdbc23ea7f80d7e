// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/stackscout/pkg/types"
)

// --- mock backend ---

type mockBackend struct {
	response string
	err      error
	// block makes Complete wait for ctx cancellation, simulating a hung
	// provider.
	block bool

	prompts []string
}

func (m *mockBackend) Complete(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.response, m.err
}

func testContext() types.ProductContext {
	return types.ProductContext{
		ProductName:    "TaskFlow",
		Description:    "A team task tracker",
		TargetAudience: "small teams",
		CoreFeatures:   []string{"boards", "notifications"},
		Answers:        map[string]string{"Realtime?": "yes"},
	}
}

func planJSON(n int) string {
	var entries []string
	for i := 0; i < n; i++ {
		entries = append(entries, fmt.Sprintf(
			`{"category":"cat-%d","query":"best tools for cat-%d","reasoning":"needed"}`, i, i))
	}
	return "[" + strings.Join(entries, ",") + "]"
}

func TestPlanQueries(t *testing.T) {
	backend := &mockBackend{response: `Here is the plan:
[{"category":"frontend","query":"best web UI frameworks 2026","reasoning":"needs a UI"},
 {"category":"database","query":"best databases for task trackers","reasoning":"needs persistence"}]
Good luck!`}

	p := New(backend, types.PlannerConfig{}, nil)
	queries, err := p.PlanQueries(context.Background(), testContext())
	if err != nil {
		t.Fatalf("PlanQueries: %v", err)
	}
	if len(queries) != 2 {
		t.Fatalf("len(queries) = %d, want 2", len(queries))
	}
	if queries[0].Category != "frontend" || queries[1].Category != "database" {
		t.Errorf("categories = %q, %q", queries[0].Category, queries[1].Category)
	}
}

func TestPlanQueriesEmptyPlanIsValid(t *testing.T) {
	backend := &mockBackend{response: "No research needed for this product.\n[]"}

	p := New(backend, types.PlannerConfig{}, nil)
	queries, err := p.PlanQueries(context.Background(), testContext())
	if err != nil {
		t.Fatalf("PlanQueries: %v", err)
	}
	if len(queries) != 0 {
		t.Errorf("len(queries) = %d, want 0", len(queries))
	}
}

func TestPlanQueriesMissingFieldRejectsWholePlan(t *testing.T) {
	backend := &mockBackend{response: `[
{"category":"frontend","query":"q","reasoning":"r"},
{"category":"database","query":"q","reasoning":""}]`}

	p := New(backend, types.PlannerConfig{}, nil)
	_, err := p.PlanQueries(context.Background(), testContext())
	if !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("err = %v, want ErrInvalidPlan", err)
	}
	if !strings.Contains(err.Error(), "query 1") {
		t.Errorf("error should name the offending index, got %q", err.Error())
	}
}

func TestPlanQueriesGarbageRejected(t *testing.T) {
	backend := &mockBackend{response: "I'm not sure what technologies to suggest here."}

	p := New(backend, types.PlannerConfig{}, nil)
	_, err := p.PlanQueries(context.Background(), testContext())
	if !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("err = %v, want ErrInvalidPlan", err)
	}
}

func TestPlanQueriesTruncatesOverGeneration(t *testing.T) {
	backend := &mockBackend{response: planJSON(35)}

	p := New(backend, types.PlannerConfig{}, nil)
	queries, err := p.PlanQueries(context.Background(), testContext())
	if err != nil {
		t.Fatalf("PlanQueries: %v", err)
	}
	if len(queries) != 20 {
		t.Fatalf("len(queries) = %d, want 20", len(queries))
	}
	// Order of the surviving prefix is preserved.
	for i, q := range queries {
		if want := fmt.Sprintf("cat-%d", i); q.Category != want {
			t.Fatalf("queries[%d].Category = %q, want %q", i, q.Category, want)
		}
	}
}

func TestPlanQueriesCustomCap(t *testing.T) {
	backend := &mockBackend{response: planJSON(10)}

	p := New(backend, types.PlannerConfig{MaxQueries: 4}, nil)
	queries, err := p.PlanQueries(context.Background(), testContext())
	if err != nil {
		t.Fatalf("PlanQueries: %v", err)
	}
	if len(queries) != 4 {
		t.Errorf("len(queries) = %d, want 4", len(queries))
	}
}

func TestPlanQueriesTimeout(t *testing.T) {
	backend := &mockBackend{block: true}

	p := New(backend, types.PlannerConfig{PlanTimeout: 10 * time.Millisecond}, nil)
	_, err := p.PlanQueries(context.Background(), testContext())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestPlanQueriesBackendError(t *testing.T) {
	backend := &mockBackend{err: errors.New("boom")}

	p := New(backend, types.PlannerConfig{}, nil)
	_, err := p.PlanQueries(context.Background(), testContext())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrInvalidPlan) {
		t.Errorf("transport error should not map to timeout or invalid plan, got %v", err)
	}
}

func TestBuildPromptMentionsContext(t *testing.T) {
	prompt := buildPrompt(testContext())

	for _, want := range []string{"TaskFlow", "task tracker", "small teams", "boards", "Realtime?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	// Relevance framing must survive prompt edits: the category set is
	// conditional, not a fixed five.
	if !strings.Contains(prompt, "omit any that do not apply") {
		t.Error("prompt missing conditional-relevance instruction")
	}
	if !strings.Contains(prompt, "empty list") {
		t.Error("prompt missing empty-plan permission")
	}
}
