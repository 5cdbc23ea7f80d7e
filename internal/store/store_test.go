// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/stackscout/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testAggregate() types.ResearchAggregate {
	return types.ResearchAggregate{
		ResearchResults: map[string]types.CategoryFindings{
			"frontend": {
				Options:   []types.TechOption{{Name: "SvelteKit", Pros: []string{"fast"}}},
				Reasoning: "needs a UI",
			},
		},
		QueriesGenerated: []types.QueryRecord{
			{Category: "frontend", Reasoning: "needs a UI"},
			{Category: "database", Reasoning: "needs persistence"},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	pctx := types.ProductContext{ProductName: "TaskFlow"}
	saved, err := s.SaveRun(ctx, pctx, testAggregate())
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "TaskFlow", saved.ProductName)

	got, err := s.GetRun(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "TaskFlow", got.ProductName)
	require.Len(t, got.Aggregate.QueriesGenerated, 2)
	require.Contains(t, got.Aggregate.ResearchResults, "frontend")
	assert.Equal(t, "SvelteKit", got.Aggregate.ResearchResults["frontend"].Options[0].Name)
}

func TestGetRunNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.GetRun(context.Background(), "no-such-id")
	assert.True(t, errors.Is(err, ErrNotFound), "err = %v", err)
}

func TestListRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.SaveRun(ctx, types.ProductContext{ProductName: "One"}, testAggregate())
	require.NoError(t, err)
	_, err = s.SaveRun(ctx, types.ProductContext{ProductName: "Two"}, types.ResearchAggregate{
		ResearchResults:  map[string]types.CategoryFindings{},
		QueriesGenerated: []types.QueryRecord{},
	})
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	byName := map[string]RunSummary{}
	for _, r := range runs {
		byName[r.ProductName] = r
	}
	assert.Equal(t, 2, byName["One"].Categories)
	assert.Equal(t, 1, byName["One"].WithOptions)
	assert.Equal(t, 0, byName["Two"].Categories)
}

func TestListRunsHonorsLimit(t *testing.T) {
	s, err := New(types.StoreConfig{DataDir: t.TempDir(), MaxRuns: 2})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.SaveRun(ctx, types.ProductContext{ProductName: "P"}, testAggregate())
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
