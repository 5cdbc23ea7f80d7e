// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/stackscout/internal/planner"
	"github.com/pdiddy/stackscout/internal/store"
	"github.com/pdiddy/stackscout/pkg/types"
)

// --- mocks ---

type mockPipeline struct {
	agg  types.ResearchAggregate
	err  error
	pctx types.ProductContext
}

func (m *mockPipeline) Run(_ context.Context, pctx types.ProductContext) (types.ResearchAggregate, error) {
	m.pctx = pctx
	return m.agg, m.err
}

type mockStore struct {
	saved    []store.Run
	saveErr  error
	listErr  error
	runsByID map[string]store.Run
}

func (m *mockStore) SaveRun(_ context.Context, pctx types.ProductContext, agg types.ResearchAggregate) (store.Run, error) {
	if m.saveErr != nil {
		return store.Run{}, m.saveErr
	}
	run := store.Run{ID: "run-1", ProductName: pctx.ProductName, Aggregate: agg}
	m.saved = append(m.saved, run)
	return run, nil
}

func (m *mockStore) ListRuns(_ context.Context) ([]store.RunSummary, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []store.RunSummary
	for _, r := range m.saved {
		out = append(out, store.RunSummary{ID: r.ID, ProductName: r.ProductName})
	}
	return out, nil
}

func (m *mockStore) GetRun(_ context.Context, id string) (store.Run, error) {
	if r, ok := m.runsByID[id]; ok {
		return r, nil
	}
	return store.Run{}, store.ErrNotFound
}

func testAggregate() types.ResearchAggregate {
	return types.ResearchAggregate{
		ResearchResults: map[string]types.CategoryFindings{
			"frontend": {Options: []types.TechOption{{Name: "Vue"}}, Reasoning: "needs a UI"},
		},
		QueriesGenerated: []types.QueryRecord{
			{Category: "frontend", Reasoning: "needs a UI"},
			{Category: "database", Reasoning: "needs persistence"},
		},
	}
}

func postResearch(t *testing.T, s *Server, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/research", bytes.NewReader([]byte(body)))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"productName":"TaskFlow","description":"A team task tracker","targetAudience":"small teams","coreFeatures":["boards"],"answers":{}}`

func TestResearchHappyPath(t *testing.T) {
	pipeline := &mockPipeline{agg: testAggregate()}
	st := &mockStore{}
	s := New(pipeline, st, types.ServerConfig{}, nil)

	rec := postResearch(t, s, validBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp researchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.QueriesGenerated, 2)
	assert.Contains(t, resp.ResearchResults, "frontend")
	assert.Equal(t, "run-1", resp.RunID)

	assert.Equal(t, "TaskFlow", pipeline.pctx.ProductName)
	assert.Len(t, st.saved, 1)
}

func TestResearchInvalidBody(t *testing.T) {
	s := New(&mockPipeline{}, nil, types.ServerConfig{}, nil)

	rec := postResearch(t, s, "{not json", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "invalid_body", env.Code)
}

func TestResearchMissingFields(t *testing.T) {
	s := New(&mockPipeline{}, nil, types.ServerConfig{}, nil)

	rec := postResearch(t, s, `{"productName":"X"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "invalid_context", env.Code)
}

func TestResearchPlannerTimeout(t *testing.T) {
	s := New(&mockPipeline{err: planner.ErrTimeout}, nil, types.ServerConfig{}, nil)

	rec := postResearch(t, s, validBody, nil)
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "planner_timeout", env.Code)
	assert.Contains(t, env.Details, "Retrying")
}

func TestResearchInvalidPlan(t *testing.T) {
	err := planner.ErrInvalidPlan
	s := New(&mockPipeline{err: err}, nil, types.ServerConfig{}, nil)

	rec := postResearch(t, s, validBody, nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "plan_invalid", env.Code)
}

func TestResearchUnknownErrorIs500(t *testing.T) {
	s := New(&mockPipeline{err: errors.New("weird")}, nil, types.ServerConfig{}, nil)

	rec := postResearch(t, s, validBody, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestResearchPersistenceFailureStillResponds(t *testing.T) {
	pipeline := &mockPipeline{agg: testAggregate()}
	st := &mockStore{saveErr: errors.New("disk full")}
	s := New(pipeline, st, types.ServerConfig{}, nil)

	rec := postResearch(t, s, validBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp researchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.RunID)
	assert.Len(t, resp.QueriesGenerated, 2)
}

func TestAuthTokenEnforced(t *testing.T) {
	s := New(&mockPipeline{agg: testAggregate()}, nil, types.ServerConfig{AuthToken: "sekrit"}, nil)

	rec := postResearch(t, s, validBody, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postResearch(t, s, validBody, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postResearch(t, s, validBody, map[string]string{"Authorization": "Bearer sekrit"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzOpenWithoutToken(t *testing.T) {
	s := New(&mockPipeline{}, nil, types.ServerConfig{AuthToken: "sekrit"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListRuns(t *testing.T) {
	st := &mockStore{saved: []store.Run{{ID: "a", ProductName: "One"}}}
	s := New(&mockPipeline{}, st, types.ServerConfig{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []store.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestGetRun(t *testing.T) {
	st := &mockStore{runsByID: map[string]store.Run{
		"a": {ID: "a", ProductName: "One", Aggregate: testAggregate()},
	}}
	s := New(&mockPipeline{}, st, types.ServerConfig{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/a", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var run store.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "One", run.ProductName)

	req = httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmptyAggregateRendersEmptyCollections(t *testing.T) {
	pipeline := &mockPipeline{agg: types.ResearchAggregate{
		ResearchResults:  map[string]types.CategoryFindings{},
		QueriesGenerated: []types.QueryRecord{},
	}}
	s := New(pipeline, nil, types.ServerConfig{}, nil)

	rec := postResearch(t, s, validBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `"researchResults":{}`), "body = %s", body)
	assert.True(t, strings.Contains(body, `"queriesGenerated":[]`), "body = %s", body)
}
