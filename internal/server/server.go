// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research pipeline over HTTP. It assumes an
// upstream identity has already been established when no auth token is
// configured; with a token set, requests must carry it as a bearer token.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/stackscout/internal/planner"
	"github.com/pdiddy/stackscout/internal/store"
	"github.com/pdiddy/stackscout/pkg/types"
)

// maxRequestBytes bounds the request body; a ProductContext has no business
// being larger.
const maxRequestBytes = 1 << 20

// Pipeline runs the full research pipeline. Implemented by
// research.Orchestrator.
type Pipeline interface {
	Run(ctx context.Context, pctx types.ProductContext) (types.ResearchAggregate, error)
}

// RunStore persists and reads completed runs. Implemented by store.Store.
// A nil RunStore disables persistence.
type RunStore interface {
	SaveRun(ctx context.Context, pctx types.ProductContext, agg types.ResearchAggregate) (store.Run, error)
	ListRuns(ctx context.Context) ([]store.RunSummary, error)
	GetRun(ctx context.Context, id string) (store.Run, error)
}

// errorEnvelope is the uniform JSON error shape.
type errorEnvelope struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// researchResponse is the success shape for POST /api/research.
type researchResponse struct {
	ResearchResults  map[string]types.CategoryFindings `json:"researchResults"`
	QueriesGenerated []types.QueryRecord               `json:"queriesGenerated"`
	RunID            string                            `json:"runId,omitempty"`
}

// Server routes API requests to the pipeline and the run store.
type Server struct {
	pipeline Pipeline
	runs     RunStore
	cfg      types.ServerConfig
	log      *zap.Logger
	mux      *http.ServeMux
}

// New constructs the Server and registers its routes.
func New(pipeline Pipeline, runs RunStore, cfg types.ServerConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{pipeline: pipeline, runs: runs, cfg: cfg, log: log, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/research", s.auth(s.handleResearch))
	s.mux.HandleFunc("GET /api/runs", s.auth(s.handleListRuns))
	s.mux.HandleFunc("GET /api/runs/{id}", s.auth(s.handleGetRun))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the server on the configured address. The write
// timeout defaults high enough to cover a full planning-plus-research
// pipeline.
func (s *Server) ListenAndServe() error {
	readTimeout := s.cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := s.cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Minute
	}
	addr := s.cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	s.log.Info("listening", zap.String("addr", addr))
	return srv.ListenAndServe()
}

// auth enforces the configured bearer token. An empty token leaves the gate
// open; authentication then belongs to whatever sits in front of this
// process.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AuthToken != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if got != s.cfg.AuthToken {
				writeError(w, http.StatusUnauthorized, errorEnvelope{
					Error: "unauthorized", Code: "unauthorized",
				})
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	var pctx types.ProductContext
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&pctx); err != nil {
		writeError(w, http.StatusBadRequest, errorEnvelope{
			Error:   "invalid request body",
			Details: err.Error(),
			Code:    "invalid_body",
		})
		return
	}
	if pctx.ProductName == "" || pctx.Description == "" {
		writeError(w, http.StatusBadRequest, errorEnvelope{
			Error: "productName and description are required",
			Code:  "invalid_context",
		})
		return
	}

	agg, err := s.pipeline.Run(r.Context(), pctx)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	resp := researchResponse{
		ResearchResults:  agg.ResearchResults,
		QueriesGenerated: agg.QueriesGenerated,
	}

	if s.runs != nil {
		run, serr := s.runs.SaveRun(r.Context(), pctx, agg)
		if serr != nil {
			// The research itself succeeded; losing the response over a
			// persistence problem would be worse than an unsaved run.
			s.log.Error("persisting run failed", zap.Error(serr))
		} else {
			resp.RunID = run.ID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planner.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, errorEnvelope{
			Error:   "research planning timed out",
			Details: "The planning model did not respond in time. Retrying usually succeeds.",
			Code:    "planner_timeout",
		})
	case errors.Is(err, planner.ErrInvalidPlan):
		writeError(w, http.StatusBadGateway, errorEnvelope{
			Error:   "research planning failed",
			Details: "The planning model returned an unusable plan. Retrying usually succeeds.",
			Code:    "plan_invalid",
		})
	default:
		s.log.Error("pipeline failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorEnvelope{
			Error: "research failed",
			Code:  "internal",
		})
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, errorEnvelope{Error: "run persistence is disabled", Code: "no_store"})
		return
	}
	summaries, err := s.runs.ListRuns(r.Context())
	if err != nil {
		s.log.Error("listing runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorEnvelope{Error: "listing runs failed", Code: "internal"})
		return
	}
	if summaries == nil {
		summaries = []store.RunSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, errorEnvelope{Error: "run persistence is disabled", Code: "no_store"})
		return
	}
	id := r.PathValue("id")
	run, err := s.runs.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errorEnvelope{
			Error: fmt.Sprintf("run %s not found", id),
			Code:  "not_found",
		})
		return
	}
	if err != nil {
		s.log.Error("loading run failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorEnvelope{Error: "loading run failed", Code: "internal"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, env errorEnvelope) {
	writeJSON(w, status, env)
}
