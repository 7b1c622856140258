// Package server exposes ranking over a small JSON HTTP API so concurrent
// users can share one warm distance cache.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/destinos-group/destinos-cli/internal/model"
	"github.com/destinos-group/destinos-cli/internal/store"
)

// Ranker runs one ranking over the shared resolver and cache.
type Ranker interface {
	Rank(ctx context.Context, candidates []model.Locality, refs []model.ReferenceCity, addendum []model.Locality) (*model.RankedResult, error)
}

// RankRequest is the POST /rank payload.
type RankRequest struct {
	Candidates      []model.Locality      `json:"candidates"`
	ReferenceCities []model.ReferenceCity `json:"reference_cities"`
	Addendum        []model.Locality      `json:"addendum,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New builds the HTTP handler.
func New(ranker Ranker, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/cache/stats", func(w http.ResponseWriter, req *http.Request) {
		stats, err := st.Stats(req.Context())
		if err != nil {
			zap.L().Error("cache stats failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "stats unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	r.Post("/rank", func(w http.ResponseWriter, req *http.Request) {
		var body RankRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		result, err := ranker.Rank(req.Context(), body.Candidates, body.ReferenceCities, body.Addendum)
		if err != nil {
			var invErr *model.InvalidReferenceCityError
			if errors.As(err, &invErr) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: invErr.Error()})
				return
			}
			zap.L().Error("ranking failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "ranking failed"})
			return
		}

		writeJSON(w, http.StatusOK, result)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response failed", zap.Error(err))
	}
}
