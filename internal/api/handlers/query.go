package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/askdocs/askdocs/internal/cache"
	"github.com/askdocs/askdocs/internal/rag"
)

type QueryHandler struct {
	pipeline rag.Pipeline
	cache    *cache.QueryCache // nil disables response caching
}

func NewQueryHandler(p rag.Pipeline, qc *cache.QueryCache) *QueryHandler {
	return &QueryHandler{pipeline: p, cache: qc}
}

func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req rag.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query required"})
		return
	}

	if h.cache != nil {
		if resp, ok := h.cache.Get(r.Context(), req); ok {
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	resp, err := h.pipeline.Query(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), req, resp); err != nil {
			slog.Debug("query cache write failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
