package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/askdocs/askdocs/internal/queue"
	"github.com/askdocs/askdocs/internal/rag"
	"github.com/askdocs/askdocs/pkg/textextract"
)

// asyncThreshold is the extracted-text size above which uploads are queued
// for background ingestion instead of processed in-request.
const asyncThreshold = 256 * 1024

type DocumentHandler struct {
	pipeline rag.Pipeline
	queue    *queue.Client // nil disables background ingestion
}

func NewDocumentHandler(p rag.Pipeline, qc *queue.Client) *DocumentHandler {
	return &DocumentHandler{pipeline: p, queue: qc}
}

// Ingest accepts raw text with a title and runs the full ingestion pipeline.
func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req rag.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	doc, err := h.pipeline.Ingest(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// Upload accepts a multipart file, extracts its text and ingests it. Large
// extractions are handed to the background worker when a queue is configured.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read file: " + err.Error()})
		return
	}

	fileType := filepath.Ext(header.Filename)
	if fileType == "" {
		fileType = header.Header.Get("Content-Type")
	}

	extracted, err := textextract.Extract(bytes.NewReader(data), int64(len(data)), fileType)
	if err != nil {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": err.Error()})
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	if h.queue != nil && len(extracted.Content) > asyncThreshold {
		err := h.queue.EnqueueDocumentIngest(queue.DocumentIngestPayload{
			Text:     extracted.Content,
			Title:    title,
			Source:   "file-upload",
			FileType: fileType,
			FileSize: header.Size,
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "title": title})
		return
	}

	doc, err := h.pipeline.Ingest(r.Context(), rag.IngestRequest{
		Text:     extracted.Content,
		Title:    title,
		Source:   "file-upload",
		FileType: fileType,
		FileSize: header.Size,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.pipeline.DeleteDocument(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (h *DocumentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.pipeline.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
