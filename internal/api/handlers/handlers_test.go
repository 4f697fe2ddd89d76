package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/askdocs/internal/rag"
)

type fakePipeline struct {
	ingestFn func(req rag.IngestRequest) (*rag.ProcessedDocument, error)
	queryFn  func(req rag.QueryRequest) (*rag.QueryResponse, error)
	deleteFn func(documentID string) error
	statsFn  func() (*rag.StatsResponse, error)
}

func (p *fakePipeline) Ingest(_ context.Context, req rag.IngestRequest) (*rag.ProcessedDocument, error) {
	return p.ingestFn(req)
}

func (p *fakePipeline) Query(_ context.Context, req rag.QueryRequest) (*rag.QueryResponse, error) {
	return p.queryFn(req)
}

func (p *fakePipeline) DeleteDocument(_ context.Context, documentID string) error {
	return p.deleteFn(documentID)
}

func (p *fakePipeline) Stats(_ context.Context) (*rag.StatsResponse, error) {
	return p.statsFn()
}

func TestQueryHandlerInvalidBody(t *testing.T) {
	h := NewQueryHandler(&fakePipeline{}, nil)
	rec := httptest.NewRecorder()

	h.Query(rec, httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryHandlerEmptyQuery(t *testing.T) {
	h := NewQueryHandler(&fakePipeline{}, nil)
	rec := httptest.NewRecorder()

	h.Query(rec, httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"query": ""}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryHandlerSuccess(t *testing.T) {
	p := &fakePipeline{queryFn: func(req rag.QueryRequest) (*rag.QueryResponse, error) {
		assert.Equal(t, "what is pgvector", req.Query)
		return &rag.QueryResponse{Answer: "an extension [1]", TokensUsed: 7}, nil
	}}
	h := NewQueryHandler(p, nil)
	rec := httptest.NewRecorder()

	h.Query(rec, httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"query": "what is pgvector"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp rag.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "an extension [1]", resp.Answer)
	assert.Equal(t, 7, resp.TokensUsed)
}

func TestQueryHandlerErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &rag.Error{Kind: rag.KindValidation, Op: "query", Err: errors.New("query is required")}, http.StatusBadRequest},
		{"provider", &rag.Error{Kind: rag.KindProvider, Op: "query", Err: errors.New("overloaded")}, http.StatusBadGateway},
		{"store", &rag.Error{Kind: rag.KindStore, Op: "query", Err: errors.New("down")}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePipeline{queryFn: func(rag.QueryRequest) (*rag.QueryResponse, error) {
				return nil, tt.err
			}}
			h := NewQueryHandler(p, nil)
			rec := httptest.NewRecorder()

			h.Query(rec, httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"query": "q"}`)))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestDocumentHandlerIngest(t *testing.T) {
	p := &fakePipeline{ingestFn: func(req rag.IngestRequest) (*rag.ProcessedDocument, error) {
		assert.Equal(t, "Handbook", req.Title)
		return &rag.ProcessedDocument{ID: "doc-1", Title: req.Title}, nil
	}}
	h := NewDocumentHandler(p, nil)
	rec := httptest.NewRecorder()

	h.Ingest(rec, httptest.NewRequest(http.MethodPost, "/v1/documents",
		strings.NewReader(`{"text": "body", "title": "Handbook"}`)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var doc rag.ProcessedDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "doc-1", doc.ID)
}

func TestDocumentHandlerUploadTxt(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("uploaded file content."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	p := &fakePipeline{ingestFn: func(req rag.IngestRequest) (*rag.ProcessedDocument, error) {
		assert.Equal(t, "uploaded file content.", req.Text)
		assert.Equal(t, "notes.txt", req.Title)
		assert.Equal(t, "file-upload", req.Source)
		assert.Equal(t, ".txt", req.FileType)
		return &rag.ProcessedDocument{ID: "doc-1"}, nil
	}}
	h := NewDocumentHandler(p, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestDocumentHandlerUploadUnsupportedType(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "sheet.xlsx")
	require.NoError(t, err)
	_, err = fw.Write([]byte("binary"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	h := NewDocumentHandler(&fakePipeline{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/documents/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestDocumentHandlerUploadMissingFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "no file"))
	require.NoError(t, mw.Close())

	h := NewDocumentHandler(&fakePipeline{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/documents/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentHandlerDelete(t *testing.T) {
	var deleted string
	p := &fakePipeline{deleteFn: func(documentID string) error {
		deleted = documentID
		return nil
	}}
	h := NewDocumentHandler(p, nil)

	r := chi.NewRouter()
	r.Delete("/v1/documents/{id}", h.Delete)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/documents/doc-42", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doc-42", deleted)
}

func TestDocumentHandlerStats(t *testing.T) {
	p := &fakePipeline{statsFn: func() (*rag.StatsResponse, error) {
		return &rag.StatsResponse{TotalChunks: 12, TotalDocuments: 12}, nil
	}}
	h := NewDocumentHandler(p, nil)
	rec := httptest.NewRecorder()

	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats rag.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 12, stats.TotalChunks)
}
