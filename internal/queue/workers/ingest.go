package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/askdocs/askdocs/internal/queue"
	"github.com/askdocs/askdocs/internal/rag"
)

// IngestWorker runs document ingestion off the request path. Large uploads
// are extracted in the API process and handed here as plain text.
type IngestWorker struct {
	pipeline rag.Pipeline
}

func NewIngestWorker(p rag.Pipeline) *IngestWorker {
	return &IngestWorker{pipeline: p}
}

func (w *IngestWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.DocumentIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	doc, err := w.pipeline.Ingest(ctx, rag.IngestRequest{
		Text:     payload.Text,
		Title:    payload.Title,
		Source:   payload.Source,
		FileType: payload.FileType,
		FileSize: payload.FileSize,
	})
	if err != nil {
		if rag.KindOf(err) == rag.KindValidation {
			// Bad payloads never succeed on retry.
			slog.Error("dropping invalid ingest task", "title", payload.Title, "error", err)
			return nil
		}
		return fmt.Errorf("ingest %q: %w", payload.Title, err)
	}

	slog.Info("background ingest complete",
		"document_id", doc.ID,
		"title", doc.Title,
		"chunks", len(doc.Chunks),
	)
	return nil
}
