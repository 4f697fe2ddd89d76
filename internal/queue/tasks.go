package queue

// Task type names registered with asynq.
const (
	TypeDocumentIngest = "document:ingest"
)

// DocumentIngestPayload carries extracted text to the background ingest
// worker. Text is extracted before enqueueing so the worker never touches the
// original file.
type DocumentIngestPayload struct {
	Text     string `json:"text"`
	Title    string `json:"title"`
	Source   string `json:"source"`
	FileType string `json:"file_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}
