package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/askdocs/askdocs/internal/rag"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// statusForError maps pipeline error kinds onto HTTP statuses. Unknown errors
// default to 500.
func statusForError(err error) int {
	switch rag.KindOf(err) {
	case rag.KindValidation:
		return http.StatusBadRequest
	case rag.KindProvider:
		return http.StatusBadGateway
	case rag.KindStore:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}
