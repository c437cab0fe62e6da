package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"taskchat-backend/internal/ai"
	"taskchat-backend/internal/tasks"
)

const (
	ChatTemperature     = 0.7
	DeadlineTemperature = 0.5
	SummaryTemperature  = 0.7

	// MaxRequestBodySize caps every JSON request body.
	MaxRequestBodySize = 1 << 20
)

// Completer is the model gateway the handlers depend on.
type Completer interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
	StreamChat(ctx context.Context, system string, history []ai.Message, temperature float64) (ai.Stream, error)
}

// TaskContext supplies grounding tasks; it degrades to an empty list
// instead of failing.
type TaskContext interface {
	Fetch(ctx context.Context, userID string) []tasks.Task
}

// ValidationError is a client mistake reported with HTTP 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type Handler struct {
	AI    Completer
	Tasks TaskContext
	Now   func() time.Time
}

func New(aiClient Completer, taskCtx TaskContext) *Handler {
	return &Handler{
		AI:    aiClient,
		Tasks: taskCtx,
		Now:   time.Now,
	}
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response failed: %v", err)
	}
}

// writeError maps err to a status and writes {"error": msg}. fallback is
// used when err carries no message.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message})
		return
	}

	msg := fallback
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}
