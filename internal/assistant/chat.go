package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"taskchat-backend/internal/ai"
	"taskchat-backend/internal/auth"
)

type ChatRequest struct {
	Messages []ai.Message `json:"messages"`
	UserID   string       `json:"userId"`
}

func validateHistory(msgs []ai.Message) error {
	for i, m := range msgs {
		if m.Role != ai.RoleUser && m.Role != ai.RoleAssistant {
			return &ValidationError{
				Message: fmt.Sprintf("invalid role %q at message %d: must be user or assistant", m.Role, i),
			}
		}
	}
	return nil
}

// Chat streams the assistant reply as raw text. Errors before the first
// delta produce a JSON 500; after that a provider failure only ends the body.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		log.Printf("[ERROR] chat: decode body: %v", err)
		writeError(w, err, "An error occurred")
		return
	}
	if err := validateHistory(req.Messages); err != nil {
		writeError(w, err, "")
		return
	}

	userID := req.UserID
	if uid, ok := auth.UserIDFromContext(ctx); ok {
		userID = uid
	}

	// -------------------------------
	// context + prompt
	// -------------------------------
	taskList := h.Tasks.Fetch(ctx, userID)
	system := ai.BuildChatSystemPrompt(taskList, h.now())

	// -------------------------------
	// stream
	// -------------------------------
	stream, err := h.AI.StreamChat(ctx, system, req.Messages, ChatTemperature)
	if err != nil {
		log.Printf("[ERROR] chat: open stream user_id=%s: %v", userID, err)
		writeError(w, err, "An error occurred")
		return
	}
	defer stream.Close()

	// Pull the first delta before committing to a 200.
	if !stream.Next() {
		if err := stream.Err(); err != nil {
			log.Printf("[ERROR] chat: stream failed before output user_id=%s: %v", userID, err)
			writeError(w, err, "An error occurred")
			return
		}
		setStreamHeaders(w)
		w.WriteHeader(http.StatusOK)
		return
	}

	setStreamHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	for {
		if _, err := io.WriteString(w, stream.Text()); err != nil {
			log.Printf("[WARN] chat: client write failed user_id=%s: %v", userID, err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		if !stream.Next() {
			break
		}
	}

	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[WARN] chat: stream interrupted user_id=%s: %v", userID, err)
	}
}

func setStreamHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Accel-Buffering", "no")
}
