package assistant

import "net/http"

const (
	ChatPath            = "/api/ai/chat"
	SuggestDeadlinePath = "/api/ai/suggest-deadline"
	SummarizeTaskPath   = "/api/ai/summarize-task"
)

// Register mounts the AI endpoints on mux. wrap, when non-nil, is applied to
// every handler (auth).
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	if wrap == nil {
		wrap = func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	mux.HandleFunc(ChatPath, wrap(postOnly(h.Chat)))
	mux.HandleFunc(SuggestDeadlinePath, wrap(postOnly(h.SuggestDeadline)))
	mux.HandleFunc(SummarizeTaskPath, wrap(postOnly(h.Summarize)))
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			next(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			w.Header().Set("Allow", "POST, OPTIONS")
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		}
	}
}
