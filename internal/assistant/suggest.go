package assistant

import (
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"taskchat-backend/internal/ai"
)

const (
	DefaultDeadlineDays = 7
	MaxDeadlineDays     = 90
)

type SuggestDeadlineRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type SuggestDeadlineResponse struct {
	Days int `json:"days"`
}

type SummarizeRequest struct {
	Description string `json:"description"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}

func (h *Handler) SuggestDeadline(w http.ResponseWriter, r *http.Request) {
	var req SuggestDeadlineRequest
	if err := decodeBody(w, r, &req); err != nil {
		log.Printf("[ERROR] suggest deadline: decode body: %v", err)
		writeError(w, err, "Failed to suggest deadline")
		return
	}

	if req.Title == "" || req.Description == "" {
		writeError(w, &ValidationError{Message: "Title and description are required"}, "")
		return
	}

	prompt := ai.BuildDeadlinePrompt(req.Title, req.Description, req.Priority)
	text, err := h.AI.Generate(r.Context(), prompt, DeadlineTemperature)
	if err != nil {
		log.Printf("[ERROR] suggest deadline: %v", err)
		writeError(w, err, "Failed to suggest deadline")
		return
	}

	writeJSON(w, http.StatusOK, SuggestDeadlineResponse{Days: ParseDeadlineDays(text)})
}

func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		log.Printf("[ERROR] summarize task: decode body: %v", err)
		writeError(w, err, "Failed to generate summary")
		return
	}

	if strings.TrimSpace(req.Description) == "" {
		writeError(w, &ValidationError{Message: "Description is required"}, "")
		return
	}

	text, err := h.AI.Generate(r.Context(), ai.BuildSummaryPrompt(req.Description), SummaryTemperature)
	if err != nil {
		log.Printf("[ERROR] summarize task: %v", err)
		writeError(w, err, "Failed to generate summary")
		return
	}

	writeJSON(w, http.StatusOK, SummarizeResponse{Summary: text})
}

var leadingInt = regexp.MustCompile(`^[+-]?\d+`)

// ParseDeadlineDays reads the integer the model's reply starts with.
// Anything unparsable or below 1 becomes DefaultDeadlineDays; the result
// never exceeds MaxDeadlineDays.
func ParseDeadlineDays(text string) int {
	m := leadingInt.FindString(strings.TrimSpace(text))
	if m == "" {
		return DefaultDeadlineDays
	}

	days, err := strconv.Atoi(m)
	if err != nil {
		// only overflow gets here
		if strings.HasPrefix(m, "-") {
			return DefaultDeadlineDays
		}
		return MaxDeadlineDays
	}

	if days < 1 {
		return DefaultDeadlineDays
	}
	return min(days, MaxDeadlineDays)
}
