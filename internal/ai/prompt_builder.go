package ai

import (
	"strconv"
	"strings"
	"time"

	"taskchat-backend/internal/tasks"
)

const DefaultPriority = "medium"

// BuildChatSystemPrompt renders the persona with the user's tasks embedded.
// The task block is omitted entirely when list is empty.
func BuildChatSystemPrompt(list []tasks.Task, now time.Time) string {
	var b strings.Builder

	b.WriteString(chatPersonaIntro)
	b.WriteString("\n\n")

	if block := TaskContextBlock(list); block != "" {
		b.WriteString(block)
		b.WriteString("\n\n")
	}

	b.WriteString(chatPersonaStyle)
	b.WriteString("\n\nCurrent date: ")
	b.WriteString(now.Format("1/2/2006"))

	return b.String()
}

// TaskContextBlock returns the heading plus one enumerated line per task.
func TaskContextBlock(list []tasks.Task) string {
	if len(list) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(taskContextHeading)
	for i, t := range list {
		b.WriteString("\n")
		b.WriteString(TaskLine(i+1, t))
	}
	return b.String()
}

// TaskLine formats "<n>. <title> - Status: <s>, Priority: <p>, Deadline: <d>".
func TaskLine(n int, t tasks.Task) string {
	deadline := "Not set"
	switch {
	case t.Deadline != nil:
		deadline = t.Deadline.Format("2006-01-02")
	case t.RawDeadline != "":
		deadline = t.RawDeadline
	}

	return strconv.Itoa(n) + ". " + t.Title +
		" - Status: " + t.Status +
		", Priority: " + t.Priority +
		", Deadline: " + deadline
}

func BuildDeadlinePrompt(title, description, priority string) string {
	if priority == "" {
		priority = DefaultPriority
	}

	var b strings.Builder

	b.WriteString(deadlinePromptIntro)
	b.WriteString("\n\n")

	b.WriteString("Task Title: ")
	b.WriteString(title)
	b.WriteString("\n")

	b.WriteString("Description: ")
	b.WriteString(description)
	b.WriteString("\n")

	b.WriteString("Priority: ")
	b.WriteString(priority)
	b.WriteString("\n\n")

	b.WriteString(deadlinePromptRules)

	return b.String()
}

func BuildSummaryPrompt(description string) string {
	return summaryPromptIntro + "\n\n" + description
}
