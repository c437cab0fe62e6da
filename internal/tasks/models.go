package tasks

import (
	"context"
	"time"
)

// MaxContextTasks bounds how many recent tasks ground one chat request.
const MaxContextTasks = 50

// Task is the read-only projection of a task row used for chat grounding.
type Task struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	// RawDeadline holds a stored deadline that did not parse as a date.
	RawDeadline string `json:"-"`
	AssignedTo  string     `json:"assigned_to"`
}

// Source returns the most recent tasks a user created or is assigned to,
// newest first, at most MaxContextTasks.
type Source interface {
	RecentTasks(ctx context.Context, userID string) ([]Task, error)
}
