package tasks

import (
	"context"
	"log"
)

// Fetcher loads grounding context for chat. It never fails: a store error
// is logged and the chat continues without task context.
type Fetcher struct {
	Source Source
}

func NewFetcher(src Source) *Fetcher {
	return &Fetcher{Source: src}
}

func (f *Fetcher) Fetch(ctx context.Context, userID string) []Task {
	if f == nil || f.Source == nil || userID == "" {
		return nil
	}

	list, err := f.Source.RecentTasks(ctx, userID)
	if err != nil {
		log.Printf("[WARN] fetch task context failed user_id=%s: %v", userID, err)
		return nil
	}

	if len(list) > MaxContextTasks {
		list = list[:MaxContextTasks]
	}
	return list
}
