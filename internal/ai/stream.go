package ai

import (
	"strings"

	"github.com/openai/openai-go/v3"
)

// Stream yields the text deltas of one completion in provider order. It is
// forward-only and cannot be restarted.
type Stream interface {
	// Next advances to the next non-empty delta.
	Next() bool
	// Text is the delta Next advanced to.
	Text() string
	// Err is the failure that ended the stream, nil on clean completion.
	Err() error
	Close() error
}

// chunkSource is the subset of the SDK's SSE stream we rely on.
type chunkSource interface {
	Next() bool
	Current() openai.ChatCompletionChunk
	Err() error
	Close() error
}

type deltaStream struct {
	src  chunkSource
	text string
}

func (s *deltaStream) Next() bool {
	for s.src.Next() {
		chunk := s.src.Current()

		var b strings.Builder
		for _, choice := range chunk.Choices {
			b.WriteString(choice.Delta.Content)
		}
		if b.Len() == 0 {
			continue // role-only or finish chunk
		}

		s.text = b.String()
		return true
	}
	s.text = ""
	return false
}

func (s *deltaStream) Text() string {
	return s.text
}

func (s *deltaStream) Err() error {
	return providerError("stream", s.src.Err())
}

func (s *deltaStream) Close() error {
	return s.src.Close()
}
