// Package widget is the client side of the streaming chat: it keeps the
// conversation shown to the user and rebuilds the assistant reply from the
// raw text stream as bytes arrive.
package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const ApologyMessage = "Sorry, I encountered an error. Please try again."

var (
	ErrEmptyInput = errors.New("widget: input is empty")
	ErrBusy       = errors.New("widget: a reply is still streaming")
)

const readChunkSize = 4096

// Snapshot is a copy of the widget state handed to OnChange.
type Snapshot struct {
	Open     bool
	Input    string
	Busy     bool
	Messages []Message
}

type Widget struct {
	Endpoint string
	UserID   string
	Client   *http.Client

	// OnChange is called after every state change, outside the lock.
	OnChange func(Snapshot)

	NewID func() string

	mu         sync.Mutex
	open       bool
	input      string
	busy       bool
	transcript *Transcript
	generation int
	cancel     context.CancelFunc
}

func New(endpoint, userID string, client *http.Client) *Widget {
	if client == nil {
		client = http.DefaultClient
	}
	return &Widget{
		Endpoint:   endpoint,
		UserID:     userID,
		Client:     client,
		NewID:      uuid.NewString,
		transcript: NewTranscript(),
	}
}

func (w *Widget) Open() {
	w.update(func() { w.open = true })
}

// Close hides the widget, cancels any reply in flight and discards the
// conversation.
func (w *Widget) Close() {
	w.update(func() {
		w.open = false
		w.input = ""
		w.busy = false
		w.transcript.Reset()
		w.generation++
		if w.cancel != nil {
			w.cancel()
			w.cancel = nil
		}
	})
}

func (w *Widget) SetInput(s string) {
	w.update(func() { w.input = s })
}

func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Len reports how many messages the conversation holds.
func (w *Widget) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.transcript == nil {
		return 0
	}
	return w.transcript.Len()
}

// Submit sends the current input and streams the reply into the
// transcript. Transport failures are shown as ApologyMessage and also
// returned.
func (w *Widget) Submit(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		history []wireMessage
		gen     int
		err     error
	)
	w.update(func() {
		if strings.TrimSpace(w.input) == "" {
			err = ErrEmptyInput
			return
		}
		if w.busy {
			err = ErrBusy
			return
		}

		w.transcript.Apply(Append{Message: Message{ID: w.NewID(), Role: RoleUser, Content: w.input}})
		for _, m := range w.transcript.Messages() {
			history = append(history, wireMessage{Role: string(m.Role), Content: m.Content})
		}

		w.input = ""
		w.busy = true
		w.cancel = cancel
		gen = w.generation
	})
	if err != nil {
		return err
	}

	defer w.update(func() {
		if w.generation == gen {
			w.busy = false
			w.cancel = nil
		}
	})

	assistantID := w.NewID()
	var reply strings.Builder

	err = w.stream(ctx, history, func(text string) {
		reply.WriteString(text)
		content := reply.String()
		w.update(func() {
			if w.generation != gen {
				return
			}
			w.transcript.Apply(Upsert{Message: Message{ID: assistantID, Role: RoleAssistant, Content: content}})
		})
	})
	if err != nil {
		w.update(func() {
			if w.generation != gen {
				return
			}
			w.transcript.Apply(Append{Message: Message{ID: w.NewID(), Role: RoleAssistant, Content: ApologyMessage}})
		})
		return err
	}
	return nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []wireMessage `json:"messages"`
	UserID   string        `json:"userId"`
}

// stream posts the history and calls onText with each decoded piece of the
// reply in arrival order.
func (w *Widget) stream(ctx context.Context, history []wireMessage, onText func(string)) error {
	body, err := json.Marshal(chatRequest{Messages: history, UserID: w.UserID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("failed to get response: %s", resp.Status)
	}

	var dec utf8Decoder
	buf := make([]byte, readChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if text := dec.Decode(buf[:n]); text != "" {
				onText(text)
			}
		}
		if readErr == io.EOF {
			if text := dec.Flush(); text != "" {
				onText(text)
			}
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read chat stream: %w", readErr)
		}
	}
}

func (w *Widget) update(fn func()) {
	w.mu.Lock()
	if w.transcript == nil {
		w.transcript = NewTranscript()
	}
	if w.NewID == nil {
		w.NewID = uuid.NewString
	}
	fn()
	snap := w.snapshotLocked()
	notify := w.OnChange
	w.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
}

func (w *Widget) snapshotLocked() Snapshot {
	snap := Snapshot{Open: w.open, Input: w.input, Busy: w.busy}
	if w.transcript != nil {
		snap.Messages = w.transcript.Messages()
	}
	return snap
}
