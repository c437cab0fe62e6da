package widget

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Action is a change to a Transcript.
type Action interface {
	isAction()
}

// Append adds a message at the end.
type Append struct {
	Message Message
}

// Upsert replaces the content of the message with Message.ID, or appends
// Message when no such id exists yet.
type Upsert struct {
	Message Message
}

func (Append) isAction() {}
func (Upsert) isAction() {}

// Transcript is an ordered message list keyed by id.
type Transcript struct {
	messages []Message
	index    map[string]int
}

func NewTranscript() *Transcript {
	return &Transcript{index: make(map[string]int)}
}

func (t *Transcript) Apply(a Action) {
	if t.index == nil {
		t.index = make(map[string]int)
	}

	switch a := a.(type) {
	case Append:
		t.push(a.Message)
	case Upsert:
		if i, ok := t.index[a.Message.ID]; ok {
			t.messages[i].Content = a.Message.Content
			return
		}
		t.push(a.Message)
	}
}

func (t *Transcript) push(m Message) {
	t.index[m.ID] = len(t.messages)
	t.messages = append(t.messages, m)
}

// Messages returns a copy in display order.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	return len(t.messages)
}

func (t *Transcript) Reset() {
	t.messages = nil
	t.index = make(map[string]int)
}
