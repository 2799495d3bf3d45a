package session

import "sync"

// Transcript is the append-only, ordered log of chat messages.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{
		messages: make([]Message, 0, 16),
	}
}

// Append adds a message and returns the stored copy.
func (t *Transcript) Append(msg Message) Message {
	msg = msg.clone()
	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
	return msg.clone()
}

// Messages returns a copy of all messages in order.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	copied := make([]Message, len(t.messages))
	for i, m := range t.messages {
		copied[i] = m.clone()
	}
	return copied
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the most recent message.
func (t *Transcript) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1].clone(), true
}

// Find looks a message up by ID.
func (t *Transcript) Find(id string) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].ID == id {
			return t.messages[i].clone(), true
		}
	}
	return Message{}, false
}

// PromptHistory is the ordered list of submitted questions, most recent last.
// It lives for the process only.
type PromptHistory struct {
	mu      sync.RWMutex
	entries []string
}

// NewPromptHistory creates an empty history.
func NewPromptHistory() *PromptHistory {
	return &PromptHistory{}
}

// Append records a submitted question.
func (h *PromptHistory) Append(question string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, question)
}

// Entries returns a copy of the history in insertion order.
func (h *PromptHistory) Entries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.entries...)
}

// Len returns the number of entries.
func (h *PromptHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// At returns the entry at index i.
func (h *PromptHistory) At(i int) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if i < 0 || i >= len(h.entries) {
		return "", false
	}
	return h.entries[i], true
}
