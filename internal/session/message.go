package session

import (
	"fmt"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Fixed chat strings shown to the user.
const (
	SourceKnowledgeBase = "Knowledge Base"

	MsgNoAnswer     = "No answer found"
	MsgServerError  = "Server error!"
	MsgUploadFailed = "Upload failed!"
	MsgResetFailed  = "Reset failed!"

	MsgKnowledgeLoading = "Loading knowledge base..."
	MsgKnowledgeEmpty   = "Knowledge base is empty."
	MsgKnowledgeFailed  = "Failed to load knowledge. Server might be down."

	MsgNoHistory = "No history yet."
)

// UploadingMessage is the status line appended when an upload starts.
func UploadingMessage(name string) string {
	return fmt.Sprintf("Uploading %s...", name)
}

// Message is one entry of the transcript. It is never mutated once appended.
type Message struct {
	ID           string    `json:"id"`
	Role         Role      `json:"role"`
	Text         string    `json:"text"`
	SourceLabel  string    `json:"source,omitempty"`
	Highlight    string    `json:"highlight,omitempty"`
	QuickReplies []string  `json:"quick_replies,omitempty"`
	TokenCount   *int      `json:"tokens,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Footer returns the decoration lines rendered under the text:
// source label, quoted highlight and token usage, in that order.
func (m Message) Footer() []string {
	var lines []string
	if m.SourceLabel != "" {
		lines = append(lines, "Source: "+m.SourceLabel)
	}
	if m.Highlight != "" {
		lines = append(lines, `"`+m.Highlight+`"`)
	}
	if m.TokenCount != nil {
		lines = append(lines, fmt.Sprintf("Tokens used: %d", *m.TokenCount))
	}
	return lines
}

func (m Message) clone() Message {
	if m.QuickReplies != nil {
		m.QuickReplies = append([]string(nil), m.QuickReplies...)
	}
	if m.TokenCount != nil {
		n := *m.TokenCount
		m.TokenCount = &n
	}
	return m
}
