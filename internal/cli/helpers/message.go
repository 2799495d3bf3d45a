package helpers

import (
	"fmt"
	"io"
	"strings"

	"github.com/coral-mesh/kbchat/internal/session"
)

// WriteMessage renders a transcript message as plain text. label prefixes
// the first line ("You", the assistant name); an empty label prints the text
// alone. withReplies lists the quick replies under the footer.
func WriteMessage(w io.Writer, msg session.Message, label string, withReplies bool) error {
	var b strings.Builder
	if label != "" {
		b.WriteString(label)
		b.WriteString(": ")
	}
	b.WriteString(msg.Text)
	b.WriteString("\n")

	for _, line := range msg.Footer() {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	if withReplies {
		for i, reply := range msg.QuickReplies {
			fmt.Fprintf(&b, "  [%d] %s\n", i+1, reply)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteKnowledge renders the knowledge panel as plain text.
func WriteKnowledge(w io.Writer, panel session.KnowledgePanel) error {
	var b strings.Builder
	if placeholder := panel.Placeholder(); placeholder != "" {
		b.WriteString(placeholder)
		b.WriteString("\n")
	}
	for _, e := range panel.Entries {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", e.Source, strings.TrimSpace(e.Content))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
