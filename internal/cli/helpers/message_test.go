package helpers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/kbchat/internal/knowledge"
	"github.com/coral-mesh/kbchat/internal/session"
)

func TestWriteMessage(t *testing.T) {
	tokens := 12
	msg := session.Message{
		Role:         session.RoleBot,
		Text:         "X is Y",
		SourceLabel:  session.SourceKnowledgeBase,
		Highlight:    "X is Y",
		QuickReplies: []string{"Why?", "How?"},
		TokenCount:   &tokens,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, msg, "Nova", true))
	assert.Equal(t, "Nova: X is Y\n"+
		"  Source: Knowledge Base\n"+
		"  \"X is Y\"\n"+
		"  Tokens used: 12\n"+
		"  [1] Why?\n"+
		"  [2] How?\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteMessage(&buf, session.Message{Text: "Server error!"}, "", true))
	assert.Equal(t, "Server error!\n", buf.String())
}

func TestWriteKnowledge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteKnowledge(&buf, session.KnowledgePanel{Status: session.KnowledgeFailed}))
	assert.Equal(t, session.MsgKnowledgeFailed+"\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteKnowledge(&buf, session.KnowledgePanel{
		Status:  session.KnowledgeLoaded,
		Entries: []knowledge.Entry{{Source: "a.txt", Content: " alpha \n"}},
	}))
	assert.Equal(t, "[a.txt]\nalpha\n\n", buf.String())
}
