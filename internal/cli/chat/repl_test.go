package chat

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/kbchat/internal/constants"
	"github.com/coral-mesh/kbchat/internal/knowledge"
	"github.com/coral-mesh/kbchat/internal/knowledge/knowledgetest"
	"github.com/coral-mesh/kbchat/internal/session"
	"github.com/coral-mesh/kbchat/internal/testutil"
)

// scriptReader replays lines and records prompt pre-fills.
type scriptReader struct {
	lines    []string
	prefills []string
}

func (s *scriptReader) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == "^C" {
		return "", readline.ErrInterrupt
	}
	return line, nil
}

func (s *scriptReader) WriteStdin(b []byte) (int, error) {
	s.prefills = append(s.prefills, string(b))
	return len(b), nil
}

func newREPL(t *testing.T) (*REPL, *knowledgetest.Server, *bytes.Buffer) {
	t.Helper()
	srv := knowledgetest.NewServer()
	t.Cleanup(srv.Close)

	client, err := knowledge.NewClient(srv.URL, knowledge.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	var out bytes.Buffer
	ctrl := session.New(client, session.WithLogger(testutil.NewTestLogger(t)))
	return NewREPL(ctrl, &out, "Nova"), srv, &out
}

func runScript(t *testing.T, r *REPL, lines ...string) *scriptReader {
	t.Helper()
	in := &scriptReader{lines: lines}
	require.NoError(t, r.Run(testutil.NewTestContext(t), in))
	return in
}

func TestREPL_Question(t *testing.T) {
	r, srv, out := newREPL(t)
	srv.SetAnswer(knowledge.Answer{Answer: "X is Y", QuickReplies: []string{"Why?", "How?"}})

	runScript(t, r, "What is X?")

	assert.Equal(t, "Nova: X is Y\n  Source: Knowledge Base\n  [1] Why?\n  [2] How?\n", out.String())
	assert.Equal(t, []string{"What is X?"}, srv.Questions())
}

func TestREPL_ServerError(t *testing.T) {
	r, srv, out := newREPL(t)
	srv.Fail(knowledge.PathAsk, http.StatusInternalServerError, "boom")

	runScript(t, r, "q")

	assert.Equal(t, "Nova: Server error!\n", out.String())
}

func TestREPL_QuickReply(t *testing.T) {
	r, srv, out := newREPL(t)
	srv.SetAnswer(knowledge.Answer{Answer: "A", QuickReplies: []string{"Tell me more"}})

	runScript(t, r, "q", "/reply 1", "/reply 5")

	assert.Equal(t, []string{"q", "Tell me more"}, srv.Questions())
	assert.Contains(t, out.String(), "Error: "+session.ErrNoSuchQuickReply.Error())
}

func TestREPL_History(t *testing.T) {
	r, _, out := newREPL(t)

	in := runScript(t, r, "/history", "first", "second", "/history", "/use 1", "/use 9")

	assert.Contains(t, out.String(), session.MsgNoHistory+"\n")
	assert.Contains(t, out.String(), "  1. first\n  2. second\n")
	assert.Contains(t, out.String(), "Selected: first\n")
	assert.Contains(t, out.String(), "Error: "+session.ErrNoSuchHistoryEntry.Error())
	assert.Equal(t, []string{"first"}, in.prefills)
}

func TestREPL_UploadAndKnowledge(t *testing.T) {
	r, srv, out := newREPL(t)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("kbchat stores notes"), 0o600))

	runScript(t, r, "/upload "+path, "/knowledge notes", "/reset", "/knowledge")

	text := out.String()
	assert.Contains(t, text, "Nova: Uploading notes.txt...\n")
	assert.Contains(t, text, "Nova: Database updated with 1 new documents\n")
	assert.Contains(t, text, "[notes.txt]\nkbchat stores notes\n\n")
	assert.Contains(t, text, "Nova: Knowledge base has been fully reset.\n")
	assert.Contains(t, text, session.MsgKnowledgeEmpty+"\n")
	assert.Len(t, srv.Uploads(), 1)
}

func TestREPL_UploadErrors(t *testing.T) {
	r, srv, out := newREPL(t)

	runScript(t, r, "/upload", "/upload "+filepath.Join(t.TempDir(), "missing.pdf"))

	assert.Contains(t, out.String(), "Error: usage: /upload <file>")
	assert.Contains(t, out.String(), "Error: failed to open")
	assert.Empty(t, srv.Uploads())
	assert.Empty(t, r.ctrl.Transcript())
}

func TestREPL_KnowledgeFailure(t *testing.T) {
	r, srv, out := newREPL(t)
	srv.Fail(knowledge.PathViewKnowledge, http.StatusInternalServerError, "down")

	runScript(t, r, "/knowledge")

	assert.Equal(t, session.MsgKnowledgeFailed+"\n", out.String())
	assert.False(t, r.ctrl.Knowledge().Open)
}

func TestREPL_Commands(t *testing.T) {
	r, srv, out := newREPL(t)

	runScript(t, r, "", "   ", "^C", "/help", "/bogus", "/exit", "never sent")

	assert.Contains(t, out.String(), "/upload <file>")
	assert.Contains(t, out.String(), "Error: unknown command: /bogus")
	assert.Empty(t, srv.Questions())
}

func TestREPL_Scanner(t *testing.T) {
	r, srv, out := newREPL(t)
	srv.SetAnswer(knowledge.Answer{Answer: "hi"})

	in := newScanner(bytes.NewBufferString("hello\n/quit\n"))
	require.NoError(t, r.Run(testutil.NewTestContext(t), in))

	assert.Equal(t, "Nova: hi\n  Source: Knowledge Base\n", out.String())
}

func TestREPL_ScannerLongLine(t *testing.T) {
	r, srv, _ := newREPL(t)
	srv.SetAnswer(knowledge.Answer{Answer: "ok"})

	long := strings.Repeat("x", 200*1024)
	in := newScanner(bytes.NewBufferString(long + "\n/quit\n"))
	require.NoError(t, r.Run(testutil.NewTestContext(t), in))

	assert.Equal(t, []string{long}, srv.Questions())
}

func TestScanner_LineTooLong(t *testing.T) {
	in := newScanner(bytes.NewBufferString(strings.Repeat("x", constants.MaxInputLineBytes+1) + "\n"))

	_, err := in.Readline()
	assert.ErrorIs(t, err, bufio.ErrTooLong)
}

func TestNewChatCmd(t *testing.T) {
	cmd := NewChatCmd(nil)

	assert.Equal(t, "chat", cmd.Name())
	flag := cmd.Flags().Lookup("plain")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
	assert.Error(t, cmd.Args(cmd, []string{"extra"}))
}
