package knowledge_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/kbchat/internal/knowledge"
	"github.com/coral-mesh/kbchat/internal/knowledge/knowledgetest"
)

func newClient(t *testing.T, srv *knowledgetest.Server, opts ...knowledge.Option) *knowledge.Client {
	t.Helper()
	c, err := knowledge.NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "127.0.0.1:8000", "://bad", "http://"} {
		t.Run(raw, func(t *testing.T) {
			_, err := knowledge.NewClient(raw)
			assert.Error(t, err)
		})
	}
}

func TestClient_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("enriched answer", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()

		tokens := 12
		srv.SetAnswer(knowledge.Answer{
			Answer:       "X is Y",
			Highlight:    "Y",
			QuickReplies: []string{"Tell me more"},
			Tokens:       &tokens,
		})

		answer, err := newClient(t, srv).Ask(ctx, "What is X?")
		require.NoError(t, err)
		assert.Equal(t, "X is Y", answer.Answer)
		assert.Equal(t, "Y", answer.Highlight)
		assert.Equal(t, []string{"Tell me more"}, answer.QuickReplies)
		require.NotNil(t, answer.Tokens)
		assert.Equal(t, 12, *answer.Tokens)
		assert.Equal(t, []string{"What is X?"}, srv.Questions())
	})

	t.Run("plain answer", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()

		answer, err := newClient(t, srv).Ask(ctx, "anything")
		require.NoError(t, err)
		assert.Equal(t, "I don't have any information", answer.Answer)
		assert.Nil(t, answer.Tokens)
		assert.Empty(t, answer.QuickReplies)
	})

	t.Run("service error body", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()
		srv.Fail(knowledge.PathAsk, http.StatusOK, `{"error":"llm unavailable"}`)

		_, err := newClient(t, srv).Ask(ctx, "q")
		var svcErr *knowledge.ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "llm unavailable", svcErr.Message)
	})

	t.Run("non-success status", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()
		srv.Fail(knowledge.PathAsk, http.StatusInternalServerError, "boom")

		_, err := newClient(t, srv).Ask(ctx, "q")
		var statusErr *knowledge.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
		assert.Equal(t, "boom", statusErr.Body)
	})

	t.Run("malformed json", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()
		srv.Fail(knowledge.PathAsk, http.StatusOK, `<html>`)

		_, err := newClient(t, srv).Ask(ctx, "q")
		var decodeErr *knowledge.DecodeError
		require.ErrorAs(t, err, &decodeErr)
	})

	t.Run("empty body", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()
		srv.Fail(knowledge.PathAsk, http.StatusOK, "")

		_, err := newClient(t, srv).Ask(ctx, "q")
		var decodeErr *knowledge.DecodeError
		require.ErrorAs(t, err, &decodeErr)
	})

	t.Run("transport failure", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		c := newClient(t, srv)
		srv.Close()

		_, err := c.Ask(ctx, "q")
		require.Error(t, err)
		var urlErr *url.Error
		assert.True(t, errors.As(err, &urlErr))
	})
}

func TestClient_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("default path", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()
		srv.SetUploadMessage("Stored 3 chunks")

		status, err := newClient(t, srv).Upload(ctx, "notes.txt", strings.NewReader("hello world"))
		require.NoError(t, err)
		assert.Equal(t, "Stored 3 chunks", status.Message)

		uploads := srv.Uploads()
		require.Len(t, uploads, 1)
		assert.Equal(t, knowledge.PathUpload, uploads[0].Path)
		assert.Equal(t, "notes.txt", uploads[0].Filename)
		assert.Equal(t, "text/plain", uploads[0].ContentType)
		assert.Equal(t, "hello world", string(uploads[0].Data))
	})

	t.Run("add-knowledge path", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()

		c := newClient(t, srv, knowledge.WithUploadPath(knowledge.PathAddKnowledge))
		assert.Equal(t, knowledge.PathAddKnowledge, c.UploadPath())

		status, err := c.Upload(ctx, "notes.txt", strings.NewReader("some content"))
		require.NoError(t, err)
		assert.Equal(t, "Database updated with 1 new documents", status.Message)
		assert.Equal(t, 1, srv.Calls(knowledge.PathAddKnowledge))
		assert.Zero(t, srv.Calls(knowledge.PathUpload))
	})

	t.Run("pdf is sniffed", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()

		_, err := newClient(t, srv).Upload(ctx, "doc.bin", strings.NewReader("%PDF-1.7\n%binary"))
		require.NoError(t, err)

		uploads := srv.Uploads()
		require.Len(t, uploads, 1)
		assert.Equal(t, "application/pdf", uploads[0].ContentType)
	})

	t.Run("file name is reduced to its base", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()

		_, err := newClient(t, srv).Upload(ctx, "/tmp/dir/doc.txt", strings.NewReader("abc"))
		require.NoError(t, err)
		assert.Equal(t, "doc.txt", srv.Uploads()[0].Filename)
	})

	t.Run("missing message", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()
		srv.Fail(knowledge.PathUpload, http.StatusOK, `{}`)

		_, err := newClient(t, srv).Upload(ctx, "a.txt", strings.NewReader("abc"))
		assert.ErrorIs(t, err, knowledge.ErrMissingField)
	})

	t.Run("service error body", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()
		srv.Fail(knowledge.PathUpload, http.StatusOK, `{"error":"Unsupported file type"}`)

		_, err := newClient(t, srv).Upload(ctx, "a.docx", strings.NewReader("abc"))
		var svcErr *knowledge.ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "Unsupported file type", svcErr.Message)
	})
}

func TestClient_ViewKnowledge(t *testing.T) {
	ctx := context.Background()

	t.Run("lists entries", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()
		srv.AddEntries(
			knowledge.Entry{Source: "a.txt", Content: "alpha"},
			knowledge.Entry{Source: "b.txt", Content: "beta"},
		)

		entries, err := newClient(t, srv).ViewKnowledge(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []knowledge.Entry{
			{Source: "a.txt", Content: "alpha"},
			{Source: "b.txt", Content: "beta"},
		}, entries)
	})

	t.Run("topic is escaped and forwarded", func(t *testing.T) {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(`{"knowledge":[]}`))
		}))
		defer srv.Close()

		c, err := knowledge.NewClient(srv.URL)
		require.NoError(t, err)

		entries, err := c.ViewKnowledge(ctx, "a&b c")
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Equal(t, "topic=a%26b+c", gotQuery)
	})

	t.Run("empty list", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()

		entries, err := newClient(t, srv).ViewKnowledge(ctx, "")
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("missing knowledge field", func(t *testing.T) {
		srv := knowledgetest.NewServer()
		defer srv.Close()
		srv.Fail(knowledge.PathViewKnowledge, http.StatusOK, `{"items":[]}`)

		_, err := newClient(t, srv).ViewKnowledge(ctx, "")
		assert.ErrorIs(t, err, knowledge.ErrMissingField)
	})
}

func TestClient_ResetAndPing(t *testing.T) {
	ctx := context.Background()
	srv := knowledgetest.NewServer()
	defer srv.Close()
	srv.AddEntries(knowledge.Entry{Source: "a.txt", Content: "alpha"})

	c := newClient(t, srv)

	status, err := c.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Knowledge base has been fully reset.", status.Message)
	assert.Empty(t, srv.Entries())

	banner, err := c.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RAG-BOT", banner.Message)
}

func TestClient_Timeout(t *testing.T) {
	srv := knowledgetest.NewServer()
	defer srv.Close()

	_, release := srv.Hold(knowledge.PathAsk)
	defer release()

	c := newClient(t, srv, knowledge.WithTimeout(50*time.Millisecond))
	_, err := c.Ask(context.Background(), "slow")
	assert.Error(t, err)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "transport", err: &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}, want: true},
		{name: "5xx", err: &knowledge.StatusError{Op: "ping", Code: http.StatusBadGateway}, want: true},
		{name: "429", err: &knowledge.StatusError{Op: "ping", Code: http.StatusTooManyRequests}, want: true},
		{name: "4xx", err: &knowledge.StatusError{Op: "ping", Code: http.StatusNotFound}, want: false},
		{name: "malformed", err: &knowledge.DecodeError{Op: "ping", Err: errors.New("eof")}, want: false},
		{name: "service", err: &knowledge.ServiceError{Op: "ping", Message: "nope"}, want: false},
		{name: "missing field", err: knowledge.ErrMissingField, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, knowledge.IsTransient(tt.err))
		})
	}
}
