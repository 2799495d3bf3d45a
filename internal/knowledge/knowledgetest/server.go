// Package knowledgetest provides an in-memory Knowledge Service for tests.
package knowledgetest

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coral-mesh/kbchat/internal/knowledge"
)

// chunkSize mirrors the splitter size the real service uses.
const chunkSize = 100

// Upload records a received multipart upload.
type Upload struct {
	Path        string
	Filename    string
	ContentType string
	Data        []byte
}

type failure struct {
	status int
	body   string
}

// Server is a fake Knowledge Service backed by httptest.Server.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	entries       []knowledge.Entry
	answer        *knowledge.Answer
	uploadMessage string
	failures      map[string]failure
	holds         map[string]chan struct{}
	entered       map[string]chan struct{}
	questions     []string
	uploads       []Upload
	calls         map[string]int
}

// NewServer starts a fake service. Close it with Server.Close.
func NewServer() *Server {
	s := &Server{
		failures: make(map[string]failure),
		holds:    make(map[string]chan struct{}),
		entered:  make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
	s.Server = httptest.NewServer(s.Router())
	return s
}

// Router returns the chi router serving the service contract.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.intercept)

	r.Get(knowledge.PathRoot, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, knowledge.Status{Message: "RAG-BOT"})
	})
	r.Post(knowledge.PathAsk, s.handleAsk)
	r.Post(knowledge.PathUpload, s.handleUpload)
	r.Post(knowledge.PathAddKnowledge, s.handleUpload)
	r.Get(knowledge.PathViewKnowledge, s.handleViewKnowledge)
	r.Post(knowledge.PathResetKnowledge, s.handleReset)
	return r
}

// SetAnswer fixes the response of /ask.
func (s *Server) SetAnswer(a knowledge.Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answer = &a
}

// SetUploadMessage fixes the message returned by the upload endpoints.
func (s *Server) SetUploadMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadMessage = msg
}

// AddEntries seeds the stored knowledge.
func (s *Server) AddEntries(entries ...knowledge.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
}

// Fail makes every request to path answer with status and a raw body.
func (s *Server) Fail(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, body: body}
}

// Hold blocks requests to path until release is called. The returned
// entered channel is closed once a request has reached the handler.
func (s *Server) Hold(path string) (entered <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	in := make(chan struct{})
	s.holds[path] = gate
	s.entered[path] = in
	var once sync.Once
	return in, func() { once.Do(func() { close(gate) }) }
}

// Questions returns the questions received by /ask in order.
func (s *Server) Questions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.questions...)
}

// Uploads returns the uploads received so far.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Calls returns how many requests reached path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// Entries returns the stored knowledge.
func (s *Server) Entries() []knowledge.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]knowledge.Entry(nil), s.entries...)
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		s.mu.Lock()
		s.calls[path]++
		gate := s.holds[path]
		in := s.entered[path]
		f, failing := s.failures[path]
		delete(s.holds, path)
		delete(s.entered, path)
		s.mu.Unlock()

		if in != nil {
			close(in)
		}
		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req knowledge.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid request body"})
		return
	}

	s.mu.Lock()
	s.questions = append(s.questions, req.Question)
	answer := s.answer
	s.mu.Unlock()

	if answer == nil {
		respondJSON(w, http.StatusOK, knowledge.Answer{Question: req.Question, Answer: "I don't have any information"})
		return
	}
	respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "file field is required"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		respondJSON(w, http.StatusOK, knowledge.Status{Error: err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads = append(s.uploads, Upload{
		Path:        r.URL.Path,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})

	added := s.storeLocked(header.Filename, string(data))
	msg := s.uploadMessage
	if msg == "" {
		if added == 0 {
			msg = "No new documents to add"
		} else {
			msg = fmt.Sprintf("Database updated with %d new documents", added)
		}
	}
	respondJSON(w, http.StatusOK, knowledge.Status{Message: msg})
}

// storeLocked splits text into chunks and keeps those not already stored.
func (s *Server) storeLocked(source, text string) int {
	existing := make(map[string]bool, len(s.entries))
	for _, e := range s.entries {
		existing[e.Content] = true
	}

	added := 0
	for start := 0; start < len(text); start += chunkSize {
		end := min(start+chunkSize, len(text))
		chunk := strings.TrimSpace(text[start:end])
		if chunk == "" || existing[chunk] {
			continue
		}
		existing[chunk] = true
		s.entries = append(s.entries, knowledge.Entry{Source: source, Content: chunk})
		added++
	}
	return added
}

func (s *Server) handleViewKnowledge(w http.ResponseWriter, r *http.Request) {
	topic := strings.ToLower(r.URL.Query().Get("topic"))

	s.mu.Lock()
	list := make([]knowledge.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if topic == "" ||
			strings.Contains(strings.ToLower(e.Content), topic) ||
			strings.Contains(strings.ToLower(e.Source), topic) {
			list = append(list, e)
		}
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, knowledge.Listing{Knowledge: list})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, knowledge.Status{Message: "Knowledge base has been fully reset."})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("knowledgetest: failed to encode response: %v", err)
	}
}
