// Package knowledge provides an HTTP client for the Knowledge Service, the
// remote backend that answers questions and ingests documents.
package knowledge

// Paths of the Knowledge Service endpoints.
const (
	PathRoot           = "/"
	PathAsk            = "/ask"
	PathUpload         = "/upload"
	PathAddKnowledge   = "/add-knowledge"
	PathViewKnowledge  = "/view-knowledge"
	PathResetKnowledge = "/reset-knowledge"
)

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// Answer is the response of POST /ask.
// Only Answer is present in the plain response shape; the rest are optional.
type Answer struct {
	Question     string   `json:"question,omitempty"`
	Answer       string   `json:"answer"`
	Highlight    string   `json:"highlight,omitempty"`
	QuickReplies []string `json:"quick_replies,omitempty"`
	Tokens       *int     `json:"tokens,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Status is the response of upload, reset and the root endpoint.
type Status struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Entry is one stored knowledge chunk.
type Entry struct {
	Source  string `json:"source" header:"SOURCE"`
	Content string `json:"content" header:"CONTENT"`
}

// Listing is the response of GET /view-knowledge.
type Listing struct {
	Knowledge []Entry `json:"knowledge"`
	Error     string  `json:"error,omitempty"`
}
