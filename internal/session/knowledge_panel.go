package session

import "github.com/coral-mesh/kbchat/internal/knowledge"

// KnowledgeStatus is the content state of the knowledge viewer.
type KnowledgeStatus int

const (
	KnowledgeLoading KnowledgeStatus = iota
	KnowledgeLoaded
	KnowledgeEmpty
	KnowledgeFailed
)

func (s KnowledgeStatus) String() string {
	switch s {
	case KnowledgeLoading:
		return "loading"
	case KnowledgeLoaded:
		return "loaded"
	case KnowledgeEmpty:
		return "empty"
	case KnowledgeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// KnowledgePanel is the state of the knowledge viewer modal.
type KnowledgePanel struct {
	Open    bool
	Topic   string
	Status  KnowledgeStatus
	Entries []knowledge.Entry
}

// Placeholder returns the text shown instead of entries, or "" when loaded.
func (p KnowledgePanel) Placeholder() string {
	switch p.Status {
	case KnowledgeLoading:
		return MsgKnowledgeLoading
	case KnowledgeEmpty:
		return MsgKnowledgeEmpty
	case KnowledgeFailed:
		return MsgKnowledgeFailed
	default:
		return ""
	}
}

func (p KnowledgePanel) clone() KnowledgePanel {
	if p.Entries != nil {
		p.Entries = append([]knowledge.Entry(nil), p.Entries...)
	}
	return p
}
