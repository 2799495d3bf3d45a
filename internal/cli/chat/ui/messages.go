package ui

import "github.com/coral-mesh/kbchat/internal/session"

// operationDoneMsg reports the end of a primary operation.
type operationDoneMsg struct {
	outcome session.Outcome
	err     error
}

// knowledgeLoadedMsg reports the end of a knowledge panel load.
type knowledgeLoadedMsg struct {
	panel session.KnowledgePanel
}
