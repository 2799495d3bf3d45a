package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/coral-mesh/kbchat/internal/session"
)

// submitQuestionCmd sends a question through the controller.
func submitQuestionCmd(ctx context.Context, ctrl *session.Controller, text string) tea.Cmd {
	return func() tea.Msg {
		outcome, err := ctrl.SubmitQuestion(ctx, text)
		return operationDoneMsg{outcome: outcome, err: err}
	}
}

// quickReplyCmd submits a quick reply of a bot message.
func quickReplyCmd(ctx context.Context, ctrl *session.Controller, messageID string, index int) tea.Cmd {
	return func() tea.Msg {
		outcome, err := ctrl.SubmitQuickReply(ctx, messageID, index)
		return operationDoneMsg{outcome: outcome, err: err}
	}
}

// uploadCmd uploads a local file.
func uploadCmd(ctx context.Context, ctrl *session.Controller, path string) tea.Cmd {
	return func() tea.Msg {
		outcome, err := ctrl.UploadPath(ctx, path)
		return operationDoneMsg{outcome: outcome, err: err}
	}
}

// resetCmd wipes the knowledge base.
func resetCmd(ctx context.Context, ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		outcome, err := ctrl.ResetKnowledge(ctx)
		return operationDoneMsg{outcome: outcome, err: err}
	}
}

// loadKnowledgeCmd fills the knowledge panel opened by OpenKnowledge.
func loadKnowledgeCmd(ctx context.Context, ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return knowledgeLoadedMsg{panel: ctrl.LoadKnowledge(ctx)}
	}
}
