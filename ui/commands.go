package ui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"nailchat/assistant"
	"nailchat/attachment"
	"nailchat/engine"
)

const healthTimeout = 5 * time.Second

// connect obtains a conversation for the active session
func connect(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		return connectedMsg{err: eng.Connect(context.Background())}
	}
}

// completeSend waits for the assistant's reply to an applied message
func completeSend(eng *engine.Engine, p *engine.PendingSend) tea.Cmd {
	return func() tea.Msg {
		answer, err := eng.CompleteSend(context.Background(), p)
		return sendDoneMsg{answer: answer, err: err}
	}
}

// forgetRemote drops a deleted session's conversation on the service
func forgetRemote(eng *engine.Engine, conversationID string) tea.Cmd {
	return func() tea.Msg {
		eng.ForgetRemote(context.Background(), conversationID)
		return remoteForgottenMsg{conversationID: conversationID}
	}
}

func loadImage(path string) tea.Cmd {
	return func() tea.Msg {
		img, err := attachment.Load(path)
		return imageLoadedMsg{image: img, err: err}
	}
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{err: clipboard.WriteAll(text)}
	}
}

func checkHealth(check HealthFunc) tea.Cmd {
	if check == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		health, err := check(ctx)
		return healthMsg{health: health, err: err}
	}
}

// HealthFunc reports the assistant service status
type HealthFunc func(ctx context.Context) (*assistant.Health, error)
