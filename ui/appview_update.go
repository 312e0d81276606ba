package ui

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"nailchat/attachment"
	"nailchat/engine"
	"nailchat/markup"
	"nailchat/storage"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The file picker reads directories through its own messages
	if a.imagePicker.Active {
		if _, isKey := msg.(tea.KeyMsg); !isKey {
			var cmd tea.Cmd
			a.imagePicker.Picker, cmd = a.imagePicker.Picker.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		// Title, spacer, notice, textarea (3 lines) and status bar
		a.viewport.Width = a.width
		a.viewport.Height = max(a.height-7, 1)
		a.textarea.SetWidth(a.width)
		a.imagePicker.Picker.Height = max(a.height-14, 3)

		a.ready = true
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !a.busy() {
			return a, tea.Batch(cmds...)
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.updateViewportContent(false)
		return a, tea.Batch(append(cmds, cmd)...)

	case connectedMsg:
		a.refresh()
		if msg.err != nil {
			a.log.Error().Err(msg.err).Msg("conversation could not be started")
		}
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)

	case sendDoneMsg:
		a.refresh()
		if msg.err != nil {
			a.sendError = fmt.Sprintf("Message not sent: %v", msg.err)
		} else {
			a.sendError = ""
		}
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)

	case remoteForgottenMsg:
		a.log.Debug().Str("conversation_id", msg.conversationID).Msg("remote conversation released")
		a.refresh()
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)

	case imageLoadedMsg:
		if msg.err != nil {
			a.sendError = msg.err.Error()
			return a, tea.Batch(cmds...)
		}
		a.draft.Attach(msg.image)
		a.sendError = ""
		return a, tea.Batch(cmds...)

	case clipboardMsg:
		if msg.err != nil {
			a.status = fmt.Sprintf("Copy failed: %v", msg.err)
		} else {
			a.status = "Copied last response to clipboard"
		}
		return a, tea.Batch(cmds...)

	case healthMsg:
		switch {
		case msg.err != nil:
			a.serviceStatus = "offline"
		case msg.health.SystemReady:
			a.serviceStatus = "online"
		default:
			a.serviceStatus = msg.health.Status
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		var (
			cmd     tea.Cmd
			handled bool
		)
		switch {
		case a.imagePicker.Active:
			a, cmd = a.handleImagePickerKey(msg)
			handled = true
		case a.showHelp:
			if msg.String() == "esc" || a.isAction(msg, "help") {
				a.showHelp = false
			}
			handled = true
		case a.sessionManager.visible:
			a, cmd = a.handleSessionManagerKey(msg)
			handled = true
		case a.search.visible:
			a, cmd = a.handleSearchKey(msg)
			handled = true
		default:
			a, cmd, handled = a.handleMainKey(msg)
		}
		cmds = append(cmds, cmd)
		if handled {
			return a, tea.Batch(cmds...)
		}
	}

	// The composer is read-only until a conversation exists
	if _, isKey := msg.(tea.KeyMsg); isKey && !a.snapshot.Ready {
		return a, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	cmds = append(cmds, cmd)

	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

func (a AppView) isAction(msg tea.KeyMsg, action string) bool {
	return msg.String() == a.kb.GetActionKey(action)
}

// handleMainKey handles shortcuts in the chat view. It reports whether the
// key was consumed; unconsumed keys go to the composer.
func (a AppView) handleMainKey(msg tea.KeyMsg) (AppView, tea.Cmd, bool) {
	switch {
	case a.isAction(msg, "quit"):
		return a, tea.Quit, true

	case a.isAction(msg, "help"):
		a.showHelp = true
		return a, nil, true

	case a.isAction(msg, "send"):
		cmd := a.send()
		return a, cmd, true

	case a.isAction(msg, "new_chat"):
		return a.newChat()

	case a.isAction(msg, "session_manager"):
		a.openSessionManager()
		return a, nil, true

	case a.isAction(msg, "search_messages"):
		a.openSearch()
		return a, nil, true

	case a.isAction(msg, "attach_image"):
		a.imagePicker.Activate()
		return a, a.imagePicker.Picker.Init(), true

	case a.isAction(msg, "remove_image"):
		if a.draft.HasImage() {
			a.draft.RemoveImage()
			a.status = "Image removed"
		}
		return a, nil, true

	case a.isAction(msg, "yank_last_response"):
		last, ok := a.lastAssistantMessage()
		if !ok {
			a.status = "Nothing to copy yet"
			return a, nil, true
		}
		return a, copyToClipboard(markup.PlainText(markup.Render(last.Content))), true

	case a.isAction(msg, "like"):
		a.setFeedback(storage.FeedbackLiked)
		return a, nil, true

	case a.isAction(msg, "dislike"):
		a.setFeedback(storage.FeedbackDisliked)
		return a, nil, true

	case a.isAction(msg, "dismiss"):
		a.sendError = ""
		a.status = ""
		return a, nil, true

	case a.isAction(msg, "scroll_up"):
		a.viewport.HalfPageUp()
		return a, nil, true

	case a.isAction(msg, "scroll_down"):
		a.viewport.HalfPageDown()
		return a, nil, true
	}

	return a, nil, false
}

// send applies the composer content to the active session and dispatches
// the remote call
func (a *AppView) send() tea.Cmd {
	if !a.snapshot.Ready {
		return nil
	}

	a.draft.Text = a.textarea.Value()
	p, err := a.eng.BeginSend(a.draft.Text, &a.draft)
	switch {
	case errors.Is(err, engine.ErrEmptyMessage), errors.Is(err, engine.ErrNotReady):
		return nil
	case errors.Is(err, engine.ErrSendInFlight):
		a.status = "Still waiting for the previous reply"
		return nil
	case err != nil:
		a.sendError = err.Error()
		return nil
	}

	a.textarea.Reset()
	a.sendError = ""
	a.status = ""
	a.refresh()
	a.updateViewportContent(true)

	return tea.Batch(completeSend(a.eng, p), a.spinner.Tick)
}

func (a AppView) newChat() (AppView, tea.Cmd, bool) {
	if !a.eng.NewChat() {
		if a.snapshot.InitError != nil {
			// Retry a conversation that failed to start
			return a, tea.Batch(connect(a.eng), a.spinner.Tick), true
		}
		a.status = "Already in a new chat"
		return a, nil, true
	}

	a.textarea.Reset()
	a.draft.Reset()
	a.sendError = ""
	a.status = ""
	a.refresh()
	a.updateViewportContent(true)

	return a, tea.Batch(connect(a.eng), a.spinner.Tick), true
}

func (a *AppView) setFeedback(feedback storage.Feedback) {
	last, ok := a.lastAssistantMessage()
	if !ok {
		return
	}

	result, err := a.eng.SetFeedback(last.ID, feedback)
	if err != nil {
		a.log.Warn().Err(err).Str("message_id", last.ID).Msg("feedback rejected")
		return
	}

	switch result {
	case storage.FeedbackLiked:
		a.status = "Marked last response as helpful"
	case storage.FeedbackDisliked:
		a.status = "Marked last response as not helpful"
	default:
		a.status = "Feedback cleared"
	}
	a.refresh()
	a.updateViewportContent(false)
}

func (a AppView) handleImagePickerKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	if msg.String() == "esc" {
		a.imagePicker.Reset()
		return a, nil
	}

	var cmd tea.Cmd
	a.imagePicker.Picker, cmd = a.imagePicker.Picker.Update(msg)

	if selected, path := a.imagePicker.Picker.DidSelectFile(msg); selected {
		a.imagePicker.Reset()
		return a, loadImage(path)
	}
	if disabled, path := a.imagePicker.Picker.DidSelectDisabledFile(msg); disabled {
		a.imagePicker.Reset()
		a.sendError = (&attachment.ValidationError{Name: filepath.Base(path), Message: "unsupported image type (supported: JPEG, PNG, WebP)"}).Error()
		return a, nil
	}

	return a, cmd
}
