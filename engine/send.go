package engine

import (
	"context"
	"errors"
	"strings"

	"nailchat/assistant"
	"nailchat/attachment"
	"nailchat/storage"
)

// ImagePlaceholder is the content of a user message that carried only an image
const ImagePlaceholder = "[image]"

// PendingSend is a user message that has been applied locally and is
// waiting for the assistant's reply
type PendingSend struct {
	// Message is the optimistic user message as appended
	Message storage.Message

	session        *storage.Session
	conversationID string
	text           string
	image          []byte
	caption        string
}

// HasImage reports whether the send carries an image
func (p *PendingSend) HasImage() bool {
	return p.image != nil
}

// BeginSend appends the user's message to the active session and claims the
// session's single send slot. The draft is cleared on success. Every
// successful BeginSend must be followed by exactly one CompleteSend.
func (e *Engine) BeginSend(text string, draft *attachment.Draft) (*PendingSend, error) {
	text = strings.TrimSpace(text)
	hasImage := draft != nil && draft.HasImage()
	if text == "" && !hasImage {
		return nil, ErrEmptyMessage
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	session := e.active
	if session.ConversationID == "" {
		return nil, ErrNotReady
	}
	if e.inFlight[session.ConversationID] {
		return nil, ErrSendInFlight
	}

	now := e.now()
	msg := storage.Message{
		ID:        storage.NewID(now),
		Role:      storage.RoleUser,
		Content:   text,
		Timestamp: now,
	}

	p := &PendingSend{
		session:        session,
		conversationID: session.ConversationID,
		text:           text,
	}

	if hasImage {
		msg.Image = draft.Preview()
		p.image = draft.Image.Data
		p.caption = text
		if p.caption == "" {
			p.caption = assistant.DefaultImageCaption
		}
		if text == "" {
			msg.Content = ImagePlaceholder
		}
	}

	session.Messages = append(session.Messages, msg)
	p.Message = msg
	e.inFlight[session.ConversationID] = true

	if draft != nil {
		draft.Reset()
	}

	e.log.Debug().
		Str("conversation_id", p.conversationID).
		Str("message_id", msg.ID).
		Bool("image", hasImage).
		Msg("message applied")

	return p, nil
}

// CompleteSend performs the remote call for a pending send. On success the
// assistant's reply is appended and returned; on failure the optimistic user
// message is removed. The send slot is released and the roster persisted
// either way.
func (e *Engine) CompleteSend(ctx context.Context, p *PendingSend) (*storage.Message, error) {
	if p == nil || p.session == nil {
		return nil, errors.New("invalid pending send")
	}

	if e.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.sendTimeout)
		defer cancel()
	}

	var (
		reply *assistant.Reply
		err   error
	)
	if p.image != nil {
		reply, err = e.remote.SendImage(ctx, p.conversationID, p.image, p.caption)
	} else {
		reply, err = e.remote.SendText(ctx, p.conversationID, p.text)
	}

	e.mu.Lock()
	delete(e.inFlight, p.conversationID)

	if err != nil {
		p.session.RemoveMessage(p.Message.ID)
		snapshot, version := e.snapshotLocked()
		e.mu.Unlock()

		e.log.Error().Err(err).
			Str("conversation_id", p.conversationID).
			Str("message_id", p.Message.ID).
			Msg("send failed, message rolled back")
		e.persist(snapshot, version)
		return nil, err
	}

	answer := e.commitLocked(p, reply)
	snapshot, version := e.snapshotLocked()
	e.mu.Unlock()

	e.log.Debug().
		Str("conversation_id", p.conversationID).
		Str("message_id", answer.ID).
		Int("tokens", reply.TokensUsed).
		Msg("reply received")
	e.persist(snapshot, version)

	return &answer, nil
}

func (e *Engine) commitLocked(p *PendingSend, reply *assistant.Reply) storage.Message {
	session := p.session
	now := e.now()

	answer := storage.Message{
		ID:        storage.NewID(now),
		Role:      storage.RoleAssistant,
		Content:   reply.Answer,
		Timestamp: now,
		Analysis:  reply.ImageAnalysis,
		RemoteID:  reply.MessageID,
		Language:  reply.Language,
		Sources:   sourcesFrom(reply.Sources),
	}
	session.Messages = append(session.Messages, answer)

	if session.UserMessageCount() == 1 {
		session.Title = storage.GenerateSessionName(session.FirstUserMessage())
	}
	session.Preview = storage.GeneratePreview(answer.Content)
	session.UpdatedAt = now

	if session.ID == "" {
		session.ID = storage.NewID(now)
		e.roster = append([]*storage.Session{session}, e.roster...)
	}

	return answer
}

func sourcesFrom(sources []assistant.Source) []storage.Source {
	if len(sources) == 0 {
		return nil
	}
	out := make([]storage.Source, len(sources))
	for i, src := range sources {
		out[i] = storage.Source{Title: src.Title, Category: src.Category, Score: src.Score}
	}
	return out
}

// Send applies and completes a message in one call
func (e *Engine) Send(ctx context.Context, text string, draft *attachment.Draft) (*storage.Message, error) {
	p, err := e.BeginSend(text, draft)
	if err != nil {
		return nil, err
	}
	return e.CompleteSend(ctx, p)
}
