// Package engine owns the session roster and the active conversation. It
// applies user intents optimistically, reconciles them with the assistant
// service and mirrors every change to a RosterStore.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nailchat/assistant"
	"nailchat/storage"
)

var (
	ErrNotReady           = errors.New("session has no conversation yet")
	ErrSendInFlight       = errors.New("a message is already being sent")
	ErrEmptyMessage       = errors.New("nothing to send")
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrMessageNotFound    = errors.New("message not found")
	ErrFeedbackNotAllowed = errors.New("only assistant messages accept feedback")
)

// Remote is the assistant service as seen by the engine
type Remote interface {
	CreateSession(ctx context.Context) (string, error)
	SendText(ctx context.Context, conversationID, text string) (*assistant.Reply, error)
	SendImage(ctx context.Context, conversationID string, image []byte, caption string) (*assistant.Reply, error)
	DeleteSession(ctx context.Context, conversationID string) error
}

// Option configures an Engine
type Option func(*Engine)

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = logger.With().Str("component", "engine").Logger()
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithSendTimeout bounds each remote send. Zero leaves the caller's context alone.
func WithSendTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.sendTimeout = d
	}
}

// Engine is the session state machine. All methods are safe for concurrent use.
type Engine struct {
	remote      Remote
	store       storage.RosterStore
	log         zerolog.Logger
	now         func() time.Time
	sendTimeout time.Duration

	mu         sync.Mutex
	roster     []*storage.Session
	active     *storage.Session
	inFlight   map[string]bool // keyed by conversation ID
	connecting chan struct{}
	initErr    error
	version    uint64

	saveMu    sync.Mutex
	savedUpTo uint64
}

// New creates an engine with an empty, uninitialized active session
func New(remote Remote, store storage.RosterStore, opts ...Option) *Engine {
	e := &Engine{
		remote:   remote,
		store:    store,
		log:      zerolog.Nop(),
		now:      time.Now,
		inFlight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.active = e.freshSession()
	return e
}

func (e *Engine) freshSession() *storage.Session {
	return &storage.Session{
		CreatedAt: e.now(),
		Messages:  []storage.Message{},
	}
}

// Load reads the roster from the store. A failed load leaves the engine with
// an empty roster; the error is returned for callers that want to report it.
func (e *Engine) Load() error {
	roster, err := e.store.LoadRoster()
	if err != nil {
		e.log.Error().Err(err).Msg("failed to load chat history, starting empty")
		roster = nil
	}

	e.mu.Lock()
	e.roster = make([]*storage.Session, 0, len(roster))
	for i := range roster {
		s := roster[i]
		e.roster = append(e.roster, &s)
	}
	e.mu.Unlock()

	e.log.Debug().Int("sessions", len(roster)).Msg("roster loaded")

	if err != nil {
		return fmt.Errorf("failed to load chat history: %w", err)
	}
	return nil
}

// Connect obtains a conversation ID for the active session if it has none.
// Concurrent calls share one remote request. A failure is kept as InitError
// and not retried until Connect is called again.
func (e *Engine) Connect(ctx context.Context) error {
	e.mu.Lock()
	if e.active.ConversationID != "" {
		e.mu.Unlock()
		return nil
	}
	if wait := e.connecting; wait != nil {
		e.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.initErr
	}

	done := make(chan struct{})
	e.connecting = done
	target := e.active
	e.mu.Unlock()

	conversationID, err := e.remote.CreateSession(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	defer close(done)
	e.connecting = nil

	if err != nil {
		e.log.Error().Err(err).Msg("failed to create conversation")
		if target == e.active {
			e.initErr = err
		}
		return err
	}

	if target.ConversationID == "" {
		target.ConversationID = conversationID
	}
	if target == e.active {
		e.initErr = nil
	}
	e.log.Info().Str("conversation_id", conversationID).Msg("conversation created")

	return nil
}

// Ready reports whether the active session can send
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.ConversationID != ""
}

// InitError returns the last failure to create a conversation for the active session
func (e *Engine) InitError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initErr
}

// Snapshot is a copy of the active session for rendering
type Snapshot struct {
	SessionID      string
	ConversationID string
	Title          string
	Messages       []storage.Message
	Ready          bool
	Sending        bool
	Connecting     bool
	InitError      error
}

// Active returns a snapshot of the active session
func (e *Engine) Active() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		SessionID:      e.active.ID,
		ConversationID: e.active.ConversationID,
		Title:          e.active.Title,
		Messages:       append([]storage.Message(nil), e.active.Messages...),
		Ready:          e.active.ConversationID != "",
		Sending:        e.active.ConversationID != "" && e.inFlight[e.active.ConversationID],
		Connecting:     e.connecting != nil,
		InitError:      e.initErr,
	}
}

// NewChat replaces the active session with a fresh one. It returns false and
// does nothing when the active session has no messages. Call Connect afterwards.
func (e *Engine) NewChat() bool {
	e.mu.Lock()
	if len(e.active.Messages) == 0 {
		e.mu.Unlock()
		return false
	}
	e.resetActiveLocked()
	e.mu.Unlock()

	e.log.Debug().Msg("new chat started")
	return true
}

func (e *Engine) resetActiveLocked() {
	e.active = e.freshSession()
	e.initErr = nil
}

// Switch makes the roster entry with the given ID the active session
func (e *Engine) Switch(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", storage.ErrSessionNotFound, id)
	}
	e.active = e.roster[idx]
	e.initErr = nil
	return nil
}

// TogglePin flips the pinned flag and returns the new value
func (e *Engine) TogglePin(id string) (bool, error) {
	e.mu.Lock()
	idx := e.indexLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return false, fmt.Errorf("%w: %s", storage.ErrSessionNotFound, id)
	}
	session := e.roster[idx]
	session.Pinned = !session.Pinned
	pinned := session.Pinned
	snapshot, version := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(snapshot, version)
	return pinned, nil
}

// Rename sets a session title. Blank titles are rejected.
func (e *Engine) Rename(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}

	e.mu.Lock()
	idx := e.indexLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", storage.ErrSessionNotFound, id)
	}
	e.roster[idx].Title = title
	snapshot, version := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(snapshot, version)
	return nil
}

// Remove deletes a session from the roster. When it was the active session
// the active session is reset regardless of its message count.
func (e *Engine) Remove(id string) (conversationID string, wasActive bool, err error) {
	e.mu.Lock()
	idx := e.indexLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return "", false, fmt.Errorf("%w: %s", storage.ErrSessionNotFound, id)
	}

	session := e.roster[idx]
	e.roster = append(e.roster[:idx], e.roster[idx+1:]...)
	conversationID = session.ConversationID
	wasActive = session == e.active
	if wasActive {
		e.resetActiveLocked()
	}
	snapshot, version := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(snapshot, version)
	e.log.Info().Str("session_id", id).Bool("active", wasActive).Msg("session deleted")

	return conversationID, wasActive, nil
}

// ForgetRemote asks the service to drop a conversation. Failures are logged
// and otherwise ignored.
func (e *Engine) ForgetRemote(ctx context.Context, conversationID string) {
	if conversationID == "" {
		return
	}
	if err := e.remote.DeleteSession(ctx, conversationID); err != nil {
		e.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to delete remote conversation")
	}
}

// Delete removes a session locally, then remotely. Deleting the active
// session starts a new conversation without waiting on the remote delete.
func (e *Engine) Delete(ctx context.Context, id string) error {
	conversationID, wasActive, err := e.Remove(id)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	if wasActive {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Recorded as InitError on failure
			_ = e.Connect(ctx)
		}()
	}

	e.ForgetRemote(ctx, conversationID)
	wg.Wait()
	return nil
}

// Sessions returns the roster filtered by a case-insensitive title match,
// pinned sessions first, otherwise in roster order.
func (e *Engine) Sessions(query string) []storage.Session {
	query = strings.ToLower(strings.TrimSpace(query))

	e.mu.Lock()
	defer e.mu.Unlock()

	var pinned, rest []storage.Session
	for _, s := range e.roster {
		if query != "" && !strings.Contains(strings.ToLower(s.Title), query) {
			continue
		}
		if s.Pinned {
			pinned = append(pinned, s.Clone())
		} else {
			rest = append(rest, s.Clone())
		}
	}

	return append(pinned, rest...)
}

// Session returns a copy of one roster entry
func (e *Engine) Session(id string) (storage.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexLocked(id)
	if idx < 0 {
		return storage.Session{}, fmt.Errorf("%w: %s", storage.ErrSessionNotFound, id)
	}
	return e.roster[idx].Clone(), nil
}

// Search fuzzy-matches message content across the roster
func (e *Engine) Search(query string) []storage.SessionMessageMatch {
	e.mu.Lock()
	roster := make([]storage.Session, len(e.roster))
	for i, s := range e.roster {
		roster[i] = s.Clone()
	}
	e.mu.Unlock()

	return storage.SearchMessages(roster, query)
}

// SetFeedback records a like or dislike on an assistant message of the
// active session. Setting the value a message already has clears it.
func (e *Engine) SetFeedback(messageID string, feedback storage.Feedback) (storage.Feedback, error) {
	e.mu.Lock()
	idx := e.active.MessageIndex(messageID)
	if idx < 0 {
		e.mu.Unlock()
		return storage.FeedbackNone, fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}

	msg := &e.active.Messages[idx]
	if msg.Role != storage.RoleAssistant {
		e.mu.Unlock()
		return storage.FeedbackNone, ErrFeedbackNotAllowed
	}

	if msg.Feedback == feedback {
		msg.Feedback = storage.FeedbackNone
	} else {
		msg.Feedback = feedback
	}
	result := msg.Feedback
	snapshot, version := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(snapshot, version)
	return result, nil
}

func (e *Engine) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range e.roster {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// snapshotLocked copies the roster for persisting outside the lock
func (e *Engine) snapshotLocked() ([]storage.Session, uint64) {
	e.version++
	out := make([]storage.Session, len(e.roster))
	for i, s := range e.roster {
		out[i] = s.Clone()
	}
	return out, e.version
}

// persist writes a roster snapshot. Snapshots older than one already
// written are skipped so a slow writer never overwrites newer state.
func (e *Engine) persist(roster []storage.Session, version uint64) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	if version <= e.savedUpTo {
		return
	}
	if err := e.store.SaveRoster(roster); err != nil {
		e.log.Error().Err(err).Msg("failed to save chat history")
		return
	}
	e.savedUpTo = version
}
