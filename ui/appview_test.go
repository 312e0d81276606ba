package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"nailchat/assistant"
	"nailchat/assistant/testutil"
	"nailchat/engine"
	"nailchat/storage"
)

func newTestView(t *testing.T, mock *testutil.MockClient, store storage.RosterStore) AppView {
	t.Helper()
	eng := engine.New(mock, store)
	if err := eng.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	a := NewAppView(eng, Options{ServerURL: "http://assistant.test"})
	model, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return model.(AppView)
}

// connectView runs the connect command the way the program would
func connectView(t *testing.T, a AppView) AppView {
	t.Helper()
	model, _ := a.Update(connect(a.eng)())
	return model.(AppView)
}

func update(t *testing.T, a AppView, msg tea.Msg) (AppView, tea.Cmd) {
	t.Helper()
	model, cmd := a.Update(msg)
	return model.(AppView), cmd
}

func typeText(t *testing.T, a AppView, text string) AppView {
	t.Helper()
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return a
}

// collect runs a command and any batched commands it returns
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findSendDone(t *testing.T, msgs []tea.Msg) sendDoneMsg {
	t.Helper()
	for _, m := range msgs {
		if done, ok := m.(sendDoneMsg); ok {
			return done
		}
	}
	t.Fatalf("no sendDoneMsg in %v", msgs)
	return sendDoneMsg{}
}

func TestSendFlow(t *testing.T) {
	a := newTestView(t, testutil.NewMockClient(), storage.NewMemoryStore())
	a = connectView(t, a)
	if !a.snapshot.Ready {
		t.Fatal("view should be ready after connect")
	}

	a = typeText(t, a, "almond or coffin?")
	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyEnter})

	// Applied before the reply arrives
	if len(a.snapshot.Messages) != 1 || !a.snapshot.Sending {
		t.Fatalf("after enter: %d messages, sending=%v", len(a.snapshot.Messages), a.snapshot.Sending)
	}
	if a.textarea.Value() != "" {
		t.Errorf("composer not cleared: %q", a.textarea.Value())
	}

	a, _ = update(t, a, findSendDone(t, collect(cmd)))

	if len(a.snapshot.Messages) != 2 || a.snapshot.Sending {
		t.Fatalf("after reply: %d messages, sending=%v", len(a.snapshot.Messages), a.snapshot.Sending)
	}
	if a.snapshot.Title != "almond or coffin?" {
		t.Errorf("title = %q", a.snapshot.Title)
	}
	if view := a.View(); !strings.Contains(view, "Mock answer to: almond or coffin?") {
		t.Errorf("view missing answer:\n%s", view)
	}
}

func TestReplySourcesShown(t *testing.T) {
	mock := testutil.NewMockClient()
	mock.SendTextFunc = func(ctx context.Context, conversationID, text string) (*assistant.Reply, error) {
		return &assistant.Reply{
			Answer:  "Go with a soft nude.",
			Sources: []assistant.Source{{Title: "Fair Skin", Category: "colors"}},
		}, nil
	}

	a := connectView(t, newTestView(t, mock, storage.NewMemoryStore()))
	a = typeText(t, a, "color for fair skin?")
	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	a, _ = update(t, a, findSendDone(t, collect(cmd)))

	if view := a.View(); !strings.Contains(view, "Sources: Fair Skin (colors)") {
		t.Errorf("view missing sources line:\n%s", view)
	}
}

func TestSendFailureShowsError(t *testing.T) {
	mock := testutil.NewMockClient()
	mock.SendTextFunc = func(ctx context.Context, conversationID, text string) (*assistant.Reply, error) {
		return nil, &assistant.ServiceError{Op: "send_text", StatusCode: 500, Err: errors.New("boom")}
	}

	a := connectView(t, newTestView(t, mock, storage.NewMemoryStore()))
	a = typeText(t, a, "hello")
	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	a, _ = update(t, a, findSendDone(t, collect(cmd)))

	if len(a.snapshot.Messages) != 0 {
		t.Errorf("rolled back session has %d messages", len(a.snapshot.Messages))
	}
	if !strings.Contains(a.sendError, "Message not sent") {
		t.Errorf("sendError = %q", a.sendError)
	}

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.sendError != "" {
		t.Errorf("esc should dismiss the error, got %q", a.sendError)
	}
}

func TestComposerDisabledUntilReady(t *testing.T) {
	mock := testutil.NewMockClient()
	mock.CreateSessionFunc = func(ctx context.Context) (string, error) {
		return "", assistant.ErrServiceUnavailable
	}

	a := connectView(t, newTestView(t, mock, storage.NewMemoryStore()))
	if a.snapshot.Ready || a.snapshot.InitError == nil {
		t.Fatalf("ready=%v initErr=%v, want not ready with error", a.snapshot.Ready, a.snapshot.InitError)
	}
	if a.textarea.Placeholder != placeholderFailed {
		t.Errorf("placeholder = %q", a.textarea.Placeholder)
	}

	a = typeText(t, a, "hello")
	if a.textarea.Value() != "" {
		t.Errorf("composer accepted input while not ready: %q", a.textarea.Value())
	}

	_, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		for _, m := range collect(cmd) {
			if _, ok := m.(sendDoneMsg); ok {
				t.Error("send dispatched while not ready")
			}
		}
	}
}

func seededView(t *testing.T) AppView {
	t.Helper()
	now := time.Now()
	store := storage.NewMemoryStore()
	roster := []storage.Session{
		{ID: "a", ConversationID: "conv-a", Title: "Almond shapes", UpdatedAt: now, Messages: []storage.Message{{ID: "m1", Role: storage.RoleUser, Content: "almond"}}},
		{ID: "b", ConversationID: "conv-b", Title: "French tips", UpdatedAt: now, Pinned: true, Messages: []storage.Message{{ID: "m2", Role: storage.RoleUser, Content: "french"}}},
		{ID: "c", ConversationID: "conv-c", Title: "Summer colors", UpdatedAt: now, Messages: []storage.Message{{ID: "m3", Role: storage.RoleUser, Content: "summer"}}},
	}
	if err := store.SaveRoster(roster); err != nil {
		t.Fatal(err)
	}
	return connectView(t, newTestView(t, testutil.NewMockClient(), store))
}

func sessionIDs(sessions []storage.Session) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSessionManager(t *testing.T) {
	a := seededView(t)

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s"), Alt: true})
	if !a.sessionManager.visible {
		t.Fatal("alt+s should open the session manager")
	}
	if got := strings.Join(sessionIDs(a.sessionManager.sessions), ","); got != "b,a,c" {
		t.Fatalf("order = %s, want b,a,c", got)
	}

	// Pin the last entry: pinned sessions keep roster order
	a, _ = update(t, a, keyPress("j"))
	a, _ = update(t, a, keyPress("j"))
	a, _ = update(t, a, keyPress("p"))
	if got := strings.Join(sessionIDs(a.sessionManager.sessions), ","); got != "b,c,a" {
		t.Fatalf("order after pin = %s, want b,c,a", got)
	}
	if sel, _ := a.selectedSession(); sel.ID != "c" {
		t.Errorf("selection moved to %s, want c", sel.ID)
	}

	// Delete asks first
	a, _ = update(t, a, keyPress("d"))
	if a.sessionManager.confirmDelete == nil {
		t.Fatal("d should ask for confirmation")
	}
	a, _ = update(t, a, keyPress("n"))
	if len(a.sessionManager.sessions) != 3 {
		t.Fatal("declining must not delete")
	}

	a, _ = update(t, a, keyPress("d"))
	a, cmd := update(t, a, keyPress("y"))
	if got := strings.Join(sessionIDs(a.sessionManager.sessions), ","); got != "b,a" {
		t.Fatalf("order after delete = %s, want b,a", got)
	}
	if cmd == nil {
		t.Error("delete should forget the remote conversation")
	}

	// Open a session
	a, _ = update(t, a, keyPress("k"))
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if a.sessionManager.visible {
		t.Error("enter should close the manager")
	}
	if a.snapshot.SessionID != "b" {
		t.Errorf("active = %s, want b", a.snapshot.SessionID)
	}
}

func TestDeletingActiveSessionReconnectsWithoutRemoteDelete(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	mock := testutil.NewMockClient()
	mock.DeleteSessionFunc = func(ctx context.Context, conversationID string) error {
		<-release
		return nil
	}
	store := storage.NewMemoryStore()
	roster := []storage.Session{
		{ID: "a", ConversationID: "conv-a", Title: "Almond shapes", UpdatedAt: time.Now(), Messages: []storage.Message{{ID: "m1", Role: storage.RoleUser, Content: "almond"}}},
	}
	if err := store.SaveRoster(roster); err != nil {
		t.Fatal(err)
	}
	a := connectView(t, newTestView(t, mock, store))
	if err := a.eng.Switch("a"); err != nil {
		t.Fatal(err)
	}
	a.refresh()

	a.openSessionManager()
	a, _ = update(t, a, keyPress("d"))
	a, cmd := update(t, a, keyPress("y"))
	if a.snapshot.Ready {
		t.Fatal("deleting the active session should reset it")
	}

	if cmd == nil {
		t.Fatal("expected commands after delete")
	}
	// Run every command concurrently, the way the program does
	msgs := make(chan tea.Msg, 16)
	var run func(c tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, inner := range batch {
				go run(inner)
			}
			return
		}
		msgs <- msg
	}
	go run(cmd)

	timeout := time.After(2 * time.Second)
	for connected := false; !connected; {
		select {
		case m := <-msgs:
			if _, ok := m.(connectedMsg); ok {
				a, _ = update(t, a, m)
				connected = true
			}
		case <-timeout:
			t.Fatal("new conversation waited on the remote delete")
		}
	}

	if !a.snapshot.Ready {
		t.Error("composer should be ready once the new conversation exists")
	}
}

func TestSessionManagerFilterAndRename(t *testing.T) {
	a := seededView(t)
	a.openSessionManager()

	a, _ = update(t, a, keyPress("/"))
	for _, r := range "sum" {
		a, _ = update(t, a, keyPress(string(r)))
	}
	if got := strings.Join(sessionIDs(a.sessionManager.sessions), ","); got != "c" {
		t.Fatalf("filtered = %s, want c", got)
	}
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEnter})

	a, _ = update(t, a, keyPress("r"))
	if !a.sessionManager.renameMode {
		t.Fatal("r should start renaming")
	}
	a.sessionManager.renameInput.SetValue("Summer brights")
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEnter})

	s, err := a.eng.Session("c")
	if err != nil {
		t.Fatal(err)
	}
	if s.Title != "Summer brights" {
		t.Errorf("title = %q, want Summer brights", s.Title)
	}

	// Esc clears the filter before closing
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if !a.sessionManager.visible || len(a.sessionManager.sessions) != 3 {
		t.Errorf("esc should clear the filter first (visible=%v, %d sessions)", a.sessionManager.visible, len(a.sessionManager.sessions))
	}
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.sessionManager.visible {
		t.Error("second esc should close the manager")
	}
}

func TestFeedbackKeys(t *testing.T) {
	a := connectView(t, newTestView(t, testutil.NewMockClient(), storage.NewMemoryStore()))
	a = typeText(t, a, "hi")
	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	a, _ = update(t, a, findSendDone(t, collect(cmd)))

	like := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l"), Alt: true}
	dislike := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d"), Alt: true}

	tests := []struct {
		name string
		key  tea.KeyMsg
		want storage.Feedback
	}{
		{"like", like, storage.FeedbackLiked},
		{"dislike replaces like", dislike, storage.FeedbackDisliked},
		{"dislike again clears", dislike, storage.FeedbackNone},
	}

	for _, tt := range tests {
		a, _ = update(t, a, tt.key)
		last, ok := a.lastAssistantMessage()
		if !ok {
			t.Fatalf("%s: no assistant message", tt.name)
		}
		if last.Feedback != tt.want {
			t.Errorf("%s: feedback = %q, want %q", tt.name, last.Feedback, tt.want)
		}
	}
}

func TestGlobalSearch(t *testing.T) {
	a := seededView(t)

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f"), Alt: true})
	if !a.search.visible {
		t.Fatal("alt+f should open search")
	}

	for _, r := range "summer" {
		a, _ = update(t, a, keyPress(string(r)))
	}
	if len(a.search.results) == 0 || a.search.results[0].SessionID != "c" {
		t.Fatalf("results = %+v, want session c first", a.search.results)
	}

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if a.search.visible || a.snapshot.SessionID != "c" {
		t.Errorf("visible=%v active=%s, want closed on c", a.search.visible, a.snapshot.SessionID)
	}
}

func TestRenderMarkup(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:    "inline markers are consumed",
			input:   "Use **gel** with *care* and `base`",
			want:    []string{"gel", "care", "base"},
			notWant: []string{"**", "`"},
		},
		{
			name:  "lists keep their markers",
			input: "1. File\n- Buff",
			want:  []string{"1.", "File", "•", "Buff"},
		},
		{
			name:    "heading hashes are dropped",
			input:   "## Aftercare",
			want:    []string{"Aftercare"},
			notWant: []string{"#"},
		},
		{
			name:  "links show their target",
			input: "[guide](https://example.com)",
			want:  []string{"guide", "https://example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderMarkup(tt.input, 80)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("RenderMarkup(%q) = %q, missing %q", tt.input, got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("RenderMarkup(%q) = %q, should not contain %q", tt.input, got, w)
				}
			}
		})
	}
}

func TestVisibleWindow(t *testing.T) {
	tests := []struct {
		total, selected, rows int
		wantStart, wantEnd    int
	}{
		{3, 0, 10, 0, 3},
		{20, 0, 5, 0, 5},
		{20, 10, 5, 8, 13},
		{20, 19, 5, 15, 20},
	}

	for _, tt := range tests {
		start, end := visibleWindow(tt.total, tt.selected, tt.rows)
		if start != tt.wantStart || end != tt.wantEnd {
			t.Errorf("visibleWindow(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.total, tt.selected, tt.rows, start, end, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three four\n\nfive", 9)
	want := "one two\nthree\nfour\n\nfive"
	if got != want {
		t.Errorf("wordWrap() = %q, want %q", got, want)
	}
}
