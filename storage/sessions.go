package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// TitleMaxRunes is the longest title derived from a first user message
	TitleMaxRunes = 30
	// PreviewMaxRunes is the longest preview snippet kept on a session
	PreviewMaxRunes = 50
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrCorruptRoster   = errors.New("stored chat history is corrupt")
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Feedback is the user's reaction to an assistant message. Like and dislike
// are mutually exclusive, so a single field holds either (or neither).
type Feedback string

const (
	FeedbackNone     Feedback = ""
	FeedbackLiked    Feedback = "liked"
	FeedbackDisliked Feedback = "disliked"
)

// Message represents one turn in a conversation
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Image     string    `json:"image,omitempty" yaml:"image,omitempty"` // data URI preview
	Analysis  string    `json:"image_analysis,omitempty" yaml:"image_analysis,omitempty"`
	Feedback  Feedback  `json:"feedback,omitempty" yaml:"feedback,omitempty"`

	// Set on assistant messages only
	RemoteID string   `json:"remote_id,omitempty" yaml:"remote_id,omitempty"`
	Language string   `json:"language,omitempty" yaml:"language,omitempty"`
	Sources  []Source `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// Source is a knowledge-base document an answer drew on
type Source struct {
	Title    string  `json:"title" yaml:"title"`
	Category string  `json:"category,omitempty" yaml:"category,omitempty"`
	Score    float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// FormatSources lists source titles for display, e.g. "Fair Skin (colors), Almond"
func FormatSources(sources []Source) string {
	parts := make([]string, 0, len(sources))
	for _, src := range sources {
		if src.Title == "" {
			continue
		}
		if src.Category != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", src.Title, src.Category))
		} else {
			parts = append(parts, src.Title)
		}
	}
	return strings.Join(parts, ", ")
}

// Session represents one durable conversation
type Session struct {
	ID             string    `json:"id" yaml:"id"`
	ConversationID string    `json:"conversation_id" yaml:"conversation_id"`
	Title          string    `json:"title" yaml:"title"`
	Preview        string    `json:"preview" yaml:"preview"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"updated_at"`
	Pinned         bool      `json:"pinned" yaml:"pinned"`
	Messages       []Message `json:"messages" yaml:"messages"`
}

// Clone returns a deep copy safe to hand outside the owner's lock
func (s *Session) Clone() Session {
	c := *s
	c.Messages = append([]Message(nil), s.Messages...)
	return c
}

// UserMessageCount counts messages authored by the user
func (s *Session) UserMessageCount() int {
	n := 0
	for _, msg := range s.Messages {
		if msg.Role == RoleUser {
			n++
		}
	}
	return n
}

// FirstUserMessage returns the content of the earliest user message
func (s *Session) FirstUserMessage() string {
	for _, msg := range s.Messages {
		if msg.Role == RoleUser {
			return msg.Content
		}
	}
	return ""
}

// MessageIndex returns the position of the message with the given ID, or -1
func (s *Session) MessageIndex(id string) int {
	for i, msg := range s.Messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

// RemoveMessage drops the message with the given ID. Returns false when absent.
func (s *Session) RemoveMessage(id string) bool {
	idx := s.MessageIndex(id)
	if idx < 0 {
		return false
	}
	s.Messages = append(s.Messages[:idx], s.Messages[idx+1:]...)
	return true
}

// ActivityLabel formats UpdatedAt relative to now for the session list
func (s *Session) ActivityLabel(now time.Time) string {
	if s.UpdatedAt.IsZero() {
		return ""
	}

	elapsed := now.Sub(s.UpdatedAt)
	switch {
	case elapsed < time.Minute:
		return "Just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	case elapsed < 48*time.Hour:
		return "Yesterday"
	default:
		return s.UpdatedAt.Format("Jan 2")
	}
}

// GenerateSessionName generates a session title from the first user message
func GenerateSessionName(firstMessage string) string {
	name := foldNewlines(firstMessage)
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Sprintf("Session %s", time.Now().Format("Jan 2, 3:04 PM"))
	}

	if utf8.RuneCountInString(name) > TitleMaxRunes {
		name = string([]rune(name)[:TitleMaxRunes]) + "..."
	}

	return name
}

// GeneratePreview returns the trailing snippet shown under a session title
func GeneratePreview(content string) string {
	preview := strings.TrimSpace(foldNewlines(content))
	if utf8.RuneCountInString(preview) > PreviewMaxRunes {
		preview = string([]rune(preview)[:PreviewMaxRunes])
	}
	return preview
}

func foldNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
