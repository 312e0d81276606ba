package storage

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateSessionName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "long message is truncated with ellipsis",
			input:    "Can you suggest a design for a summer wedding that matches gold jewelry",
			expected: "Can you suggest a design for a...",
		},
		{
			name:     "short message is kept verbatim",
			input:    "Nail ideas",
			expected: "Nail ideas",
		},
		{
			name:     "exactly thirty characters has no ellipsis",
			input:    strings.Repeat("a", 30),
			expected: strings.Repeat("a", 30),
		},
		{
			name:     "newlines are folded",
			input:    "first line\nsecond",
			expected: "first line second",
		},
		{
			name:     "multibyte runes are counted as characters",
			input:    strings.Repeat("é", 31),
			expected: strings.Repeat("é", 30) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateSessionName(tt.input)
			if got != tt.expected {
				t.Errorf("GenerateSessionName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGenerateSessionNameEmpty(t *testing.T) {
	got := GenerateSessionName("   ")
	if !strings.HasPrefix(got, "Session ") {
		t.Errorf("expected fallback name, got %q", got)
	}
}

func TestGeneratePreview(t *testing.T) {
	long := strings.Repeat("x", 80)
	if got := GeneratePreview(long); len(got) != PreviewMaxRunes {
		t.Errorf("preview length = %d, want %d", len(got), PreviewMaxRunes)
	}
	if got := GeneratePreview("hello\nworld"); got != "hello world" {
		t.Errorf("preview = %q, want %q", got, "hello world")
	}
}

func TestActivityLabel(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		updated  time.Time
		expected string
	}{
		{now.Add(-10 * time.Second), "Just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-30 * time.Hour), "Yesterday"},
		{now.Add(-72 * time.Hour), "Jun 7"},
		{time.Time{}, ""},
	}

	for _, tt := range tests {
		s := Session{UpdatedAt: tt.updated}
		if got := s.ActivityLabel(now); got != tt.expected {
			t.Errorf("ActivityLabel(%v) = %q, want %q", tt.updated, got, tt.expected)
		}
	}
}

func TestSessionRemoveMessage(t *testing.T) {
	s := Session{Messages: []Message{
		{ID: "a", Role: RoleUser, Content: "one"},
		{ID: "b", Role: RoleAssistant, Content: "two"},
		{ID: "c", Role: RoleUser, Content: "three"},
	}}

	if !s.RemoveMessage("b") {
		t.Fatal("expected message b to be removed")
	}
	if s.RemoveMessage("missing") {
		t.Error("removing an unknown id should report false")
	}
	if len(s.Messages) != 2 || s.Messages[0].ID != "a" || s.Messages[1].ID != "c" {
		t.Errorf("unexpected messages after removal: %+v", s.Messages)
	}
	if s.UserMessageCount() != 2 {
		t.Errorf("UserMessageCount = %d, want 2", s.UserMessageCount())
	}
	if s.FirstUserMessage() != "one" {
		t.Errorf("FirstUserMessage = %q, want %q", s.FirstUserMessage(), "one")
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := Session{ID: "s1", Messages: []Message{{ID: "m1", Content: "hi"}}}
	c := s.Clone()
	c.Messages[0].Content = "changed"

	if s.Messages[0].Content != "hi" {
		t.Error("Clone shares message storage with the original")
	}
}

func TestNewIDSortsByCreation(t *testing.T) {
	now := time.Now()
	first := NewID(now)
	second := NewID(now)
	third := NewID(now.Add(time.Millisecond))

	if !(first < second && second < third) {
		t.Errorf("ids not ordered: %s, %s, %s", first, second, third)
	}

	ts, ok := IDTime(first)
	if !ok {
		t.Fatal("IDTime failed to parse a generated id")
	}
	if ts.UnixMilli() != now.UnixMilli() {
		t.Errorf("IDTime = %v, want %v", ts, now)
	}
}
