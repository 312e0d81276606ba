package testutil

import (
	"context"
	"strconv"
	"sync"

	"nailchat/assistant"
)

// MockClient implements the engine's remote port for tests
type MockClient struct {
	// Configurable responses
	CreateSessionFunc func(ctx context.Context) (string, error)
	SendTextFunc      func(ctx context.Context, conversationID, text string) (*assistant.Reply, error)
	SendImageFunc     func(ctx context.Context, conversationID string, image []byte, caption string) (*assistant.Reply, error)
	DeleteSessionFunc func(ctx context.Context, conversationID string) error

	mu    sync.Mutex
	calls map[string]int
	seq   int
}

// NewMockClient creates a mock with default implementations: sessions are
// numbered conv-1, conv-2, ... and every message is answered.
func NewMockClient() *MockClient {
	mock := &MockClient{calls: map[string]int{}}
	mock.CreateSessionFunc = mock.defaultCreateSession
	mock.SendTextFunc = func(ctx context.Context, conversationID, text string) (*assistant.Reply, error) {
		return &assistant.Reply{Answer: "Mock answer to: " + text}, nil
	}
	mock.SendImageFunc = func(ctx context.Context, conversationID string, image []byte, caption string) (*assistant.Reply, error) {
		return &assistant.Reply{Answer: "Mock image answer", ImageAnalysis: "Mock analysis"}, nil
	}
	mock.DeleteSessionFunc = func(ctx context.Context, conversationID string) error {
		return nil
	}
	return mock
}

func (m *MockClient) defaultCreateSession(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return "conv-" + strconv.Itoa(m.seq), nil
}

func (m *MockClient) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
}

// Calls returns how many times an operation was invoked
func (m *MockClient) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockClient) CreateSession(ctx context.Context) (string, error) {
	m.record("create_session")
	return m.CreateSessionFunc(ctx)
}

func (m *MockClient) SendText(ctx context.Context, conversationID, text string) (*assistant.Reply, error) {
	m.record("send_text")
	return m.SendTextFunc(ctx, conversationID, text)
}

func (m *MockClient) SendImage(ctx context.Context, conversationID string, image []byte, caption string) (*assistant.Reply, error) {
	m.record("send_image")
	return m.SendImageFunc(ctx, conversationID, image, caption)
}

func (m *MockClient) DeleteSession(ctx context.Context, conversationID string) error {
	m.record("delete_session")
	return m.DeleteSessionFunc(ctx, conversationID)
}
