package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, UserID: "user-1", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return client
}

func TestNewClientValidatesURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "not a url"})
	assert.Error(t, err)

	c, err := NewClient(Config{BaseURL: "http://localhost:8000/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
}

func TestCreateSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/conversation", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user-1", body["user_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"conversation_id":"conv-123"}`))
	})

	id, err := client.CreateSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "conv-123", id)
}

func TestCreateSessionFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"boom"}`},
		{"missing id", http.StatusOK, `{}`},
		{"malformed body", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.CreateSession(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrServiceUnavailable), "error should match ErrServiceUnavailable: %v", err)
		})
	}
}

func TestUnreachableService(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.SendText(context.Background(), "conv", "hi")
	require.Error(t, err)

	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "send_text", se.Op)
	assert.Zero(t, se.StatusCode)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestSendText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/message", r.URL.Path)

		var body sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "conv-1", body.ConversationID)
		assert.Equal(t, "Which color suits fair skin?", body.Message)

		_, _ = w.Write([]byte(`{
			"conversation_id":"conv-1","message_id":"msg-9","answer":"Try **soft pink**.",
			"language":"en","context_sources":[{"title":"Fair Skin","category":"Skin Tone","score":0.89}],
			"tokens_used":250
		}`))
	})

	reply, err := client.SendText(context.Background(), "conv-1", "Which color suits fair skin?")
	require.NoError(t, err)
	assert.Equal(t, "Try **soft pink**.", reply.Answer)
	assert.Equal(t, "msg-9", reply.MessageID)
	assert.Equal(t, 250, reply.TokensUsed)
	require.Len(t, reply.Sources, 1)
	assert.Equal(t, "Fair Skin", reply.Sources[0].Title)
	assert.Empty(t, reply.ImageAnalysis)
}

func TestSendTextMissingAnswer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"conversation_id":"conv-1","error":"generation failed"}`))
	})

	_, err := client.SendText(context.Background(), "conv-1", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "generation failed")
}

func TestSendTextEmptyAnswerIsValid(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer":""}`))
	})

	reply, err := client.SendText(context.Background(), "conv-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "", reply.Answer)
}

func TestSendImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 0, 0, 0, 0}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/image", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "conv-7", r.FormValue("conversation_id"))
		assert.Equal(t, "What shape is this?", r.FormValue("message"))
		assert.Equal(t, "user-1", r.FormValue("user_id"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, png, data)

		_, _ = w.Write([]byte(`{"answer":"Almond shape.","image_analysis":"Almond nails, pink polish"}`))
	})

	reply, err := client.SendImage(context.Background(), "conv-7", png, "What shape is this?")
	require.NoError(t, err)
	assert.Equal(t, "Almond shape.", reply.Answer)
	assert.NotEmpty(t, reply.ImageAnalysis)
	assert.Equal(t, "Almond nails, pink polish", reply.ImageAnalysis)
}

func TestSendImageOmitsEmptyCaption(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, present := r.MultipartForm.Value["message"]
		assert.False(t, present)
		_, _ = w.Write([]byte(`{"answer":"ok"}`))
	})

	_, err := client.SendImage(context.Background(), "conv-7", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "")
	require.NoError(t, err)
}

func TestDeleteSession(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.DeleteSession(context.Background(), "conv-42"))
	assert.Equal(t, "/api/chat/conversation/conv-42", gotPath)
}

func TestDeleteSessionFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.DeleteSession(context.Background(), "conv-42")
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestHealth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"degraded","system_ready":false}`))
	})

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "degraded", health.Status)
	assert.False(t, health.SystemReady)
}

func TestRequestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`{"answer":"late"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.SendText(context.Background(), "conv", "hi")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}
