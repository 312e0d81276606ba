// Package assistant is the client for the remote assistant service.
//
// Each operation is a single request/response exchange. Nothing is retried
// here.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout = 60 * time.Second
	userAgent      = "nailchat/1.0"
)

// Config holds client settings
type Config struct {
	BaseURL string
	UserID  string        // optional, forwarded with every request
	Timeout time.Duration // per request; zero means the default
}

// Client talks to the assistant service over HTTP
type Client struct {
	baseURL    string
	userID     string
	httpClient *resty.Client
}

// NewClient creates a client for the service at cfg.BaseURL
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("assistant service URL is not configured")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid assistant service URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{
		baseURL:    baseURL,
		userID:     cfg.UserID,
		httpClient: httpClient,
	}, nil
}

// BaseURL returns the service address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateSession asks the service for a new conversation id
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	const op = "create_session"

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(createSessionRequest{UserID: c.userID}).
		Post("/api/chat/conversation")
	if err := checkResponse(op, resp, err); err != nil {
		return "", err
	}

	var body createSessionResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", &ServiceError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if body.ConversationID == "" {
		return "", &ServiceError{Op: op, StatusCode: resp.StatusCode(), Err: errors.New("response has no conversation_id")}
	}

	return body.ConversationID, nil
}

// SendText sends a text message to an existing conversation
func (c *Client) SendText(ctx context.Context, conversationID, text string) (*Reply, error) {
	const op = "send_text"

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sendMessageRequest{
			ConversationID: conversationID,
			Message:        text,
			UserID:         c.userID,
		}).
		Post("/api/chat/message")
	if err := checkResponse(op, resp, err); err != nil {
		return nil, err
	}

	return decodeReply(op, resp)
}

// SendImage uploads an image, with an optional caption, to an existing
// conversation. The image must already have passed attachment validation.
func (c *Client) SendImage(ctx context.Context, conversationID string, image []byte, caption string) (*Reply, error) {
	const op = "send_image"

	mime := mimetype.Detect(image)
	form := map[string]string{"conversation_id": conversationID}
	if caption != "" {
		form["message"] = caption
	}
	if c.userID != "" {
		form["user_id"] = c.userID
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(form).
		SetMultipartField("image", "image"+mime.Extension(), mime.String(), bytes.NewReader(image)).
		Post("/api/chat/image")
	if err := checkResponse(op, resp, err); err != nil {
		return nil, err
	}

	return decodeReply(op, resp)
}

// DeleteSession asks the service to forget a conversation
func (c *Client) DeleteSession(ctx context.Context, conversationID string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("conversationID", conversationID).
		Delete("/api/chat/conversation/{conversationID}")
	return checkResponse("delete_session", resp, err)
}

// Health reports whether the service is reachable and ready
func (c *Client) Health(ctx context.Context) (*Health, error) {
	const op = "health"

	var health Health
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&health).
		Get("/health")
	if err := checkResponse(op, resp, err); err != nil {
		return nil, err
	}

	return &health, nil
}

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}
	if resp.IsError() {
		return &ServiceError{
			Op:         op,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(resp.String())),
		}
	}
	return nil
}

func decodeReply(op string, resp *resty.Response) (*Reply, error) {
	var body replyBody
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, &ServiceError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if body.Answer == nil {
		reason := "response has no answer"
		if body.Error != nil && *body.Error != "" {
			reason = *body.Error
		}
		return nil, &ServiceError{Op: op, StatusCode: resp.StatusCode(), Err: errors.New(reason)}
	}

	reply := &Reply{
		Answer:     *body.Answer,
		MessageID:  body.MessageID,
		Language:   body.Language,
		Sources:    body.ContextSources,
		TokensUsed: body.TokensUsed,
	}
	if body.ImageAnalysis != nil {
		reply.ImageAnalysis = *body.ImageAnalysis
	}

	return reply, nil
}
