package assistant

// DefaultImageCaption is sent with an image when the user typed nothing
const DefaultImageCaption = "Analyze this nail image and provide advice."

// Reply is a validated answer from the assistant service
type Reply struct {
	Answer        string
	ImageAnalysis string // empty unless an image was analyzed
	MessageID     string
	Language      string
	Sources       []Source
	TokensUsed    int
}

// Source is a knowledge-base document the answer drew on
type Source struct {
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// Health is the service's self-reported status
type Health struct {
	Status      string `json:"status"`
	SystemReady bool   `json:"system_ready"`
}

type createSessionRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type createSessionResponse struct {
	ConversationID string `json:"conversation_id"`
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	UserID         string `json:"user_id,omitempty"`
}

// replyBody is the wire shape of /message and /image responses. Answer is
// a pointer so a missing field can be told apart from an empty one.
type replyBody struct {
	ConversationID string   `json:"conversation_id"`
	MessageID      string   `json:"message_id"`
	Answer         *string  `json:"answer"`
	ImageAnalysis  *string  `json:"image_analysis"`
	Language       string   `json:"language"`
	ContextSources []Source `json:"context_sources"`
	TokensUsed     int      `json:"tokens_used"`
	Error          *string  `json:"error"`
}
