// ABOUTME: Wire types for the chat backend's JSON request and response bodies
// ABOUTME: Mirrors the shapes used by the browser chat widget

package chatapi

import "time"

// Role values carried in history messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one history entry.
type Message struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
	UserName  string  `json:"user_name,omitempty"`
}

// Time converts the seconds-since-epoch timestamp into a time.Time.
// A zero timestamp yields the zero time.
func (m Message) Time() time.Time {
	if m.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(m.Timestamp * 1000))
}

// HistoryResponse is the canonical body of GET /get_chat_history.
type HistoryResponse struct {
	ThreadID string    `json:"thread_id,omitempty"`
	Messages []Message `json:"messages"`
	Error    string    `json:"error,omitempty"`
}

// SendMessageRequest is the body of POST /send_message.
// Empty ThreadID and ChatbotType are sent as JSON null.
type SendMessageRequest struct {
	Message     string  `json:"message"`
	ThreadID    *string `json:"thread_id"`
	ChatbotType *string `json:"chatbot_type"`
}

// NewSendMessageRequest builds a request, mapping empty strings to null.
func NewSendMessageRequest(message, threadID, chatbotType string) SendMessageRequest {
	return SendMessageRequest{
		Message:     message,
		ThreadID:    nullable(threadID),
		ChatbotType: nullable(chatbotType),
	}
}

// SendMessageResponse is the body returned by POST /send_message.
type SendMessageResponse struct {
	Response string `json:"response"`
	UserName string `json:"user_name,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewUserRequest is the body of POST /new_user.
type NewUserRequest struct {
	ChatbotType *string `json:"chatbot_type"`
}

// NewUserResponse is the body returned by POST /new_user.
type NewUserResponse struct {
	Success  bool   `json:"success"`
	ThreadID string `json:"thread_id,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by POST /login.
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Page holds the identifiers embedded in the chat page markup.
type Page struct {
	ThreadID    string
	ChatbotType string
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
