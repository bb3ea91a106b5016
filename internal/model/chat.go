package model

import (
	"math"
	"time"
)

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

func (p Provider) Valid() bool {
	return p == ProviderGemini || p == ProviderOpenAI
}

type ChatSession struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	Contexts  []string  `json:"contexts"`
	Provider  Provider  `json:"provider"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type MessageStatus string

const (
	MessageSent   MessageStatus = "sent"
	MessageFailed MessageStatus = "failed"
)

type ChatMessage struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
	Sources   []Citation    `json:"sources,omitempty"`
	Status    MessageStatus `json:"status"`
}

// Citation attributes part of an answer to a document chunk. Relevance is
// always on the 0..1 scale.
type Citation struct {
	ID           string  `json:"id"`
	DocumentName string  `json:"document_name"`
	Excerpt      string  `json:"excerpt"`
	Relevance    float64 `json:"relevance"`
}

// Percent converts the relevance to a whole percentage for display.
func (c Citation) Percent() int {
	return int(math.Round(ClampRelevance(c.Relevance) * 100))
}

// ClampRelevance pins a score into [0,1]. NaN becomes 0.
func ClampRelevance(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

type QueryRequest struct {
	Question    string
	SessionID   string
	DocumentIDs []string
	TopK        int
	UserID      string
}

type QueryAnswer struct {
	Text    string
	Sources []Citation
}
