package coach

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Feedback string

const (
	FeedbackPositive Feedback = "positive"
	FeedbackNegative Feedback = "negative"
)

func (f Feedback) Valid() bool {
	return f == FeedbackPositive || f == FeedbackNegative
}

// SuggestedAction is a follow-up the client can render as a button next
// to an assistant reply.
type SuggestedAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

type Message struct {
	ID               int               `json:"id"`
	ConversationID   uuid.UUID         `json:"conversationId"`
	Role             Role              `json:"role"`
	Content          string            `json:"content"`
	Feedback         *Feedback         `json:"feedback,omitempty"`
	SuggestedActions []SuggestedAction `json:"suggestedActions"`
	CreatedAt        time.Time         `json:"createdAt"`
}

type Conversation struct {
	ID        uuid.UUID `json:"id"`
	AthleteID int       `json:"athleteId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Messages  []Message `json:"messages"`
}
