package domain

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID           uuid.UUID   `json:"id"`
	Participants []uuid.UUID `json:"participants"`
	LastMessage  *string     `json:"lastMessage,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
