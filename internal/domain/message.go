package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID             uuid.UUID         `json:"id"`
	ConversationID uuid.UUID         `json:"conversationId"`
	SenderID       uuid.UUID         `json:"senderId"`
	Content        string            `json:"content"`
	DeliveredTo    []DeliveryReceipt `json:"deliveredTo"`
	ReadBy         []ReadReceipt     `json:"readBy"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// DeliveryReceipt records that a recipient's client received the message.
// A user appears at most once per message; the sender never appears.
type DeliveryReceipt struct {
	UserID      uuid.UUID `json:"userId"`
	DeliveredAt time.Time `json:"deliveredAt"`
}

// ReadReceipt records that a recipient viewed the message. Same uniqueness
// rules as DeliveryReceipt.
type ReadReceipt struct {
	UserID uuid.UUID `json:"userId"`
	ReadAt time.Time `json:"readAt"`
}

// WasDeliveredTo returns true if userID already has a delivery receipt.
func (m *Message) WasDeliveredTo(userID uuid.UUID) bool {
	for _, r := range m.DeliveredTo {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// WasReadBy returns true if userID already has a read receipt.
func (m *Message) WasReadBy(userID uuid.UUID) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
