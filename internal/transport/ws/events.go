package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types - Client → Server
const (
	EventSyncMessages     = "syncMessages"
	EventJoinConversation = "joinConversation"
	EventSendMessage      = "sendMessage"
	EventTyping           = "typing" // also relayed Server → Client
	EventUpdateSettings   = "updateSettings"
	EventMarkAsRead       = "markAsRead"
)

// Event types - Server → Client
const (
	EventNewMessage          = "newMessage"
	EventMessageDelivered    = "messageDelivered"
	EventMessageRead         = "messageRead"
	EventMessageDeleted      = "messageDeleted"
	EventPresence            = "presence"
	EventUserSettingsUpdated = "userSettingsUpdated"
	EventMissedMessages      = "missedMessages"
	EventMessageError        = "messageError"
	EventSettingsError       = "settingsError"
)

// Event is the envelope for all WebSocket frames in both directions.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// --- Client → Server payloads ---

type SyncMessagesPayload struct {
	LastSyncTime time.Time `json:"lastSyncTime"`
}

type JoinConversationPayload struct {
	ConversationID uuid.UUID `json:"conversationId"`
}

type SendMessagePayload struct {
	ConversationID uuid.UUID `json:"conversationId"`
	Content        string    `json:"content"`
}

type MarkAsReadPayload struct {
	MessageID uuid.UUID `json:"messageId"`
}

// --- Server → Client payloads ---

// TypingPayload carries the sender on the relayed copy; inbound frames only
// need the conversation.
type TypingPayload struct {
	ConversationID uuid.UUID `json:"conversationId"`
	UserID         uuid.UUID `json:"userId,omitempty"`
}

type MessageDeliveredPayload struct {
	MessageID uuid.UUID `json:"messageId"`
	UserID    uuid.UUID `json:"userId"`
}

type MessageReadPayload struct {
	MessageID uuid.UUID `json:"messageId"`
	UserID    uuid.UUID `json:"userId"`
}

type MessageDeletedPayload struct {
	MessageID      uuid.UUID `json:"messageId"`
	ConversationID uuid.UUID `json:"conversationId"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// NewEvent wraps a payload into the wire envelope.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{Type: eventType, Payload: data}, nil
}
