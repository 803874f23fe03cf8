package ws

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/ripple/internal/domain"
)

// HubNotifier implements service.Notifier on top of the Hub's groups.
type HubNotifier struct {
	hub *Hub
	log *zap.Logger
}

func NewHubNotifier(hub *Hub, log *zap.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, log: log}
}

func (n *HubNotifier) NewMessage(msg *domain.Message) {
	n.toGroup(conversationGroup(msg.ConversationID), EventNewMessage, msg)
}

func (n *HubNotifier) MessageDelivered(conversationID, messageID, userID uuid.UUID) {
	n.toGroup(conversationGroup(conversationID), EventMessageDelivered, MessageDeliveredPayload{
		MessageID: messageID,
		UserID:    userID,
	})
}

// MessageRead targets the sender's personal group only, so just the sender's
// devices update their checkmarks.
func (n *HubNotifier) MessageRead(senderID, messageID, readerID uuid.UUID) {
	n.toGroup(personalGroup(senderID), EventMessageRead, MessageReadPayload{
		MessageID: messageID,
		UserID:    readerID,
	})
}

func (n *HubNotifier) MessageDeleted(conversationID, messageID uuid.UUID) {
	n.toGroup(conversationGroup(conversationID), EventMessageDeleted, MessageDeletedPayload{
		MessageID:      messageID,
		ConversationID: conversationID,
	})
}

func (n *HubNotifier) PresenceChanged(update *domain.PresenceUpdate) {
	n.toAll(EventPresence, update)
}

func (n *HubNotifier) SettingsUpdated(update *domain.SettingsUpdate) {
	n.toAll(EventUserSettingsUpdated, update)
}

func (n *HubNotifier) toGroup(group, eventType string, payload any) {
	data, ok := n.encode(eventType, payload)
	if !ok {
		return
	}
	n.hub.ToGroup(group, data, nil)
}

func (n *HubNotifier) toAll(eventType string, payload any) {
	data, ok := n.encode(eventType, payload)
	if !ok {
		return
	}
	n.hub.ToAll(data)
}

func (n *HubNotifier) encode(eventType string, payload any) ([]byte, bool) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		n.log.Error("ws notifier: marshal error", zap.String("type", eventType), zap.Error(err))
		return nil, false
	}
	data, err := json.Marshal(evt)
	if err != nil {
		n.log.Error("ws notifier: marshal error", zap.String("type", eventType), zap.Error(err))
		return nil, false
	}
	return data, true
}
