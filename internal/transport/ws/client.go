package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vedran77/ripple/internal/domain"
	"github.com/vedran77/ripple/internal/service"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// Client represents a single live transport session. It has exactly one user
// identity and lives until the transport closes; no state survives it.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	userID   uuid.UUID
	messages *service.MessageService
	presence *service.PresenceService
	log      *zap.Logger

	mu     sync.Mutex
	groups map[string]struct{}

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, messages *service.MessageService, presence *service.PresenceService, log *zap.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		userID:   userID,
		messages: messages,
		presence: presence,
		log:      log,
		groups:   make(map[string]struct{}),
		send:     make(chan []byte, sendBufSize),
		done:     make(chan struct{}),
	}
}

func (c *Client) trackGroup(group string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[group] = struct{}{}
}

func (c *Client) trackedGroups() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	groups := make([]string, 0, len(c.groups))
	for g := range c.groups {
		groups = append(groups, g)
	}
	return groups
}

// trySend queues data for delivery; a slow consumer with a full buffer loses
// the frame rather than blocking the broadcaster.
func (c *Client) trySend(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.log.Warn("ws: send buffer full, dropping frame", zap.String("user_id", c.userID.String()))
	}
}

// ReadPump reads inbound events until the transport closes, then tears the
// connection down. The offline presence edge fires only when this was the
// user's last device, computed after the registry mutation.
func (c *Client) ReadPump() {
	defer func() {
		last := c.hub.Disconnect(c)
		close(c.done)
		c.conn.Close(websocket.StatusNormalClosure, "")
		if last {
			if err := c.presence.HandleDisconnect(context.Background(), c.userID); err != nil {
				c.log.Error("ws: offline presence", zap.String("user_id", c.userID.String()), zap.Error(err))
			}
		}
	}()

	for {
		var event Event
		if err := wsjson.Read(context.Background(), c.conn, &event); err != nil {
			if websocket.CloseStatus(err) == -1 {
				c.log.Debug("ws: read error", zap.String("user_id", c.userID.String()), zap.Error(err))
			}
			return
		}
		c.handleEvent(&event)
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// handleEvent routes one inbound event. Failures stay scoped to this
// connection: they surface as messageError/settingsError frames, never as a
// dropped connection or a crashed process.
func (c *Client) handleEvent(event *Event) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("ws: handler panic", zap.String("event", event.Type), zap.Any("panic", r))
			c.sendMessageError("internal error")
		}
	}()

	ctx := context.Background()

	switch event.Type {
	case EventSyncMessages:
		var p SyncMessagesPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendMessageError("invalid syncMessages payload")
			return
		}
		missed, err := c.messages.Sync(ctx, c.userID, p.LastSyncTime)
		if err != nil {
			c.log.Error("ws: sync", zap.String("user_id", c.userID.String()), zap.Error(err))
			c.sendMessageError("sync failed")
			return
		}
		c.sendEvent(EventMissedMessages, missed)

	case EventJoinConversation:
		var p JoinConversationPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendMessageError("invalid joinConversation payload")
			return
		}
		c.hub.JoinConversation(c, p.ConversationID)

	case EventSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendMessageError("invalid sendMessage payload")
			return
		}
		if _, err := c.messages.Send(ctx, c.userID, p.ConversationID, p.Content); err != nil {
			c.sendMessageError(clientErrText(err))
		}

	case EventTyping:
		var p TypingPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return
		}
		// Ephemeral relay: never persisted, never replayed by sync.
		evt, err := NewEvent(EventTyping, TypingPayload{
			ConversationID: p.ConversationID,
			UserID:         c.userID,
		})
		if err != nil {
			return
		}
		data, err := json.Marshal(evt)
		if err != nil {
			return
		}
		c.hub.ToGroup(conversationGroup(p.ConversationID), data, c)

	case EventUpdateSettings:
		var patch domain.SettingsPatch
		if err := json.Unmarshal(event.Payload, &patch); err != nil {
			c.sendSettingsError("invalid updateSettings payload")
			return
		}
		// Read receipt toggling is REST-only; the socket surface accepts the
		// presence-related switches.
		patch.ReadReceiptsEnabled = nil
		if _, err := c.presence.UpdateSettings(ctx, c.userID, patch); err != nil {
			c.log.Error("ws: update settings", zap.String("user_id", c.userID.String()), zap.Error(err))
			c.sendSettingsError(clientErrText(err))
		}

	case EventMarkAsRead:
		var p MarkAsReadPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendMessageError("invalid markAsRead payload")
			return
		}
		if err := c.messages.MarkAsRead(ctx, c.userID, p.MessageID); err != nil {
			c.log.Error("ws: mark as read", zap.String("user_id", c.userID.String()), zap.Error(err))
			c.sendMessageError("marking read failed")
		}

	default:
		c.log.Debug("ws: unknown event type", zap.String("type", event.Type))
		c.sendMessageError("unknown event type: " + event.Type)
	}
}

func (c *Client) sendEvent(eventType string, payload any) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		c.log.Error("ws: marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *Client) sendMessageError(msg string) {
	c.sendEvent(EventMessageError, ErrorPayload{Error: msg})
}

func (c *Client) sendSettingsError(msg string) {
	c.sendEvent(EventSettingsError, ErrorPayload{Error: msg})
}

// clientErrText maps service errors to a message safe to echo to the client.
func clientErrText(err error) string {
	switch {
	case errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrNotMessageSender),
		errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrContentTooLong),
		errors.Is(err, service.ErrUserNotFound):
		return err.Error()
	default:
		return "internal error"
	}
}
