package ws

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub owns group membership and broadcast routing. Every connection belongs
// to its user's personal group (all of that user's devices) and to one group
// per conversation the user participates in.
type Hub struct {
	registry *Registry
	log      *zap.Logger

	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
}

func NewHub(registry *Registry, log *zap.Logger) *Hub {
	return &Hub{
		registry: registry,
		log:      log,
		groups:   make(map[string]map[*Client]struct{}),
	}
}

func personalGroup(userID uuid.UUID) string {
	return "user:" + userID.String()
}

func conversationGroup(conversationID uuid.UUID) string {
	return "conv:" + conversationID.String()
}

// Connect registers the connection and joins it to the user's personal group.
// Reports whether this is the user's first live connection.
func (h *Hub) Connect(c *Client) (first bool) {
	first = h.registry.Register(c)
	h.join(c, personalGroup(c.userID))
	h.log.Info("ws: client connected",
		zap.String("user_id", c.userID.String()),
		zap.Int("devices", h.registry.Connections(c.userID)))
	return first
}

// Disconnect removes the connection from every group and deregisters it.
// Reports whether the user's live set became empty.
func (h *Hub) Disconnect(c *Client) (last bool) {
	h.leaveAll(c)
	last = h.registry.Deregister(c)
	h.log.Info("ws: client disconnected",
		zap.String("user_id", c.userID.String()),
		zap.Int("devices", h.registry.Connections(c.userID)))
	return last
}

// JoinConversation adds the connection to a conversation group. Idempotent;
// callable at connect time and again whenever the user opens a conversation.
func (h *Hub) JoinConversation(c *Client, conversationID uuid.UUID) {
	h.join(c, conversationGroup(conversationID))
}

func (h *Hub) join(c *Client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.groups[group]
	if set == nil {
		set = make(map[*Client]struct{})
		h.groups[group] = set
	}
	set[c] = struct{}{}
	c.trackGroup(group)
}

func (h *Hub) leaveAll(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, group := range c.trackedGroups() {
		set := h.groups[group]
		if set == nil {
			continue
		}
		delete(set, c)
		if len(set) == 0 {
			delete(h.groups, group)
		}
	}
}

// ToGroup sends data to every connection currently joined to the group,
// optionally excluding one (e.g. the typing sender).
func (h *Hub) ToGroup(group string, data []byte, exclude *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.groups[group] {
		if c == exclude {
			continue
		}
		c.trySend(data)
	}
}

// ToAll sends data to every connected client. Presence and settings events
// are global, not conversation-scoped.
func (h *Hub) ToAll(data []byte) {
	h.registry.mu.RLock()
	defer h.registry.mu.RUnlock()

	for _, set := range h.registry.conns {
		for c := range set {
			c.trySend(data)
		}
	}
}
