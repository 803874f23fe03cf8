package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PresenceCache mirrors presence state into Redis so other instances can read
// it without touching the primary store.
// Keys: <prefix>:presence:<userID> -> {"status","last_seen"}
type PresenceCache struct {
	client *redis.Client
	prefix string
}

type presenceEntry struct {
	Status   string `json:"status"` // "online" | "offline"
	LastSeen int64  `json:"last_seen,omitempty"`
}

func NewPresenceCache(client *redis.Client, prefix string) *PresenceCache {
	return &PresenceCache{client: client, prefix: prefix}
}

func (c *PresenceCache) key(userID uuid.UUID) string {
	return fmt.Sprintf("%s:presence:%s", c.prefix, userID)
}

func (c *PresenceCache) SetOnline(ctx context.Context, userID uuid.UUID) error {
	b, _ := json.Marshal(presenceEntry{Status: "online"})
	return c.client.Set(ctx, c.key(userID), b, 0).Err()
}

func (c *PresenceCache) SetOffline(ctx context.Context, userID uuid.UUID, lastSeen time.Time) error {
	b, _ := json.Marshal(presenceEntry{Status: "offline", LastSeen: lastSeen.Unix()})
	return c.client.Set(ctx, c.key(userID), b, 0).Err()
}

// IsOnline reports the cached status; missing keys read as offline.
func (c *PresenceCache) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	b, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var entry presenceEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		return false, err
	}
	return entry.Status == "online", nil
}
