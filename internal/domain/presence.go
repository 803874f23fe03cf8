package domain

import (
	"time"

	"github.com/google/uuid"
)

// PresenceUpdate is the privacy-filtered presence event broadcast to all
// connected clients. LastSeen and Location are nil when the owning user has
// the corresponding setting turned off.
type PresenceUpdate struct {
	UserID        uuid.UUID  `json:"userId"`
	IsOnline      bool       `json:"isOnline"`
	LastSeen      *time.Time `json:"lastSeen"`
	Location      *string    `json:"location"`
	ShowLastSeen  bool       `json:"showLastSeen"`
	ShareLocation bool       `json:"shareLocation"`
}

// SettingsUpdate mirrors PresenceUpdate without the online flag. It is built
// from persisted values only, never from raw client input.
type SettingsUpdate struct {
	UserID        uuid.UUID  `json:"userId"`
	LastSeen      *time.Time `json:"lastSeen"`
	Location      *string    `json:"location"`
	ShowLastSeen  bool       `json:"showLastSeen"`
	ShareLocation bool       `json:"shareLocation"`
}
