package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Avatar      *string    `json:"avatar,omitempty"`
	About       *string    `json:"about,omitempty"`
	IsOnline    bool       `json:"isOnline"`
	LastSeen    *time.Time `json:"lastSeen,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Settings    Settings   `json:"settings"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Settings gate what is broadcast to other users, not what is stored.
type Settings struct {
	ShareLocation       bool `json:"shareLocation"`
	ShowLastSeen        bool `json:"showLastSeen"`
	ReadReceiptsEnabled bool `json:"readReceiptsEnabled"`
}

// SettingsPatch is a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	ShareLocation       *bool   `json:"shareLocation,omitempty"`
	ShowLastSeen        *bool   `json:"showLastSeen,omitempty"`
	ReadReceiptsEnabled *bool   `json:"readReceiptsEnabled,omitempty"`
	Location            *string `json:"location,omitempty"`
}
