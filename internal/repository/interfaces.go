package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/ripple/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// SetPresence persists the online flag and, on the offline edge, the
	// last-seen instant. lastSeen is nil while the user is online.
	SetPresence(ctx context.Context, id uuid.UUID, online bool, lastSeen *time.Time) error
	// UpdateSettings applies a partial settings update and returns the user
	// as persisted, so broadcasts never echo raw input.
	UpdateSettings(ctx context.Context, id uuid.UUID, patch domain.SettingsPatch) (*domain.User, error)
}

type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	GetByParticipants(ctx context.Context, user1ID, user2ID uuid.UUID) (*domain.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error)
	ListIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// SetLastMessage updates the denormalized summary. Best-effort from the
	// caller's point of view; failure never invalidates the message itself.
	SetLastMessage(ctx context.Context, id uuid.UUID, content string, at time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, page, limit int) ([]domain.Message, int, error)
	// ListMissed returns messages created strictly after since, in any of the
	// user's conversations, excluding the user's own, oldest first.
	ListMissed(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.Message, error)
	// MarkDelivered and MarkRead append a receipt if absent; marking the same
	// (message, user) pair again is a no-op, never a duplicate.
	MarkDelivered(ctx context.Context, messageID, userID uuid.UUID, at time.Time) error
	MarkRead(ctx context.Context, messageID, userID uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}
