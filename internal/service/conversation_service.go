package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/ripple/internal/domain"
	"github.com/vedran77/ripple/internal/repository"
)

var ErrSelfConversation = errors.New("cannot start a conversation with yourself")

type ConversationService struct {
	convs repository.ConversationRepository
	users repository.UserRepository
	log   *zap.Logger
}

func NewConversationService(convs repository.ConversationRepository, users repository.UserRepository, log *zap.Logger) *ConversationService {
	return &ConversationService{
		convs: convs,
		users: users,
		log:   log,
	}
}

// GetOrCreate finds or creates the 1:1 conversation between two users.
func (s *ConversationService) GetOrCreate(ctx context.Context, userID, otherUserID uuid.UUID) (*domain.Conversation, error) {
	if userID == otherUserID {
		return nil, ErrSelfConversation
	}

	other, err := s.users.GetByID(ctx, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if other == nil {
		return nil, ErrUserNotFound
	}

	conv, err := s.convs.GetByParticipants(ctx, userID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	if conv != nil {
		return conv, nil
	}

	now := time.Now().UTC()
	conv = &domain.Conversation{
		ID:           uuid.New(),
		Participants: []uuid.UUID{userID, otherUserID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return conv, nil
}

// List returns the user's conversations with their last-message summaries.
func (s *ConversationService) List(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	convs, err := s.convs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

// ListIDs returns the IDs of every conversation the user participates in.
// Used at connect time to join the conversation broadcast groups.
func (s *ConversationService) ListIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.convs.ListIDsByUser(ctx, userID)
}
