package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/vedran77/ripple/internal/domain"
	"github.com/vedran77/ripple/internal/repository"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotMessageSender     = errors.New("only the message sender can perform this action")
	ErrEmptyContent         = errors.New("message content is required")
	ErrContentTooLong       = errors.New("message content is too long")
)

const maxContentLength = 4096

// Liveness answers whether a user has at least one live connection. Backed by
// the in-process connection registry; swappable for a shared store in a
// multi-process deployment.
type Liveness interface {
	IsOnline(userID uuid.UUID) bool
}

// Notifier broadcasts real-time events to connected clients.
type Notifier interface {
	NewMessage(msg *domain.Message)
	MessageDelivered(conversationID, messageID, userID uuid.UUID)
	// MessageRead goes to the sender's devices only, not the whole conversation.
	MessageRead(senderID, messageID, readerID uuid.UUID)
	MessageDeleted(conversationID, messageID uuid.UUID)
	PresenceChanged(update *domain.PresenceUpdate)
	SettingsUpdated(update *domain.SettingsUpdate)
}

type MessageService struct {
	messages repository.MessageRepository
	convs    repository.ConversationRepository
	users    repository.UserRepository
	liveness Liveness
	notifier Notifier
	log      *zap.Logger
}

func NewMessageService(
	messages repository.MessageRepository,
	convs repository.ConversationRepository,
	users repository.UserRepository,
	liveness Liveness,
	log *zap.Logger,
) *MessageService {
	return &MessageService{
		messages: messages,
		convs:    convs,
		users:    users,
		liveness: liveness,
		log:      log,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Send persists a message, fans it out to the conversation group and marks
// delivery for every other participant that is currently connected. Offline
// participants are left unmarked; they catch up through Sync.
func (s *MessageService) Send(ctx context.Context, senderID, conversationID uuid.UUID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > maxContentLength {
		return nil, ErrContentTooLong
	}

	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		DeliveredTo:    []domain.DeliveryReceipt{},
		ReadBy:         []domain.ReadReceipt{},
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	// Summary update is best-effort; the message write already succeeded.
	if err := s.convs.SetLastMessage(ctx, conversationID, content, msg.CreatedAt); err != nil {
		s.log.Warn("updating conversation summary",
			zap.String("conversation_id", conversationID.String()), zap.Error(err))
	}

	// The sender's own other devices receive this too (multi-device echo).
	if s.notifier != nil {
		s.notifier.NewMessage(msg)
	}

	recipients := lo.Filter(conv.Participants, func(p uuid.UUID, _ int) bool {
		return p != senderID
	})
	go s.markDeliveries(msg, recipients)

	return msg, nil
}

func (s *MessageService) markDeliveries(msg *domain.Message, recipients []uuid.UUID) {
	// The triggering request may be gone by the time receipts land.
	ctx := context.Background()

	for _, userID := range recipients {
		if !s.liveness.IsOnline(userID) {
			continue
		}
		if err := s.messages.MarkDelivered(ctx, msg.ID, userID, time.Now().UTC()); err != nil {
			s.log.Warn("marking delivery",
				zap.String("message_id", msg.ID.String()),
				zap.String("user_id", userID.String()), zap.Error(err))
			continue
		}
		if s.notifier != nil {
			s.notifier.MessageDelivered(msg.ConversationID, msg.ID, userID)
		}
	}
}

// MarkAsRead records a read receipt. Missing messages are silently ignored,
// and a sender with read receipts disabled suppresses the whole exchange.
func (s *MessageService) MarkAsRead(ctx context.Context, readerID, messageID uuid.UUID) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("loading message: %w", err)
	}
	if msg == nil {
		return nil
	}
	if msg.SenderID == readerID {
		// A sender never appears in their own message's readBy list.
		return nil
	}

	sender, err := s.users.GetByID(ctx, msg.SenderID)
	if err != nil {
		return fmt.Errorf("loading sender: %w", err)
	}
	if sender == nil || !sender.Settings.ReadReceiptsEnabled {
		return nil
	}

	if !msg.WasReadBy(readerID) {
		if err := s.messages.MarkRead(ctx, messageID, readerID, time.Now().UTC()); err != nil {
			return fmt.Errorf("recording read receipt: %w", err)
		}
	}

	if s.notifier != nil {
		s.notifier.MessageRead(msg.SenderID, messageID, readerID)
	}
	return nil
}

// Delete removes a message and broadcasts a tombstone so connected clients
// drop it from their local view.
func (s *MessageService) Delete(ctx context.Context, requesterID, messageID uuid.UUID) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("loading message: %w", err)
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.SenderID != requesterID {
		return ErrNotMessageSender
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}

	if s.notifier != nil {
		s.notifier.MessageDeleted(msg.ConversationID, messageID)
	}
	return nil
}

// Sync returns every message created strictly after since in the user's
// conversations, excluding the user's own, oldest first. It does not
// deduplicate against messages already pushed over a live connection; clients
// merge by message ID.
func (s *MessageService) Sync(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.Message, error) {
	messages, err := s.messages.ListMissed(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("loading missed messages: %w", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type HistoryResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// History returns a page of conversation messages, oldest first.
func (s *MessageService) History(ctx context.Context, userID, conversationID uuid.UUID, page, limit int) (*HistoryResponse, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	messages, total, err := s.messages.ListByConversation(ctx, conversationID, page, limit)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	return &HistoryResponse{
		Messages: messages,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}
