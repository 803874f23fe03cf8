package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/ripple/internal/domain"
)

const (
	receiptDelivered = "delivered"
	receiptRead      = "read"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.CreatedAt,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, content, created_at
		FROM messages
		WHERE id = $1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	msgs := []domain.Message{msg}
	if err := r.loadReceipts(ctx, msgs); err != nil {
		return nil, err
	}
	return &msgs[0], nil
}

func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, page, limit int) ([]domain.Message, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM messages WHERE conversation_id = $1`, conversationID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, conversation_id, sender_id, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.pool.Query(ctx, query, conversationID, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}
	messages, err := scanMessages(rows)
	if err != nil {
		return nil, 0, err
	}

	// Reverse to chronological order (query returns DESC)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	if err := r.loadReceipts(ctx, messages); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *MessageRepo) ListMissed(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.Message, error) {
	query := `
		SELECT m.id, m.conversation_id, m.sender_id, m.content, m.created_at
		FROM messages m
		JOIN conversation_participants p ON p.conversation_id = m.conversation_id
		WHERE p.user_id = $1 AND m.sender_id <> $1 AND m.created_at > $2
		ORDER BY m.created_at ASC`
	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadReceipts(ctx, messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkDelivered appends a delivery receipt unless one already exists.
func (r *MessageRepo) MarkDelivered(ctx context.Context, messageID, userID uuid.UUID, at time.Time) error {
	return r.insertReceipt(ctx, messageID, userID, receiptDelivered, at)
}

// MarkRead appends a read receipt unless one already exists.
func (r *MessageRepo) MarkRead(ctx context.Context, messageID, userID uuid.UUID, at time.Time) error {
	return r.insertReceipt(ctx, messageID, userID, receiptRead, at)
}

func (r *MessageRepo) insertReceipt(ctx context.Context, messageID, userID uuid.UUID, kind string, at time.Time) error {
	// The primary key (message_id, user_id, kind) makes concurrent duplicate
	// marking attempts collapse into a single row.
	query := `
		INSERT INTO message_receipts (message_id, user_id, kind, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (message_id, user_id, kind) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, messageID, userID, kind, at)
	return err
}

func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	defer rows.Close()
	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.DeliveredTo = []domain.DeliveryReceipt{}
		msg.ReadBy = []domain.ReadReceipt{}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *MessageRepo) loadReceipts(ctx context.Context, messages []domain.Message) error {
	if len(messages) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(messages))
	index := make(map[uuid.UUID]*domain.Message, len(messages))
	for i := range messages {
		ids[i] = messages[i].ID
		index[messages[i].ID] = &messages[i]
		messages[i].DeliveredTo = []domain.DeliveryReceipt{}
		messages[i].ReadBy = []domain.ReadReceipt{}
	}

	query := `
		SELECT message_id, user_id, kind, recorded_at
		FROM message_receipts
		WHERE message_id = ANY($1)
		ORDER BY recorded_at ASC`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			messageID, userID uuid.UUID
			kind              string
			recordedAt        time.Time
		)
		if err := rows.Scan(&messageID, &userID, &kind, &recordedAt); err != nil {
			return err
		}
		msg := index[messageID]
		if msg == nil {
			continue
		}
		switch kind {
		case receiptDelivered:
			msg.DeliveredTo = append(msg.DeliveredTo, domain.DeliveryReceipt{UserID: userID, DeliveredAt: recordedAt})
		case receiptRead:
			msg.ReadBy = append(msg.ReadBy, domain.ReadReceipt{UserID: userID, ReadAt: recordedAt})
		}
	}
	return rows.Err()
}
