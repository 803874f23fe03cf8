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

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

func (r *ConversationRepo) Create(ctx context.Context, conv *domain.Conversation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO conversations (id, last_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, query, conv.ID, conv.LastMessage, conv.CreatedAt, conv.UpdatedAt); err != nil {
		return err
	}
	for _, p := range conv.Participants {
		query := `INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)`
		if _, err := tx.Exec(ctx, query, conv.ID, p); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *ConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT c.id, c.last_message, c.created_at, c.updated_at,
			array_agg(p.user_id) AS participants
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE c.id = $1
		GROUP BY c.id`
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&conv.ID, &conv.LastMessage, &conv.CreatedAt, &conv.UpdatedAt, &conv.Participants,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &conv, err
}

func (r *ConversationRepo) GetByParticipants(ctx context.Context, user1ID, user2ID uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT c.id, c.last_message, c.created_at, c.updated_at,
			array_agg(p.user_id) AS participants
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE c.id IN (
			SELECT p1.conversation_id
			FROM conversation_participants p1
			JOIN conversation_participants p2 ON p1.conversation_id = p2.conversation_id
			WHERE p1.user_id = $1 AND p2.user_id = $2
		)
		GROUP BY c.id
		LIMIT 1`
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, query, user1ID, user2ID).Scan(
		&conv.ID, &conv.LastMessage, &conv.CreatedAt, &conv.UpdatedAt, &conv.Participants,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &conv, err
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	query := `
		SELECT c.id, c.last_message, c.created_at, c.updated_at,
			array_agg(p.user_id) AS participants
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE c.id IN (
			SELECT conversation_id FROM conversation_participants WHERE user_id = $1
		)
		GROUP BY c.id
		ORDER BY c.updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(&conv.ID, &conv.LastMessage, &conv.CreatedAt, &conv.UpdatedAt, &conv.Participants); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) ListIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT conversation_id FROM conversation_participants WHERE user_id = $1`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ConversationRepo) SetLastMessage(ctx context.Context, id uuid.UUID, content string, at time.Time) error {
	query := `UPDATE conversations SET last_message = $1, updated_at = $2 WHERE id = $3`
	_, err := r.pool.Exec(ctx, query, content, at, id)
	return err
}
