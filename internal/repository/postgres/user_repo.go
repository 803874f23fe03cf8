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

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `
	id, email, display_name, avatar, about, is_online, last_seen, location,
	share_location, show_last_seen, read_receipts_enabled, created_at, updated_at`

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.Avatar, &u.About,
		&u.IsOnline, &u.LastSeen, &u.Location,
		&u.Settings.ShareLocation, &u.Settings.ShowLastSeen, &u.Settings.ReadReceiptsEnabled,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) SetPresence(ctx context.Context, id uuid.UUID, online bool, lastSeen *time.Time) error {
	query := `UPDATE users SET is_online = $1, last_seen = $2, updated_at = now() WHERE id = $3`
	_, err := r.pool.Exec(ctx, query, online, lastSeen, id)
	return err
}

func (r *UserRepo) UpdateSettings(ctx context.Context, id uuid.UUID, patch domain.SettingsPatch) (*domain.User, error) {
	query := `
		UPDATE users SET
			share_location = COALESCE($1, share_location),
			show_last_seen = COALESCE($2, show_last_seen),
			read_receipts_enabled = COALESCE($3, read_receipts_enabled),
			location = COALESCE($4, location),
			updated_at = now()
		WHERE id = $5
		RETURNING ` + userColumns
	var u domain.User
	err := r.pool.QueryRow(ctx, query,
		patch.ShareLocation, patch.ShowLastSeen, patch.ReadReceiptsEnabled, patch.Location, id,
	).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.Avatar, &u.About,
		&u.IsOnline, &u.LastSeen, &u.Location,
		&u.Settings.ShareLocation, &u.Settings.ShowLastSeen, &u.Settings.ReadReceiptsEnabled,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &u, err
}
