package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/ripple/internal/cache"
	"github.com/vedran77/ripple/internal/domain"
	"github.com/vedran77/ripple/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

type PresenceService struct {
	users    repository.UserRepository
	cache    *cache.PresenceCache // optional presence mirror
	notifier Notifier
	log      *zap.Logger
}

func NewPresenceService(users repository.UserRepository, presenceCache *cache.PresenceCache, log *zap.Logger) *PresenceService {
	return &PresenceService{
		users: users,
		cache: presenceCache,
		log:   log,
	}
}

func (s *PresenceService) SetNotifier(n Notifier) {
	s.notifier = n
}

// HandleConnect runs on a user's first live connection: persists the online
// flag and broadcasts a privacy-filtered presence event to everyone.
// The caller computes the transition from post-mutation registry state.
func (s *PresenceService) HandleConnect(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.users.SetPresence(ctx, userID, true, nil); err != nil {
		return fmt.Errorf("persisting presence: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetOnline(ctx, userID); err != nil {
			s.log.Warn("mirroring presence", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	if s.notifier != nil {
		s.notifier.PresenceChanged(presenceUpdate(user, true, time.Now().UTC()))
	}
	return nil
}

// HandleDisconnect runs when a user's last live connection closes: stamps
// lastSeen at the transition instant and broadcasts the offline event.
func (s *PresenceService) HandleDisconnect(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	now := time.Now().UTC()
	if err := s.users.SetPresence(ctx, userID, false, &now); err != nil {
		return fmt.Errorf("persisting presence: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetOffline(ctx, userID, now); err != nil {
			s.log.Warn("mirroring presence", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	if s.notifier != nil {
		s.notifier.PresenceChanged(presenceUpdate(user, false, now))
	}
	return nil
}

// UpdateSettings persists the patch first and broadcasts second, from the
// persisted values, so clients never see un-validated input echoed back.
func (s *PresenceService) UpdateSettings(ctx context.Context, userID uuid.UUID, patch domain.SettingsPatch) (*domain.User, error) {
	// Location only updates alongside enabling sharing.
	if patch.Location != nil && (patch.ShareLocation == nil || !*patch.ShareLocation) {
		patch.Location = nil
	}

	user, err := s.users.UpdateSettings(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("persisting settings: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if s.notifier != nil {
		now := time.Now().UTC()
		update := &domain.SettingsUpdate{
			UserID:        user.ID,
			ShowLastSeen:  user.Settings.ShowLastSeen,
			ShareLocation: user.Settings.ShareLocation,
		}
		if user.Settings.ShowLastSeen {
			update.LastSeen = &now
		}
		if user.Settings.ShareLocation {
			update.Location = user.Location
		}
		s.notifier.SettingsUpdated(update)
	}
	return user, nil
}

// Settings returns the persisted privacy settings for a user.
func (s *PresenceService) Settings(ctx context.Context, userID uuid.UUID) (*domain.Settings, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return &user.Settings, nil
}

func presenceUpdate(user *domain.User, online bool, at time.Time) *domain.PresenceUpdate {
	update := &domain.PresenceUpdate{
		UserID:        user.ID,
		IsOnline:      online,
		ShowLastSeen:  user.Settings.ShowLastSeen,
		ShareLocation: user.Settings.ShareLocation,
	}
	if user.Settings.ShowLastSeen {
		update.LastSeen = &at
	}
	if user.Settings.ShareLocation {
		update.Location = user.Location
	}
	return update
}
