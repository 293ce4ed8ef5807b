package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sehaty-app/sehaty/internal/i18n"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Service stores and serves per-user notifications. It satisfies the
// Notifier dependency declared by the modules that push messages.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Notify stores a bilingual message for the user. Both translations
// must be present so the reader's language choice never hits a gap.
func (s *Service) Notify(ctx context.Context, userID int64, content i18n.Localized) error {
	if content.AR == "" || content.EN == "" {
		return fmt.Errorf("%w: notification needs both translations", httpx.ErrValidation)
	}
	id, err := s.repo.Create(ctx, &Notification{UserID: userID, Content: content})
	if err != nil {
		return err
	}
	s.logger.Debug("notification stored",
		slog.Int64("notification_id", id),
		slog.Int64("user_id", userID))
	return nil
}

// List returns the user's notifications rendered in the given language.
func (s *Service) List(ctx context.Context, userID int64, lang string, unreadOnly bool, limit, offset int) ([]View, error) {
	items, err := s.repo.ListForUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(items))
	for _, n := range items {
		views = append(views, n.Render(lang))
	}
	return views, nil
}

// UnreadCount returns the user's unread badge number.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead flips one notification.
func (s *Service) MarkRead(ctx context.Context, userID, id int64) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// MarkAllRead flips everything unread and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// PruneOld removes read notifications past the retention window. Run
// from the background worker.
func (s *Service) PruneOld(ctx context.Context, olderThanDays int) error {
	removed, err := s.repo.DeleteOld(ctx, olderThanDays)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Info("notifications pruned", slog.Int64("removed", removed))
	}
	return nil
}
