package contact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Service handles contact-us submissions and their staff inbox.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Submit stores a message from the acting user.
func (s *Service) Submit(ctx context.Context, userID int64, subject, body string) (*Message, error) {
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	if subject == "" || body == "" {
		return nil, fmt.Errorf("%w: subject and body are required", httpx.ErrValidation)
	}
	id, err := s.repo.Create(ctx, &Message{UserID: userID, Subject: subject, Body: body})
	if err != nil {
		return nil, err
	}
	s.logger.Info("contact message received",
		slog.Int64("message_id", id),
		slog.Int64("user_id", userID))
	return s.repo.Get(ctx, id)
}

// List returns the staff inbox.
func (s *Service) List(ctx context.Context, unreadOnly bool, page, perPage int) ([]Message, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, unreadOnly, perPage, shared.Offset(page, perPage))
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, int(total)), nil
}

// Get fetches one message.
func (s *Service) Get(ctx context.Context, id int64) (*Message, error) {
	return s.repo.Get(ctx, id)
}

// MarkRead stamps the acting staff member on a message. A second read
// attempt conflicts so two admins never silently claim the same ticket.
func (s *Service) MarkRead(ctx context.Context, staffID, id int64) error {
	return s.repo.MarkRead(ctx, id, staffID)
}
