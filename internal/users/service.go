package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Service wraps user management rules.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of users for the admin surface.
func (s *Service) List(ctx context.Context, filter Filter, page, perPage int) ([]User, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter, perPage, shared.Offset(page, perPage))
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, int(total)), nil
}

// UpdateProfile lets a user edit their own names and phone.
func (s *Service) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*User, error) {
	return s.repo.UpdateProfile(ctx, id, update)
}

// Deactivate suspends an account without destroying its history. Super
// admin accounts cannot be suspended.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == shared.RoleSuperAdmin {
		return fmt.Errorf("%w: cannot deactivate a super admin", httpx.ErrForbidden)
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.logger.Info("user deactivated", slog.Int64("user_id", id))
	return nil
}

// Reactivate lifts a suspension.
func (s *Service) Reactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, true)
}

// Delete permanently removes an account and everything hanging off it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == shared.RoleSuperAdmin {
		return fmt.Errorf("%w: cannot delete a super admin", httpx.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.Int64("user_id", id))
	return nil
}
