package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// ProviderSource resolves the acting user's provider profile id.
type ProviderSource interface {
	ProviderIDForUser(ctx context.Context, userID int64) (int64, error)
}

// Manager wraps service catalog rules.
type Manager struct {
	repo      Repository
	providers ProviderSource
	logger    *slog.Logger
}

// NewManager constructs a Manager.
func NewManager(repo Repository, providers ProviderSource, logger *slog.Logger) *Manager {
	return &Manager{repo: repo, providers: providers, logger: logger}
}

// Create lists a new service under the acting provider.
func (m *Manager) Create(ctx context.Context, userID int64, s *Service) (*Service, error) {
	providerID, err := m.providers.ProviderIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.ProviderID = providerID
	id, err := m.repo.Create(ctx, s)
	if err != nil {
		return nil, err
	}
	m.logger.Info("service created", slog.Int64("service_id", id), slog.Int64("provider_id", providerID))
	return m.repo.Get(ctx, id)
}

// Update rewrites a service the acting user's provider owns. Staff may
// edit any listing.
func (m *Manager) Update(ctx context.Context, actor shared.Identity, s *Service) (*Service, error) {
	if err := m.requireOwnership(ctx, actor, s.ID); err != nil {
		return nil, err
	}
	if err := m.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	return m.repo.Get(ctx, s.ID)
}

// Delete removes a service under the same ownership rule as Update.
func (m *Manager) Delete(ctx context.Context, actor shared.Identity, id int64) error {
	if err := m.requireOwnership(ctx, actor, id); err != nil {
		return err
	}
	return m.repo.Delete(ctx, id)
}

func (m *Manager) requireOwnership(ctx context.Context, actor shared.Identity, serviceID int64) error {
	if actor.IsStaff {
		return nil
	}
	existing, err := m.repo.Get(ctx, serviceID)
	if err != nil {
		return err
	}
	providerID, err := m.providers.ProviderIDForUser(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if existing.ProviderID != providerID {
		return fmt.Errorf("%w: service belongs to another provider", httpx.ErrForbidden)
	}
	return nil
}

// Get returns one service.
func (m *Manager) Get(ctx context.Context, id int64) (*Service, error) {
	return m.repo.Get(ctx, id)
}

// List returns a page of services.
func (m *Manager) List(ctx context.Context, filter Filter, page, perPage int) ([]Service, shared.Pagination, error) {
	items, total, err := m.repo.List(ctx, filter, perPage, shared.Offset(page, perPage))
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, int(total)), nil
}

// Rate records the acting user's score and returns the new aggregate.
func (m *Manager) Rate(ctx context.Context, userID, serviceID int64, score int) (float64, int, error) {
	if score < 1 || score > 5 {
		return 0, 0, fmt.Errorf("%w: score must be between 1 and 5", httpx.ErrValidation)
	}
	if err := m.repo.UpsertRate(ctx, Rate{UserID: userID, ServiceID: serviceID, Score: score}); err != nil {
		return 0, 0, err
	}
	return m.repo.RateSummary(ctx, serviceID)
}
