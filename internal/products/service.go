package products

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

// Service wraps product catalog rules.
type Service struct {
	repo      Repository
	providers ProviderSource
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, providers ProviderSource, logger *slog.Logger) *Service {
	return &Service{repo: repo, providers: providers, logger: logger}
}

// Create lists a new product under the acting provider.
func (s *Service) Create(ctx context.Context, userID int64, p *Product) (*Product, error) {
	providerID, err := s.providers.ProviderIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.ProviderID = providerID
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.Info("product created", slog.Int64("product_id", id), slog.Int64("provider_id", providerID))
	return s.repo.Get(ctx, id)
}

// Update rewrites a product the acting user's provider owns. Staff may
// edit any listing.
func (s *Service) Update(ctx context.Context, actor shared.Identity, p *Product) (*Product, error) {
	if err := s.requireOwnership(ctx, actor, p.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, p.ID)
}

// Delete removes a product under the same ownership rule as Update.
func (s *Service) Delete(ctx context.Context, actor shared.Identity, id int64) error {
	if err := s.requireOwnership(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) requireOwnership(ctx context.Context, actor shared.Identity, productID int64) error {
	if actor.IsStaff {
		return nil
	}
	existing, err := s.repo.Get(ctx, productID)
	if err != nil {
		return err
	}
	providerID, err := s.providers.ProviderIDForUser(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if existing.ProviderID != providerID {
		return fmt.Errorf("%w: product belongs to another provider", httpx.ErrForbidden)
	}
	return nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of products.
func (s *Service) List(ctx context.Context, filter Filter, page, perPage int) ([]Product, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter, perPage, shared.Offset(page, perPage))
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, int(total)), nil
}

// Rate records the acting user's score and returns the new aggregate.
func (s *Service) Rate(ctx context.Context, userID, productID int64, score int) (float64, int, error) {
	if score < 1 || score > 5 {
		return 0, 0, fmt.Errorf("%w: score must be between 1 and 5", httpx.ErrValidation)
	}
	if err := s.repo.UpsertRate(ctx, Rate{UserID: userID, ProductID: productID, Score: score}); err != nil {
		return 0, 0, err
	}
	return s.repo.RateSummary(ctx, productID)
}
