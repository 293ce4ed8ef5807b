package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sehaty-app/sehaty/internal/i18n"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Notifier pushes a bilingual notification to a user. The notifications
// service implements it.
type Notifier interface {
	Notify(ctx context.Context, userID int64, content i18n.Localized) error
}

// Service wraps provider profile rules.
type Service struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// RegisterProfile creates the acting provider's business profile in
// PENDING state.
func (s *Service) RegisterProfile(ctx context.Context, userID int64, businessName, iban string) (*Provider, error) {
	p := &Provider{
		UserID:        userID,
		BusinessName:  businessName,
		IBAN:          iban,
		AccountStatus: StatusPending,
	}
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.Info("provider profile registered", slog.Int64("user_id", userID), slog.Int64("provider_id", id))
	return s.repo.Get(ctx, id)
}

// Mine returns the acting provider's own profile.
func (s *Service) Mine(ctx context.Context, userID int64) (*Provider, error) {
	return s.repo.GetByUser(ctx, userID)
}

// ProviderIDForUser resolves a user's accepted provider profile id.
// Catalogue and order modules use it to scope provider-owned records.
func (s *Service) ProviderIDForUser(ctx context.Context, userID int64) (int64, error) {
	p, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if p.AccountStatus != StatusAccepted {
		return 0, fmt.Errorf("%w: provider profile is not accepted", httpx.ErrForbidden)
	}
	return p.ID, nil
}

// Get returns one profile.
func (s *Service) Get(ctx context.Context, id int64) (*Provider, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of profiles for the admin surface.
func (s *Service) List(ctx context.Context, status string, page, perPage int) ([]Provider, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, status, perPage, shared.Offset(page, perPage))
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, int(total)), nil
}

// Review records the admin decision on a pending profile and notifies
// the owner in both languages.
func (s *Service) Review(ctx context.Context, id int64, accept bool, reviewer shared.Identity) (*Provider, error) {
	if !reviewer.IsStaff {
		return nil, fmt.Errorf("%w: only staff may review profiles", httpx.ErrForbidden)
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.AccountStatus != StatusPending {
		return nil, fmt.Errorf("%w: profile already reviewed", httpx.ErrConflict)
	}

	status := StatusRejected
	content := i18n.Localized{
		AR: "نأسف، تم رفض ملفك التجاري.",
		EN: "We are sorry, your business profile was rejected.",
	}
	if accept {
		status = StatusAccepted
		content = i18n.Localized{
			AR: "تهانينا، تم قبول ملفك التجاري.",
			EN: "Congratulations, your business profile was accepted.",
		}
	}
	if err := s.repo.SetStatus(ctx, id, status, reviewer.UserID); err != nil {
		return nil, err
	}
	if err := s.notifier.Notify(ctx, p.UserID, content); err != nil {
		s.logger.Warn("notify provider review", slog.Int64("provider_id", id), slog.Any("error", err))
	}
	s.logger.Info("provider reviewed",
		slog.Int64("provider_id", id),
		slog.String("status", status),
		slog.Int64("reviewer_id", reviewer.UserID))
	return s.repo.Get(ctx, id)
}

// AddLocation creates a branch for the acting provider.
func (s *Service) AddLocation(ctx context.Context, userID int64, l *Location) (*Location, error) {
	p, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	l.ProviderID = p.ID
	id, err := s.repo.CreateLocation(ctx, l)
	if err != nil {
		return nil, err
	}
	return s.repo.GetLocation(ctx, id)
}

// UpdateLocation rewrites a branch the acting provider owns.
func (s *Service) UpdateLocation(ctx context.Context, userID int64, l *Location) (*Location, error) {
	if err := s.ownLocation(ctx, userID, l.ID, &l.ProviderID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLocation(ctx, l); err != nil {
		return nil, err
	}
	return s.repo.GetLocation(ctx, l.ID)
}

// DeleteLocation removes a branch the acting provider owns.
func (s *Service) DeleteLocation(ctx context.Context, userID, locationID int64) error {
	var providerID int64
	if err := s.ownLocation(ctx, userID, locationID, &providerID); err != nil {
		return err
	}
	return s.repo.DeleteLocation(ctx, locationID)
}

func (s *Service) ownLocation(ctx context.Context, userID, locationID int64, providerID *int64) error {
	p, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	existing, err := s.repo.GetLocation(ctx, locationID)
	if err != nil {
		return err
	}
	if existing.ProviderID != p.ID {
		return fmt.Errorf("%w: location belongs to another provider", httpx.ErrForbidden)
	}
	*providerID = p.ID
	return nil
}

// Locations lists a provider's branches.
func (s *Service) Locations(ctx context.Context, providerID int64) ([]Location, error) {
	return s.repo.ListLocations(ctx, providerID)
}

// Nearby returns accepted branches ordered by distance from the point.
func (s *Service) Nearby(ctx context.Context, lat, lng float64, limit int) ([]NearbyLocation, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", httpx.ErrValidation)
	}
	if limit <= 0 || limit > 100 {
		limit = shared.DefaultPageSize
	}
	return s.repo.Nearby(ctx, lat, lng, limit)
}

// SubmitProfileRequest stores a pending edit to the acting provider's
// business details.
func (s *Service) SubmitProfileRequest(ctx context.Context, userID int64, businessName, iban string) (*ProfileRequest, error) {
	p, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	req := &ProfileRequest{
		ProviderID:   p.ID,
		BusinessName: businessName,
		IBAN:         iban,
		Status:       StatusPending,
	}
	id, err := s.repo.CreateRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.repo.GetRequest(ctx, id)
}

// ListProfileRequests returns a page of edit requests for admins.
func (s *Service) ListProfileRequests(ctx context.Context, status string, page, perPage int) ([]ProfileRequest, shared.Pagination, error) {
	items, total, err := s.repo.ListRequests(ctx, status, perPage, shared.Offset(page, perPage))
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, int(total)), nil
}

// ReviewProfileRequest applies or rejects a pending edit. Approval
// copies the requested details onto the live profile.
func (s *Service) ReviewProfileRequest(ctx context.Context, id int64, accept bool, reviewer shared.Identity) error {
	if !reviewer.IsStaff {
		return fmt.Errorf("%w: only staff may review profile edits", httpx.ErrForbidden)
	}
	req, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	status := StatusRejected
	if accept {
		status = StatusAccepted
	}
	if err := s.repo.ReviewRequest(ctx, id, status, reviewer.UserID); err != nil {
		return err
	}
	if accept {
		if err := s.repo.ApplyProfile(ctx, req.ProviderID, req.BusinessName, req.IBAN); err != nil {
			return err
		}
	}
	s.logger.Info("profile request reviewed",
		slog.Int64("request_id", id),
		slog.String("status", status))
	return nil
}
