package deliveries

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sehaty-app/sehaty/internal/i18n"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// ProviderSource resolves the acting user's provider profile id.
type ProviderSource interface {
	ProviderIDForUser(ctx context.Context, userID int64) (int64, error)
}

// Notifier pushes a bilingual notification to a user.
type Notifier interface {
	Notify(ctx context.Context, userID int64, content i18n.Localized) error
}

// Service wraps delivery rules.
type Service struct {
	repo      Repository
	providers ProviderSource
	notifier  Notifier
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, providers ProviderSource, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, providers: providers, notifier: notifier, logger: logger}
}

// Create opens a delivery for an accepted order item. Only the item's
// provider or staff may create it.
func (s *Service) Create(ctx context.Context, actor shared.Identity, orderItemID int64, courier string) (*Delivery, error) {
	meta, err := s.repo.ItemMeta(ctx, orderItemID)
	if err != nil {
		return nil, err
	}
	if err := s.requireItemProvider(ctx, actor, meta); err != nil {
		return nil, err
	}
	if meta.OrderStatus != "ACCEPTED" {
		return nil, fmt.Errorf("%w: order is not accepted yet", httpx.ErrUnprocessable)
	}

	d := &Delivery{OrderItemID: orderItemID, Status: StatusPending, Courier: courier}
	id, err := s.repo.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	s.logger.Info("delivery opened",
		slog.Int64("delivery_id", id),
		slog.Int64("order_item_id", orderItemID))
	return s.repo.Get(ctx, id)
}

// Advance moves a delivery along its lifecycle and tells the buyer when
// the parcel ships or arrives.
func (s *Service) Advance(ctx context.Context, actor shared.Identity, deliveryID int64, status, note string) (*Delivery, error) {
	if status != StatusShipped && status != StatusDelivered {
		return nil, fmt.Errorf("%w: status must be SHIPPED or DELIVERED", httpx.ErrValidation)
	}
	d, err := s.repo.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	meta, err := s.repo.ItemMeta(ctx, d.OrderItemID)
	if err != nil {
		return nil, err
	}
	if err := s.requireItemProvider(ctx, actor, meta); err != nil {
		return nil, err
	}
	if d.Status == StatusDelivered {
		return nil, fmt.Errorf("%w: delivery already completed", httpx.ErrConflict)
	}

	if err := s.repo.SetStatus(ctx, deliveryID, status, note); err != nil {
		return nil, err
	}

	content := i18n.Localized{
		AR: fmt.Sprintf("تم شحن طلبك رقم %d.", meta.OrderID),
		EN: fmt.Sprintf("Your order #%d has been shipped.", meta.OrderID),
	}
	if status == StatusDelivered {
		content = i18n.Localized{
			AR: fmt.Sprintf("تم تسليم طلبك رقم %d.", meta.OrderID),
			EN: fmt.Sprintf("Your order #%d has been delivered.", meta.OrderID),
		}
	}
	if err := s.notifier.Notify(ctx, meta.BuyerID, content); err != nil {
		s.logger.Warn("notify buyer", slog.Int64("user_id", meta.BuyerID), slog.Any("error", err))
	}

	s.logger.Info("delivery advanced",
		slog.Int64("delivery_id", deliveryID),
		slog.String("status", status))
	return s.repo.Get(ctx, deliveryID)
}

// Get returns a delivery visible to the buyer, the provider or staff.
func (s *Service) Get(ctx context.Context, actor shared.Identity, deliveryID int64) (*Delivery, error) {
	d, err := s.repo.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	meta, err := s.repo.ItemMeta(ctx, d.OrderItemID)
	if err != nil {
		return nil, err
	}
	if actor.IsStaff || meta.BuyerID == actor.UserID {
		return d, nil
	}
	if err := s.requireItemProvider(ctx, actor, meta); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns the actor's deliveries: buyers see their incoming
// parcels, providers see their outgoing ones.
func (s *Service) List(ctx context.Context, actor shared.Identity) ([]Delivery, error) {
	if actor.Role == shared.RoleServiceProvider {
		providerID, err := s.providers.ProviderIDForUser(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		return s.repo.ListForProvider(ctx, providerID)
	}
	return s.repo.ListForBuyer(ctx, actor.UserID)
}

func (s *Service) requireItemProvider(ctx context.Context, actor shared.Identity, meta *ItemMeta) error {
	if actor.IsStaff {
		return nil
	}
	if actor.Role == shared.RoleServiceProvider {
		providerID, err := s.providers.ProviderIDForUser(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if providerID == meta.ProviderID {
			return nil
		}
	}
	return fmt.Errorf("%w: order item belongs to another provider", httpx.ErrForbidden)
}
