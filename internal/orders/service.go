package orders

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

// Service wraps cart and order rules.
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

// AddToCart merges a product line into the acting user's cart.
func (s *Service) AddToCart(ctx context.Context, userID, productID int64, quantity int) (*CartItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", httpx.ErrValidation)
	}
	return s.repo.AddCartItem(ctx, userID, productID, quantity)
}

// UpdateCartItem sets a line's quantity.
func (s *Service) UpdateCartItem(ctx context.Context, userID, itemID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", httpx.ErrValidation)
	}
	return s.repo.UpdateCartItem(ctx, userID, itemID, quantity)
}

// RemoveCartItem deletes a line from the acting user's cart.
func (s *Service) RemoveCartItem(ctx context.Context, userID, itemID int64) error {
	return s.repo.RemoveCartItem(ctx, userID, itemID)
}

// Cart returns the acting user's cart.
func (s *Service) Cart(ctx context.Context, userID int64) ([]CartItem, error) {
	return s.repo.ListCart(ctx, userID)
}

// Checkout converts the cart into a pending order.
func (s *Service) Checkout(ctx context.Context, userID int64) (*Order, error) {
	order, err := s.repo.Checkout(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order placed",
		slog.Int64("order_id", order.ID),
		slog.Int64("user_id", userID),
		slog.Float64("total", order.Total))
	return order, nil
}

// Get returns an order visible to the actor: the buyer, staff, or a
// provider with items in it.
func (s *Service) Get(ctx context.Context, actor shared.Identity, orderID int64) (*Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.requireVisibility(ctx, actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) requireVisibility(ctx context.Context, actor shared.Identity, order *Order) error {
	if actor.IsStaff || order.UserID == actor.UserID {
		return nil
	}
	if actor.Role == shared.RoleServiceProvider {
		providerID, err := s.providers.ProviderIDForUser(ctx, actor.UserID)
		if err == nil {
			for _, item := range order.Items {
				if item.ProviderID == providerID {
					return nil
				}
			}
		}
	}
	return fmt.Errorf("%w: order belongs to another account", httpx.ErrForbidden)
}

// List returns orders scoped to the actor: buyers see their own,
// providers see orders containing their items, staff see everything.
func (s *Service) List(ctx context.Context, actor shared.Identity, status string, page, perPage int) ([]Order, shared.Pagination, error) {
	filter := OrderFilter{Status: status}
	switch {
	case actor.IsStaff:
	case actor.Role == shared.RoleServiceProvider:
		providerID, err := s.providers.ProviderIDForUser(ctx, actor.UserID)
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		filter.ProviderID = providerID
	default:
		filter.UserID = actor.UserID
	}

	items, total, err := s.repo.ListOrders(ctx, filter, perPage, shared.Offset(page, perPage))
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, int(total)), nil
}

// Review accepts or rejects a pending order. Rejection requires a
// reason, restores stock and notifies the buyer.
func (s *Service) Review(ctx context.Context, actor shared.Identity, orderID int64, accept bool, reason string) (*Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.requireReviewer(ctx, actor, order); err != nil {
		return nil, err
	}

	if accept {
		if err := s.repo.Accept(ctx, orderID); err != nil {
			return nil, err
		}
		s.notify(ctx, order.UserID, i18n.Localized{
			AR: fmt.Sprintf("تم قبول طلبك رقم %d.", orderID),
			EN: fmt.Sprintf("Your order #%d was accepted.", orderID),
		})
	} else {
		if reason == "" {
			return nil, fmt.Errorf("%w: rejection requires a reason", httpx.ErrValidation)
		}
		if err := s.repo.Reject(ctx, orderID, reason, actor.UserID); err != nil {
			return nil, err
		}
		s.notify(ctx, order.UserID, i18n.Localized{
			AR: fmt.Sprintf("نأسف، تم رفض طلبك رقم %d.", orderID),
			EN: fmt.Sprintf("We are sorry, your order #%d was rejected.", orderID),
		})
	}

	s.logger.Info("order reviewed",
		slog.Int64("order_id", orderID),
		slog.Bool("accepted", accept),
		slog.Int64("reviewer_id", actor.UserID))
	return s.repo.GetOrder(ctx, orderID)
}

func (s *Service) requireReviewer(ctx context.Context, actor shared.Identity, order *Order) error {
	if actor.IsStaff {
		return nil
	}
	if actor.Role == shared.RoleServiceProvider {
		providerID, err := s.providers.ProviderIDForUser(ctx, actor.UserID)
		if err != nil {
			return err
		}
		for _, item := range order.Items {
			if item.ProviderID == providerID {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: only staff or the selling provider may review", httpx.ErrForbidden)
}

func (s *Service) notify(ctx context.Context, userID int64, content i18n.Localized) {
	if err := s.notifier.Notify(ctx, userID, content); err != nil {
		s.logger.Warn("notify buyer", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}

// Rejections lists the acting buyer's rejection records.
func (s *Service) Rejections(ctx context.Context, userID int64, unreadOnly bool) ([]Rejection, error) {
	return s.repo.ListRejections(ctx, userID, unreadOnly)
}

// MarkRejectionRead flips the read flag on the buyer's rejection.
func (s *Service) MarkRejectionRead(ctx context.Context, userID, rejectionID int64) error {
	return s.repo.MarkRejectionRead(ctx, userID, rejectionID)
}
