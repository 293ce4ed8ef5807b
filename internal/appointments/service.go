package appointments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

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

// Service wraps booking rules.
type Service struct {
	repo      Repository
	providers ProviderSource
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, providers ProviderSource, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, providers: providers, notifier: notifier, logger: logger, now: time.Now}
}

// Book creates a pending appointment for the acting user.
func (s *Service) Book(ctx context.Context, userID, serviceID int64, scheduledAt time.Time, note string) (*Appointment, error) {
	if !scheduledAt.After(s.now()) {
		return nil, fmt.Errorf("%w: appointment must be in the future", httpx.ErrValidation)
	}
	id, err := s.repo.Create(ctx, &Appointment{
		UserID:      userID,
		ServiceID:   serviceID,
		ScheduledAt: scheduledAt,
		Note:        note,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("appointment booked",
		slog.Int64("appointment_id", id),
		slog.Int64("user_id", userID),
		slog.Int64("service_id", serviceID))
	return s.repo.Get(ctx, id)
}

// Get returns an appointment visible to the booker, the provider or staff.
func (s *Service) Get(ctx context.Context, actor shared.Identity, id int64) (*Appointment, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireVisibility(ctx, actor, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) requireVisibility(ctx context.Context, actor shared.Identity, a *Appointment) error {
	if actor.IsStaff || a.UserID == actor.UserID {
		return nil
	}
	if actor.Role == shared.RoleServiceProvider {
		providerID, err := s.providers.ProviderIDForUser(ctx, actor.UserID)
		if err == nil && providerID == a.ProviderID {
			return nil
		}
	}
	return fmt.Errorf("%w: appointment belongs to another account", httpx.ErrForbidden)
}

// List returns appointments scoped to the actor.
func (s *Service) List(ctx context.Context, actor shared.Identity, status string, page, perPage int) ([]Appointment, shared.Pagination, error) {
	filter := Filter{Status: status}
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

	items, total, err := s.repo.List(ctx, filter, perPage, shared.Offset(page, perPage))
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, int(total)), nil
}

// Review accepts or rejects a pending appointment. Rejection requires a
// reason and notifies the booker.
func (s *Service) Review(ctx context.Context, actor shared.Identity, id int64, accept bool, reason string) (*Appointment, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireReviewer(ctx, actor, a); err != nil {
		return nil, err
	}

	if accept {
		if err := s.repo.Accept(ctx, id); err != nil {
			return nil, err
		}
		s.notify(ctx, a.UserID, i18n.Localized{
			AR: fmt.Sprintf("تم تأكيد موعدك رقم %d.", id),
			EN: fmt.Sprintf("Your appointment #%d was confirmed.", id),
		})
	} else {
		if reason == "" {
			return nil, fmt.Errorf("%w: rejection requires a reason", httpx.ErrValidation)
		}
		if err := s.repo.Reject(ctx, id, reason, actor.UserID); err != nil {
			return nil, err
		}
		s.notify(ctx, a.UserID, i18n.Localized{
			AR: fmt.Sprintf("نأسف، تم رفض موعدك رقم %d.", id),
			EN: fmt.Sprintf("We are sorry, your appointment #%d was rejected.", id),
		})
	}

	s.logger.Info("appointment reviewed",
		slog.Int64("appointment_id", id),
		slog.Bool("accepted", accept),
		slog.Int64("reviewer_id", actor.UserID))
	return s.repo.Get(ctx, id)
}

func (s *Service) requireReviewer(ctx context.Context, actor shared.Identity, a *Appointment) error {
	if actor.IsStaff {
		return nil
	}
	if actor.Role == shared.RoleServiceProvider {
		providerID, err := s.providers.ProviderIDForUser(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if providerID == a.ProviderID {
			return nil
		}
	}
	return fmt.Errorf("%w: only staff or the booked provider may review", httpx.ErrForbidden)
}

// Cancel lets the booker drop a pending appointment.
func (s *Service) Cancel(ctx context.Context, userID, id int64) error {
	return s.repo.Cancel(ctx, id, userID)
}

func (s *Service) notify(ctx context.Context, userID int64, content i18n.Localized) {
	if err := s.notifier.Notify(ctx, userID, content); err != nil {
		s.logger.Warn("notify booker", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}

// Rejections lists the acting booker's rejection records.
func (s *Service) Rejections(ctx context.Context, userID int64, unreadOnly bool) ([]Rejection, error) {
	return s.repo.ListRejections(ctx, userID, unreadOnly)
}

// MarkRejectionRead flips the read flag on the booker's rejection.
func (s *Service) MarkRejectionRead(ctx context.Context, userID, rejectionID int64) error {
	return s.repo.MarkRejectionRead(ctx, userID, rejectionID)
}
