package services

import (
	"time"

	"github.com/sehaty-app/sehaty/internal/i18n"
)

// Service is a bookable offering listed by a provider, such as a
// consultation or a home visit.
type Service struct {
	ID              int64     `json:"id"`
	ProviderID      int64     `json:"provider_id"`
	CategoryID      int64     `json:"category_id"`
	TitleAR         string    `json:"title_ar"`
	TitleEN         string    `json:"title_en"`
	DescriptionAR   string    `json:"description_ar"`
	DescriptionEN   string    `json:"description_en"`
	Price           float64   `json:"price"`
	DiscountPct     float64   `json:"discount_pct"`
	DurationMinutes int       `json:"duration_minutes"`
	AvgRating       float64   `json:"avg_rating"`
	RatingCount     int       `json:"rating_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Title returns the bilingual title pair.
func (s Service) Title() i18n.Localized {
	return i18n.Localized{AR: s.TitleAR, EN: s.TitleEN}
}

// FinalPrice applies the discount.
func (s Service) FinalPrice() float64 {
	return s.Price * (1 - s.DiscountPct/100)
}

// Rate is one user's score for a service.
type Rate struct {
	UserID    int64     `json:"user_id"`
	ServiceID int64     `json:"service_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows service listings.
type Filter struct {
	ProviderID int64
	CategoryID int64
	Search     string
}
