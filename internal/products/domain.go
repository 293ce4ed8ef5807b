package products

import (
	"time"

	"github.com/sehaty-app/sehaty/internal/i18n"
)

// Product is a sellable item listed by a provider. Titles and
// descriptions are stored in both languages.
type Product struct {
	ID            int64     `json:"id"`
	ProviderID    int64     `json:"provider_id"`
	CategoryID    int64     `json:"category_id"`
	TitleAR       string    `json:"title_ar"`
	TitleEN       string    `json:"title_en"`
	DescriptionAR string    `json:"description_ar"`
	DescriptionEN string    `json:"description_en"`
	Price         float64   `json:"price"`
	DiscountPct   float64   `json:"discount_pct"`
	Stock         int       `json:"stock"`
	AvgRating     float64   `json:"avg_rating"`
	RatingCount   int       `json:"rating_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Title returns the bilingual title pair.
func (p Product) Title() i18n.Localized {
	return i18n.Localized{AR: p.TitleAR, EN: p.TitleEN}
}

// Description returns the bilingual description pair.
func (p Product) Description() i18n.Localized {
	return i18n.Localized{AR: p.DescriptionAR, EN: p.DescriptionEN}
}

// FinalPrice applies the discount.
func (p Product) FinalPrice() float64 {
	return p.Price * (1 - p.DiscountPct/100)
}

// Rate is one user's score for a product. One row per (user, product);
// rating again replaces the previous score.
type Rate struct {
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows product listings.
type Filter struct {
	ProviderID int64
	CategoryID int64
	Search     string
}
