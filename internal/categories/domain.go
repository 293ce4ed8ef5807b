package categories

import (
	"time"

	"github.com/sehaty-app/sehaty/internal/i18n"
)

// Category is a node in the marketplace taxonomy. Titles are stored in
// both languages; listings localize at the edge.
type Category struct {
	ID        int64     `json:"id"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	TitleAR   string    `json:"title_ar"`
	TitleEN   string    `json:"title_en"`
	CreatedAt time.Time `json:"created_at"`
}

// Title returns the bilingual title pair.
func (c Category) Title() i18n.Localized {
	return i18n.Localized{AR: c.TitleAR, EN: c.TitleEN}
}

// Node is a localized tree entry served to storefront clients.
type Node struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Children []*Node `json:"children,omitempty"`
}
