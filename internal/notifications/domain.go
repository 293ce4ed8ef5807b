package notifications

import (
	"time"

	"github.com/sehaty-app/sehaty/internal/i18n"
)

// Notification carries a bilingual message to a user. Both translations
// are stored so the reader's language is applied at render time.
type Notification struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	Content   i18n.Localized `json:"-"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}

// View is a notification rendered in one language.
type View struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Render localizes a notification for the given language code.
func (n Notification) Render(lang string) View {
	return View{
		ID:        n.ID,
		Content:   n.Content.Pick(lang),
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
