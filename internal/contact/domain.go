package contact

import "time"

// Message is a contact-us submission. ReadBy records the staff member
// who handled it, zero while untouched.
type Message struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	ReadBy    int64     `json:"read_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
