package users

import "time"

// User is the account row as the management surface sees it.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileUpdate carries the fields a user may edit on their own account.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Phone     string
}

// Filter narrows admin listings.
type Filter struct {
	Role   string
	Active *bool
	Search string
}
