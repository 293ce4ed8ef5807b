package auth

import "time"

// User represents an account. Accounts start inactive and stay that way
// until the email confirmation round-trip completes.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EmailConfirmation holds the one-shot token mailed on signup.
type EmailConfirmation struct {
	UserID    int64
	Token     string
	ExpiresAt time.Time
}

// PasswordReset holds the short numeric code mailed on a reset request.
type PasswordReset struct {
	UserID    int64
	Code      string
	ExpiresAt time.Time
}

// EmailChange records a pending address change awaiting confirmation
// from the new address.
type EmailChange struct {
	UserID    int64
	NewEmail  string
	Token     string
	ExpiresAt time.Time
}
