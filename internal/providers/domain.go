package providers

import "time"

// Account status of a provider profile. New profiles wait for an admin
// decision before their catalog becomes visible.
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

// Provider is a service provider's business profile.
type Provider struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	BusinessName  string    `json:"business_name"`
	IBAN          string    `json:"iban"`
	AccountStatus string    `json:"account_status"`
	ApprovedBy    *int64    `json:"approved_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Location is one physical branch of a provider.
type Location struct {
	ID          int64     `json:"id"`
	ProviderID  int64     `json:"provider_id"`
	Label       string    `json:"label"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	OpeningTime string    `json:"opening_time"`
	ClosingTime string    `json:"closing_time"`
	CreatedAt   time.Time `json:"created_at"`
}

// NearbyLocation is a branch row with the computed distance in km.
type NearbyLocation struct {
	Location
	BusinessName string  `json:"business_name"`
	DistanceKM   float64 `json:"distance_km"`
}

// ProfileRequest is a pending edit to an accepted profile. Business
// details only change after an admin approves the request.
type ProfileRequest struct {
	ID           int64     `json:"id"`
	ProviderID   int64     `json:"provider_id"`
	BusinessName string    `json:"business_name"`
	IBAN         string    `json:"iban"`
	Status       string    `json:"status"`
	ReviewedBy   *int64    `json:"reviewed_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
