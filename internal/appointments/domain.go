package appointments

import "time"

// Appointment lifecycle.
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

// Appointment books a time slot against a provider's service.
type Appointment struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ServiceID   int64     `json:"service_id"`
	ProviderID  int64     `json:"provider_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Rejection records why an appointment was turned down. The booker can
// mark it read once seen.
type Rejection struct {
	ID            int64     `json:"id"`
	AppointmentID int64     `json:"appointment_id"`
	Reason        string    `json:"reason"`
	Read          bool      `json:"read"`
	RejectedBy    int64     `json:"rejected_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// Filter narrows appointment listings.
type Filter struct {
	UserID     int64
	ProviderID int64
	Status     string
}
