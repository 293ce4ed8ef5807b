package orders

import "time"

// Order lifecycle. Orders are created PENDING at checkout and move
// exactly once to ACCEPTED or REJECTED.
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

// CartItem is a line in a user's cart. Quantities merge on re-add.
type CartItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is a checked-out cart. Totals and unit prices are snapshots
// taken at checkout; later product edits never change them.
type Order struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Status    string      `json:"status"`
	Total     float64     `json:"total"`
	Items     []OrderItem `json:"items,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem is one product line inside an order.
type OrderItem struct {
	ID         int64   `json:"id"`
	OrderID    int64   `json:"order_id"`
	ProductID  int64   `json:"product_id"`
	ProviderID int64   `json:"provider_id"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	Subtotal   float64 `json:"subtotal"`
}

// Rejection records why an order was refused. The buyer flips the read
// flag when they see it.
type Rejection struct {
	ID         int64     `json:"id"`
	OrderID    int64     `json:"order_id"`
	Reason     string    `json:"reason"`
	Read       bool      `json:"read"`
	RejectedBy int64     `json:"rejected_by"`
	CreatedAt  time.Time `json:"created_at"`
}
