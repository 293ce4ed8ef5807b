package deliveries

import "time"

// Delivery lifecycle.
const (
	StatusPending   = "PENDING"
	StatusShipped   = "SHIPPED"
	StatusDelivered = "DELIVERED"
)

// Delivery tracks the shipment of one accepted order item.
type Delivery struct {
	ID          int64     `json:"id"`
	OrderItemID int64     `json:"order_item_id"`
	Status      string    `json:"status"`
	Courier     string    `json:"courier"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemMeta describes the order item a delivery is attached to.
type ItemMeta struct {
	OrderID     int64
	ProviderID  int64
	BuyerID     int64
	OrderStatus string
}
