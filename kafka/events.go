package kafka

import (
	"time"

	orders "github.com/tair/storefront/internal/orders/domain"
)

// OrderPlacedEvent is emitted once per checkout.
type OrderPlacedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Namespace string       `json:"namespace,omitempty"`
	Order     orders.Order `json:"order"`
	Timestamp time.Time    `json:"timestamp"`
}

// Event types
const (
	EventTypeOrderPlaced = "order.placed"
)

// Kafka topics
const (
	TopicOrderPlaced = "storefront-order-placed"
)
