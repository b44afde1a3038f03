package domain

const (
	EventOrderSettled   = "order.settled"
	EventOrderCollected = "order.collected"
	EventOrderCancelled = "order.cancelled"
)

// OutboxEvent is an order lifecycle event waiting to be relayed.
type OutboxEvent struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
}
