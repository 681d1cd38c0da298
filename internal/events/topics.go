package events

const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status.changed"
	TopicOrderCancelled     = "order.cancelled"
	TopicCheckoutRejected   = "checkout.rejected"
)

// Partition key = order_id so all events of one order keep their order.
// Rejections have no order; they partition by user instead.
func PartitionKey(id string) []byte { return []byte(id) }
