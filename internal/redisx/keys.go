package redisx

import "time"

const (
	// Cache of an order's current status: order_status:{order_id} ->
	// {"status":"..."}; invalidated on every transition.
	KeyOrderStatus = "order_status:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
)
