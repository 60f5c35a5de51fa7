package redisx

import "time"

const (
	// Cache order: order:{order_id} -> JSON order (header + items)
	KeyOrder = "order:%d"
)

var TTLOrderCache = 5 * time.Minute
