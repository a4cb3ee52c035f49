package redisx

import "time"

const (
	// Order status cache: order_status:{order_id} -> {"status":"..."}
	// Written through by the API on every transition, warmed by the KDS
	// follower from the kafka topics.
	KeyOrderStatus = "order_status:%s"

	// Consumer-side event dedup: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
