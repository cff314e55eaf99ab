package redisx

import (
	"fmt"
	"time"
)

const (
	// idem:order:create:{buyer_id}:{external_id} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s:%s"

	// dashboard:{seller_id} -> composed dashboard JSON
	KeyDashboard = "dashboard:%s"

	// dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)

func DashboardKey(sellerID string) string { return fmt.Sprintf(KeyDashboard, sellerID) }

func DedupKey(service, eventID string) string { return fmt.Sprintf(KeyDedup, service, eventID) }

func IdemOrderKey(buyerID, externalID string) string {
	return fmt.Sprintf(KeyIdemOrderCreate, buyerID, externalID)
}
