package payments

import (
	"fmt"
	"math/rand"
	"time"
)

// NewTransactionID builds a gateway-style transaction reference: a TXN prefix,
// the attempt time in unix milliseconds, and a random suffix to keep
// same-millisecond attempts distinct.
func NewTransactionID(now time.Time, randInt func(int64) int64) string {
	if randInt == nil {
		randInt = rand.Int63n
	}
	return fmt.Sprintf("TXN%d%06d", now.UnixMilli(), randInt(1_000_000))
}
