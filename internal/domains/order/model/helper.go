package model

import (
	"fmt"
	"math/rand"
	"time"
)

// =====================================================
// ORDER CODE GENERATION
// =====================================================

// GenerateOrderCode builds a human-readable order code from the
// creation instant plus a random 4-digit suffix, e.g. ORD2603151245 +
// "0831". Uniqueness is enforced by the database; on the rare
// collision the insert fails and the caller retries.
func GenerateOrderCode(now time.Time) string {
	return fmt.Sprintf("ORD%s%04d", now.Format("0601021504"), rand.Intn(10000))
}
