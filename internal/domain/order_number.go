package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

const DefaultOrderNumberPrefix = "GRJ"

// NewOrderNumber builds prefix + unix millis + a zero-padded three digit random suffix.
// Collisions are possible under load; the unique index on orders.order_number is the only guard.
func NewOrderNumber(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%d%03d", prefix, now.UnixMilli(), rand.IntN(1000))
}

var orderNumberDigits = regexp.MustCompile(`^[0-9]{16}$`)

// ValidOrderNumber checks that s is prefix followed by a 13 digit millisecond timestamp and three suffix digits.
func ValidOrderNumber(prefix, s string) bool {
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return false
	}
	return orderNumberDigits.MatchString(s[len(prefix):])
}
