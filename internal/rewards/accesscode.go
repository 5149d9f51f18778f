package rewards

import (
	"fmt"
	"time"
)

// AccessCode returns the shared code gating destructive admin operations for
// the day containing now. The code is derived purely from the calendar date,
// day zero padded, month and year not, so it rotates every 24 hours with no
// revocation. It is a cosmetic gate, not a security boundary; anyone who knows
// the scheme can compute it.
func AccessCode(now time.Time) string {
	return fmt.Sprintf("%02d-%d-%d", now.Day(), int(now.Month()), now.Year())
}

// CheckAccessCode compares a caller supplied code against the code for now.
// Only an exact match passes.
func CheckAccessCode(now time.Time, code string) bool {
	return len(code) > 0 && code == AccessCode(now)
}
