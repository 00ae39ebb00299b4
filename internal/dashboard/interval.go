package dashboard

import (
	"math"
	"time"
)

// MinUnconfirmedInterval is the shortest interval applied without confirmation.
const MinUnconfirmedInterval = 30 * time.Second

// DefaultInterval is the polling period used when none is configured.
const DefaultInterval = 300 * time.Second

// maxIntervalSeconds bounds intervals to what a time.Duration can hold.
const maxIntervalSeconds = float64(math.MaxInt64) / float64(time.Second)

// ValidateInterval turns a user-entered number of seconds into a duration.
// Values under MinUnconfirmedInterval need confirmed set.
func ValidateInterval(seconds float64, confirmed bool) (time.Duration, error) {
	if math.IsNaN(seconds) || seconds <= 0 || seconds >= maxIntervalSeconds {
		return 0, ErrInvalidInterval
	}
	d := time.Duration(seconds * float64(time.Second))
	if d <= 0 {
		return 0, ErrInvalidInterval
	}
	if d < MinUnconfirmedInterval && !confirmed {
		return 0, ErrConfirmationRequired
	}
	return d, nil
}
