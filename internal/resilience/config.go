package resilience

import (
	"time"
)

// FromNavigationConfig converts the browser navigation settings to a linear
// RetryConfig.
func FromNavigationConfig(attempts, backoffMs int) RetryConfig {
	if attempts <= 0 {
		attempts = 3
	}
	if backoffMs <= 0 {
		backoffMs = 1000
	}
	return NavigationRetryConfig(attempts, time.Duration(backoffMs)*time.Millisecond)
}
