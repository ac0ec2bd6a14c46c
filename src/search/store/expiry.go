package store

import "time"

// expiry returns when an entry written at now stops being served, or nil
// when ttl is not positive.
func expiry(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := now.UTC().Add(ttl)
	return &t
}

// expired reports whether an entry with the given deadline is stale at now.
func expired(deadline *time.Time, now time.Time) bool {
	return deadline != nil && !now.Before(*deadline)
}
