// Package utils provides utility functions for the application.
package utils

import "time"

// Redis key prefixes
const (
	// DispatchLockKeyPrefix is the prefix for the per-record publish
	// dispatch lock. The full key is the prefix plus the scheduled post ID.
	DispatchLockKeyPrefix = "amaterasu:publish:lock:"

	// PublishLogKeyPrefix is the prefix for the short-lived record of a
	// successful publish. The full key is the prefix plus the scheduled
	// post UUID; the value is the external post ID.
	PublishLogKeyPrefix = "amaterasu:publish:log:"

	// CacheHealthKey is written by the cache health monitor
	CacheHealthKey = "amaterasu:cache:health"
)

// DispatchLockTTL bounds how long a worker may hold a dispatch lock. A
// crashed worker releases its claim after this window; the record itself
// stays in publishing and needs operator attention, the lock only prevents
// a second dispatch while the first may still be in flight.
const DispatchLockTTL = 10 * time.Minute

// Pagination defaults
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
const CORSMaxAge = 86400
