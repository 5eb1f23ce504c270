package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds (86400 seconds = 24 hours)
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// RememberedRefreshTokenTTL is the refresh token time-to-live when the
	// caller asked to stay signed in (30 days)
	RememberedRefreshTokenTTL = 30 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// Login throttling defaults. These seed the configuration layer; runtime
// values come from config.SecurityConfig.
const (
	// DefaultMaxLoginAttempts is the number of consecutive password failures
	// tolerated before an account is locked
	DefaultMaxLoginAttempts = 5

	// DefaultLockoutDuration is how long a locked account stays locked
	DefaultLockoutDuration = 15 * time.Minute

	// DefaultFailureResetWindow is how long after the last failure the
	// counter is treated as stale and restarted from zero
	DefaultFailureResetWindow = 30 * time.Minute
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Profile constants
const (
	// DefaultProfilePhoto is the sentinel photo assigned to new accounts
	DefaultProfilePhoto = "default.jpg"

	// ProfilePhotoSize is the square edge, in pixels, profile photos are
	// resized to on upload
	ProfilePhotoSize = 256
)
