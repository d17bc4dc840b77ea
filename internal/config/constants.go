package config

import "time"

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Remote logout is best-effort; the session is torn down regardless.
const LogoutTimeout = 5 * time.Second

// Default rate limiting
const DefaultRateLimitPerMin = 60
