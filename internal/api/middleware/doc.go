// Package middleware provides the gin middleware shared by the IDE API and
// the legacy file server.
//
// Middleware stack includes:
//   - RequestID: X-Request-ID propagation (google/uuid)
//   - Logger: one zap line per request
//   - Recovery: panic recovery with a JSON 500
//   - CORS: cross-origin resource sharing with configurable origins
//   - RateLimit: per-IP token bucket rate limiting with idle eviction
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Logger(logger), middleware.Recovery(logger))
//	router.Use(middleware.CORS(middleware.CORSConfigFor(cfg.Server.AllowedOrigins)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
