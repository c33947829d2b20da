// Package middleware provides HTTP middleware for caller identification and
// rate limiting.
//
// # Ordering
//
// The caller chain has strict ordering (outer to inner):
//
//  1. AuthMiddleware - validates the bearer token and stores the user ID;
//     requests without a token continue as anonymous
//  2. CallerMiddleware - loads the caller's memberships fresh from the
//     database and stores an rbac.Caller in the context
//  3. RateLimitMiddleware - keys on the caller's user ID, or the client IP
//     for anonymous callers
//
// Handlers read the caller with CallerFrom(ctx). A request whose chain did
// not run CallerMiddleware is treated as anonymous.
//
// # Rate Limiting
//
// MemoryRateLimiter is a per-process token bucket; RedisRateLimiter shares
// a fixed window counter across instances and fails open on Redis errors.
package middleware
