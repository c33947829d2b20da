// Package auth issues and validates the bearer tokens that identify callers.
//
// # Overview
//
// Access tokens are HS256-signed JWTs carrying the user ID and email.
// They only establish identity: roles are never embedded in the token,
// memberships are read from the database on every request so a revoked
// role takes effect immediately.
//
//	tm, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
//	token, expiresAt, err := tm.Issue(user.ID, user.Email)
//	claims, err := tm.Validate(token)
//
// Validation failures are apperr Unauthenticated errors.
//
// # Related Packages
//
//   - pkg/middleware: Bearer token extraction and caller resolution
//   - pkg/board: AccountService.Login issues tokens
package auth
