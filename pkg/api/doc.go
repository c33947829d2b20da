// Package api is the JSON HTTP boundary of the job board.
//
// Handlers parse the request, take the caller resolved by the middleware
// pipeline and delegate to the board services. Errors are written through
// httputil.WriteAppError, which maps apperr kinds to status codes:
//
//	unauthenticated   401
//	forbidden         403
//	not_found         404
//	conflict          409
//	validation        400
//	no_active_tenant  428
//	internal          500
//
// Routes live under /api/v1; /healthz, /readyz and /metrics are mounted
// when the matching options are given.
package api
