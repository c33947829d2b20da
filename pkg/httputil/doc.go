// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, job)
//	httputil.WriteAppError(w, logger, err)
//
// WriteAppError maps apperr kinds to status codes: Unauthenticated 401,
// Forbidden 403, NotFound 404, Conflict 409, Validation 400,
// NoActiveTenant 428 and everything else 500. The body carries the kind,
// the message and the decision reason code.
//
// # Request Parsing
//
//	var req CreateJobRequest
//	if err := httputil.ParseJSON(r, &req); err != nil {
//		httputil.WriteAppError(w, logger, err)
//		return
//	}
//	id, err := httputil.ParsePathInt64(r, "id")
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		httputil.LoggingMiddleware,
//	)(router)
package httputil
