// Package async provides safe execution of background tasks.
//
// SafeGo runs a function in its own goroutine with panic recovery, a
// per-task timeout and structured logging of failures. The task outlives
// the request that started it: cancellation of the parent context is not
// propagated, request-scoped values are.
//
//	<-async.SafeGo(ctx, logger, 10*time.Second, "notification dispatch", fn)
//
// # Use Cases
//
// Notification dispatch after job edits, so a slow gateway never delays
// the HTTP response.
//
// # Related Packages
//
//   - pkg/board: dispatches job notifications through SafeGo
//   - pkg/notify: the dispatcher being run
package async
