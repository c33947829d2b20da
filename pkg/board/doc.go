// Package board wires the permission engine, the visibility filter and the
// tenant resolver to the stores for each job board use case.
//
// Every service method takes the caller explicitly. Denied decisions are
// counted, logged at debug with their reason code, and written to the audit
// trail as access-denied events. A job the caller may not view is reported
// as not found, never as forbidden, so private jobs do not leak their
// existence.
//
// Lifecycle notifications go through a Notifier. The Dispatcher from
// pkg/notify can be used directly (synchronous) or wrapped in an
// AsyncNotifier so delivery never holds up the request.
package board
