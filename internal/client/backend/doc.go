// Package backend defines the capability set the ResQ client requires from
// its hosted backend, and a concrete REST implementation of it.
//
// # Overview
//
// The package provides:
//  1. Transport-agnostic capability contracts: AuthAPI (sessions, sign-in,
//     sign-up, sign-out, password operations, session-change stream),
//     ProfileAPI (get-or-create profile), CivicAPI (complaints, incidents,
//     events, rewards, service directory, squad requests), and StorageAPI
//     (object uploads).
//  2. A concrete RESTClient that speaks the hosted service's HTTP surface
//     (/auth/v1, /rest/v1, /storage/v1), persists the token pair through a
//     tokens.Repository, emits session-change events to subscribers, and
//     refreshes expired tokens transparently.
//
// # Error Handling
//
// Failures are categorized structurally via Kind (see KindOf, IsAborted,
// IsUnavailable) rather than by matching message text. Credential failures
// keep the backend's wording in Error.Message so the UI can show it
// verbatim.
//
// # Concurrency
//
// RESTClient is safe for concurrent use. Session-change listeners run on
// their own goroutines and must not assume ordering with respect to the
// call that triggered the event.
package backend
