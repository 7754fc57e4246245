// Package session owns the authenticated-user/profile lifecycle for the
// ResQ client.
//
// The Controller bootstraps from the persisted session (racing the fetch
// against a timeout so a cold start can never hang), subscribes to the
// backend's session-change stream, and loads or lazily creates the user's
// profile with bounded retries. When every attempt fails it synthesizes a
// profile from local session data instead of surfacing an error: the
// application keys on the profile's role for access control and a usable
// object beats a blocked screen.
//
// State machine:
//
//	Uninitialized → Bootstrapping → {LoggedOut | LoggedInWithProfile}
//
// with sign-out and session-change events cycling between the two terminal
// groups for the lifetime of the process.
package session
