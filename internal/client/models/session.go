// Package models defines client-side data models used by the ResQ client.
package models

import "time"

// Session is the authenticated-identity handle issued by the hosted auth
// backend. The client never creates sessions itself; it receives them from
// sign-in/sign-up responses or restores them from the local token store.
type Session struct {
	// UserID is the backend-assigned unique user identifier (a UUID).
	UserID string

	// Email the account was registered with.
	Email string

	// AccessToken is the bearer token attached to data/storage requests.
	AccessToken string

	// RefreshToken is exchanged for a new token pair when AccessToken expires.
	RefreshToken string

	// ExpiresAt is the access token expiry in UTC.
	ExpiresAt time.Time

	// Metadata carries free-form user metadata from the auth backend
	// (e.g. the display name provided at sign-up).
	Metadata map[string]any
}

// Expired reports whether the access token is past its expiry at t.
func (s *Session) Expired(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && !t.Before(s.ExpiresAt)
}

// MetadataString returns the string value of a metadata key, or "" if the
// key is absent or not a string.
func (s *Session) MetadataString(key string) string {
	if s.Metadata == nil {
		return ""
	}
	v, ok := s.Metadata[key].(string)
	if !ok {
		return ""
	}
	return v
}
