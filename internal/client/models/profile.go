package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Role classifies what a user may do in the application. Route access
// control keys on this value, so a profile must always carry a valid role.
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

// Profile is the application-level user record persisted by the hosted data
// backend, keyed by the session's user identifier.
type Profile struct {
	ID                string          `json:"id"`
	FullName          string          `json:"full_name"`
	Email             string          `json:"email"`
	Phone             string          `json:"phone,omitempty"`
	Role              Role            `json:"role"`
	City              string          `json:"city"`
	Status            string          `json:"status"`
	Points            int             `json:"points"`
	ReportsFiled      int             `json:"reports_filed"`
	ReportsResolved   int             `json:"reports_resolved"`
	AreaID            string          `json:"area_id,omitempty"`
	Language          string          `json:"language,omitempty"`
	NotificationPrefs json.RawMessage `json:"notification_prefs,omitempty"`
	AvatarURL         string          `json:"avatar_url,omitempty"`
	LastLoginAt       *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// DisplayNameFor derives a human-readable name for a session: the name
// provided at sign-up if present, otherwise the local part of the email.
func DisplayNameFor(s *Session) string {
	if name := s.MetadataString("full_name"); name != "" {
		return name
	}
	if at := strings.Index(s.Email, "@"); at > 0 {
		return s.Email[:at]
	}
	return s.Email
}

// FallbackProfile synthesizes a usable profile purely from local session
// data. It is used when the backend profile cannot be fetched: the rest of
// the application keys on Role for access control and must never block on a
// missing profile.
func FallbackProfile(s *Session, city string, now time.Time) *Profile {
	return &Profile{
		ID:        s.UserID,
		FullName:  DisplayNameFor(s),
		Email:     s.Email,
		Role:      RoleCitizen,
		City:      city,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
}
