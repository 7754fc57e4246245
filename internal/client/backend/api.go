package backend

import (
	"context"

	"github.com/resqlink/resq-go/internal/client/models"
)

// AuthEvent names a change on the session-change stream.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// SessionListener receives session-change notifications. A nil session means
// "signed out". Listeners are invoked on their own goroutine and must be
// safe to call at any time after subscription.
type SessionListener func(event AuthEvent, session *models.Session)

// SignUpOptions carries optional sign-up parameters.
type SignUpOptions struct {
	// Metadata is free-form user metadata stored with the account
	// (e.g. full_name, city).
	Metadata map[string]any
	// RedirectURL is where the confirmation email sends the user.
	RedirectURL string
}

// AuthAPI is the authentication capability required from the hosted backend.
//
// Whether SignUp yields a session immediately depends on the backend's
// email-confirmation policy; callers must not assume either way.
type AuthAPI interface {
	// GetSession returns the currently persisted session, refreshing it if
	// expired, or (nil, nil) when no session is stored.
	GetSession(ctx context.Context) (*models.Session, error)

	// OnSessionChange subscribes to the session-change stream and returns an
	// unsubscribe function.
	OnSessionChange(fn SessionListener) (unsubscribe func())

	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password string, opts SignUpOptions) (*models.Session, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email, redirectURL string) error
	UpdatePassword(ctx context.Context, newPassword string) error
}

// ProfileAPI is the profile data capability: look up the profile by session
// identifier, creating it with defaults when absent.
type ProfileAPI interface {
	GetOrCreateProfile(ctx context.Context, session *models.Session) (*models.Profile, error)
}

// CivicAPI exposes the hosted relational data the application browses and
// writes: complaints, incidents, events, rewards, the service directory,
// and volunteer squad requests.
type CivicAPI interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) (*models.Complaint, error)
	ListMyComplaints(ctx context.Context, userID string) ([]models.Complaint, error)
	AddComment(ctx context.Context, comment *models.ComplaintComment) (*models.ComplaintComment, error)
	ListIncidents(ctx context.Context) ([]models.Incident, error)
	ListEvents(ctx context.Context) ([]models.CivicEvent, error)
	ListRewards(ctx context.Context) ([]models.RewardItem, error)
	RedeemReward(ctx context.Context, userID, rewardID string) error
	ListServices(ctx context.Context) ([]models.PublicService, error)
	CreateSquadRequest(ctx context.Context, r *models.SquadRequest) (*models.SquadRequest, error)
}

// StorageAPI is the hosted object-storage capability used for complaint
// photos and avatars.
type StorageAPI interface {
	// Upload stores data under bucket/path and returns a public URL.
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
}
