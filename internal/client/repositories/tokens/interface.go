// Package tokens persists the auth token pair between runs, so a user stays
// signed in across restarts.
package tokens

import "context"

type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	// SetPair stores the access and refresh tokens atomically, so a crash
	// mid-write cannot leave a mismatched pair behind.
	SetPair(ctx context.Context, accessToken, refreshToken string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Well-known keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)
