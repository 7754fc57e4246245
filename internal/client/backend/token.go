package backend

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/resqlink/resq-go/internal/client/models"
)

// sessionFromTokens materializes a Session from a stored token pair by
// decoding the access token's claims. The token is not verified here: the
// backend is the verifier; the client only needs the identity claims it
// already trusts the backend to have signed.
func sessionFromTokens(accessToken, refreshToken string) (*models.Session, error) {
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("decoding access token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", token.Claims)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("access token has no subject")
	}

	s := &models.Session{
		UserID:       sub,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}

	if email, ok := claims["email"].(string); ok {
		s.Email = email
	}
	if md, ok := claims["user_metadata"].(map[string]any); ok {
		s.Metadata = md
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time.UTC()
	}

	return s, nil
}

// expiresAtFrom resolves a token expiry from an explicit expires_in value,
// falling back to the access token's exp claim.
func expiresAtFrom(now time.Time, expiresIn int64, fallback time.Time) time.Time {
	if expiresIn > 0 {
		return now.Add(time.Duration(expiresIn) * time.Second).UTC()
	}
	return fallback
}
