package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/resqlink/resq-go/internal/client/models"
	"github.com/resqlink/resq-go/internal/client/repositories/tokens"
)

// tokenResponse is the auth endpoint's grant response. The user object is
// present on password and refresh grants; sign-up without auto-confirm
// returns only the user.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID           string         `json:"id"`
		Email        string         `json:"email"`
		UserMetadata map[string]any `json:"user_metadata"`
	} `json:"user"`
}

// GetSession returns the persisted session, transparently exchanging the
// refresh token when the access token has expired. (nil, nil) means no one
// is signed in. A refresh that fails because the backend is unreachable is
// returned as an error so the caller can decide how long to wait.
func (c *RESTClient) GetSession(ctx context.Context) (*models.Session, error) {
	if s := c.currentSession(); s != nil {
		if !s.Expired(c.now()) {
			return s, nil
		}
		return c.refreshSession(ctx, s.RefreshToken)
	}

	if c.store == nil {
		return nil, nil
	}

	access, err := c.store.Get(ctx, tokens.KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("reading stored session: %w", err)
	}
	if access == "" {
		return nil, nil
	}
	refresh, err := c.store.Get(ctx, tokens.KeyRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("reading stored session: %w", err)
	}

	s, err := sessionFromTokens(access, refresh)
	if err != nil {
		// Corrupt store entry; drop it rather than failing every boot.
		c.logger.Warn(ctx, "discarding unreadable stored session", "error", err)
		_ = c.store.Clear(ctx)
		return nil, nil
	}

	if s.Expired(c.now()) {
		if refresh == "" {
			_ = c.store.Clear(ctx)
			return nil, nil
		}
		return c.refreshSession(ctx, refresh)
	}

	c.setSession(ctx, s)
	return s, nil
}

// OnSessionChange registers fn on the session-change stream. Events are
// delivered on a fresh goroutine per listener. The returned function
// unsubscribes; it is safe to call more than once.
func (c *RESTClient) OnSessionChange(fn SessionListener) func() {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *RESTClient) emit(event AuthEvent, s *models.Session) {
	c.subMu.Lock()
	listeners := make([]SessionListener, 0, len(c.subs))
	for _, fn := range c.subs {
		listeners = append(listeners, fn)
	}
	c.subMu.Unlock()

	for _, fn := range listeners {
		go fn(event, s)
	}
}

func (c *RESTClient) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	q := url.Values{"grant_type": []string{"password"}}
	body := map[string]string{"email": email, "password": password}

	var tr tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token", q, body, &tr, false); err != nil {
		return nil, err
	}

	s, err := c.adoptTokenResponse(ctx, &tr)
	if err != nil {
		return nil, err
	}
	c.emit(EventSignedIn, s)
	return s, nil
}

func (c *RESTClient) SignUp(ctx context.Context, email, password string, opts SignUpOptions) (*models.Session, error) {
	q := url.Values{}
	if opts.RedirectURL != "" {
		q.Set("redirect_to", opts.RedirectURL)
	}
	body := map[string]any{"email": email, "password": password}
	if len(opts.Metadata) > 0 {
		body["data"] = opts.Metadata
	}

	var tr tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", q, body, &tr, false); err != nil {
		return nil, err
	}

	// With email confirmation enabled the backend returns no tokens; the
	// session arrives on a later sign-in.
	if tr.AccessToken == "" {
		return nil, nil
	}

	s, err := c.adoptTokenResponse(ctx, &tr)
	if err != nil {
		return nil, err
	}
	c.emit(EventSignedIn, s)
	return s, nil
}

// SignOut revokes the session server-side and always clears local token
// state, then emits a signed-out event. The revocation outcome is returned
// as-is; callers decide whether an abort matters.
func (c *RESTClient) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil, true)

	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	if c.store != nil {
		if cerr := c.store.Clear(context.WithoutCancel(ctx)); cerr != nil {
			c.logger.Warn(ctx, "clearing stored session", "error", cerr)
		}
	}
	c.emit(EventSignedOut, nil)

	return err
}

func (c *RESTClient) SendPasswordReset(ctx context.Context, email, redirectURL string) error {
	q := url.Values{}
	if redirectURL != "" {
		q.Set("redirect_to", redirectURL)
	}
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/auth/v1/recover", q, body, nil, false)
}

func (c *RESTClient) UpdatePassword(ctx context.Context, newPassword string) error {
	body := map[string]string{"password": newPassword}
	return c.do(ctx, http.MethodPut, "/auth/v1/user", nil, body, nil, true)
}

// refreshSession exchanges a refresh token for a fresh pair and emits a
// token-refreshed event.
func (c *RESTClient) refreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	q := url.Values{"grant_type": []string{"refresh_token"}}
	body := map[string]string{"refresh_token": refreshToken}

	var tr tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token", q, body, &tr, false); err != nil {
		return nil, err
	}

	s, err := c.adoptTokenResponse(ctx, &tr)
	if err != nil {
		return nil, err
	}
	c.emit(EventTokenRefreshed, s)
	return s, nil
}

// adoptTokenResponse turns a grant response into the client's current
// session and persists the token pair.
func (c *RESTClient) adoptTokenResponse(ctx context.Context, tr *tokenResponse) (*models.Session, error) {
	s, err := sessionFromTokens(tr.AccessToken, tr.RefreshToken)
	if err != nil {
		return nil, err
	}
	if tr.User.ID != "" {
		s.UserID = tr.User.ID
		s.Email = tr.User.Email
		if tr.User.UserMetadata != nil {
			s.Metadata = tr.User.UserMetadata
		}
	}
	s.ExpiresAt = expiresAtFrom(c.now(), tr.ExpiresIn, s.ExpiresAt)

	c.setSession(ctx, s)
	return s, nil
}

func (c *RESTClient) setSession(ctx context.Context, s *models.Session) {
	c.mu.Lock()
	copied := *s
	c.session = &copied
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SetPair(ctx, s.AccessToken, s.RefreshToken); err != nil {
			c.logger.Warn(ctx, "persisting token pair", "error", err)
		}
	}
}

// StartAutoRefresh keeps the access token fresh in the background, checking
// every interval and refreshing once expiry is within two intervals. It
// returns when ctx is cancelled.
func (c *RESTClient) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s := c.currentSession()
			if s == nil || s.RefreshToken == "" {
				continue
			}
			if s.ExpiresAt.IsZero() || c.now().Add(2*interval).Before(s.ExpiresAt) {
				continue
			}
			rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			_, err := c.refreshSession(rctx, s.RefreshToken)
			cancel()
			if err != nil {
				c.logger.Warn(ctx, "token refresh failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
