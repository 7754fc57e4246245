package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqlink/resq-go/internal/client/models"
)

type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemStore() *memStore { return &memStore{m: make(map[string]string)} }

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key], nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *memStore) SetPair(_ context.Context, accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m["access_token"] = accessToken
	s.m["refresh_token"] = refreshToken
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *memStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[string]string)
	return nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

func grantResponse(t *testing.T, userID, email string, expiresIn int64) string {
	t.Helper()
	access := signTestToken(t, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	return fmt.Sprintf(`{"access_token":%q,"refresh_token":"refresh-1","expires_in":%d,"user":{"id":%q,"email":%q}}`,
		access, expiresIn, userID, email)
}

func TestSignInWithPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])

		fmt.Fprint(w, grantResponse(t, "user-1", "ada@example.com", 3600))
	}))
	defer srv.Close()

	store := newMemStore()
	c := NewRESTClient(srv.URL, "anon-key", WithTokenStore(store))

	events := make(chan AuthEvent, 1)
	c.OnSessionChange(func(ev AuthEvent, s *models.Session) { events <- ev })

	s, err := c.SignInWithPassword(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "ada@example.com", s.Email)
	assert.False(t, s.Expired(time.Now()))

	select {
	case ev := <-events:
		assert.Equal(t, EventSignedIn, ev)
	case <-time.After(time.Second):
		t.Fatal("no signed-in event delivered")
	}

	// Token pair persisted for the next run.
	assert.Equal(t, 2, store.len())
}

func TestSignInWithPassword_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error_code":"invalid_credentials","error_description":"Invalid login credentials"}`)
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "anon-key")

	_, err := c.SignInWithPassword(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, KindInvalidCredentials, KindOf(err))
	assert.EqualError(t, err, "Invalid login credentials")
}

func TestSignInWithPassword_BackendDown(t *testing.T) {
	c := NewRESTClient("http://127.0.0.1:1", "anon-key")

	_, err := c.SignInWithPassword(context.Background(), "ada@example.com", "secret")
	assert.True(t, IsUnavailable(err))
}

func TestGetSession_RestoresFromStore(t *testing.T) {
	access := signTestToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "ada@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	store := newMemStore()
	require.NoError(t, store.Set(context.Background(), "access_token", access))
	require.NoError(t, store.Set(context.Background(), "refresh_token", "refresh-1"))

	c := NewRESTClient("http://127.0.0.1:1", "anon-key", WithTokenStore(store))

	s, err := c.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "refresh-1", s.RefreshToken)
}

func TestGetSession_NoStoredSession(t *testing.T) {
	c := NewRESTClient("http://127.0.0.1:1", "anon-key", WithTokenStore(newMemStore()))

	s, err := c.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestGetSession_CorruptStoreCleared(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Set(context.Background(), "access_token", "garbage"))

	c := NewRESTClient("http://127.0.0.1:1", "anon-key", WithTokenStore(store))

	s, err := c.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Zero(t, store.len(), "unreadable entries are dropped, not kept to fail every boot")
}

func TestGetSession_RefreshesExpiredToken(t *testing.T) {
	expired := signTestToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "stale-refresh", body["refresh_token"])

		fmt.Fprint(w, grantResponse(t, "user-1", "ada@example.com", 3600))
	}))
	defer srv.Close()

	store := newMemStore()
	require.NoError(t, store.Set(context.Background(), "access_token", expired))
	require.NoError(t, store.Set(context.Background(), "refresh_token", "stale-refresh"))

	c := NewRESTClient(srv.URL, "anon-key", WithTokenStore(store))

	events := make(chan AuthEvent, 1)
	c.OnSessionChange(func(ev AuthEvent, s *models.Session) { events <- ev })

	s, err := c.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "refresh-1", s.RefreshToken)
	assert.False(t, s.Expired(time.Now()))

	select {
	case ev := <-events:
		assert.Equal(t, EventTokenRefreshed, ev)
	case <-time.After(time.Second):
		t.Fatal("no token-refreshed event delivered")
	}
}

func TestSignUp_ConfirmationPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		assert.Equal(t, "https://app.example.com/auth/callback", r.URL.Query().Get("redirect_to"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		meta, _ := body["data"].(map[string]any)
		assert.Equal(t, "Ada Lovelace", meta["full_name"])

		// Email confirmation enabled: user object only, no tokens.
		fmt.Fprint(w, `{"user":{"id":"user-1","email":"ada@example.com"}}`)
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "anon-key")

	s, err := c.SignUp(context.Background(), "ada@example.com", "secret", SignUpOptions{
		Metadata:    map[string]any{"full_name": "Ada Lovelace"},
		RedirectURL: "https://app.example.com/auth/callback",
	})
	require.NoError(t, err)
	assert.Nil(t, s, "no session until the email is confirmed")
}

func TestSignOut_ClearsLocalStateEvenOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/logout" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, grantResponse(t, "user-1", "ada@example.com", 3600))
	}))
	defer srv.Close()

	store := newMemStore()
	c := NewRESTClient(srv.URL, "anon-key", WithTokenStore(store))

	_, err := c.SignInWithPassword(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	events := make(chan AuthEvent, 1)
	c.OnSessionChange(func(ev AuthEvent, s *models.Session) { events <- ev })

	err = c.SignOut(context.Background())
	assert.True(t, IsUnavailable(err), "the revocation failure is reported")
	assert.Nil(t, c.currentSession(), "but the local session is gone regardless")
	assert.Zero(t, store.len())

	select {
	case ev := <-events:
		assert.Equal(t, EventSignedOut, ev)
	case <-time.After(time.Second):
		t.Fatal("no signed-out event delivered")
	}
}

func TestOnSessionChange_Unsubscribe(t *testing.T) {
	c := NewRESTClient("http://x", "anon-key")

	events := make(chan AuthEvent, 1)
	unsub := c.OnSessionChange(func(ev AuthEvent, s *models.Session) { events <- ev })
	unsub()

	c.emit(EventSignedIn, nil)

	select {
	case <-events:
		t.Fatal("unsubscribed listener still received an event")
	case <-time.After(100 * time.Millisecond):
	}
}
