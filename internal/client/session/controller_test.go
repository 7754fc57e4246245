package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqlink/resq-go/internal/client/backend"
	"github.com/resqlink/resq-go/internal/client/models"
)

type fakeAuth struct {
	getSessionFn func(ctx context.Context) (*models.Session, error)
	signInFn     func(ctx context.Context, email, password string) (*models.Session, error)
	signOutFn    func(ctx context.Context) error
	listener     backend.SessionListener
}

func (f *fakeAuth) GetSession(ctx context.Context) (*models.Session, error) {
	if f.getSessionFn != nil {
		return f.getSessionFn(ctx)
	}
	return nil, nil
}

func (f *fakeAuth) OnSessionChange(fn backend.SessionListener) func() {
	f.listener = fn
	return func() { f.listener = nil }
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	if f.signInFn != nil {
		return f.signInFn(ctx, email, password)
	}
	return nil, nil
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string, opts backend.SignUpOptions) (*models.Session, error) {
	return nil, nil
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	if f.signOutFn != nil {
		return f.signOutFn(ctx)
	}
	return nil
}

func (f *fakeAuth) SendPasswordReset(ctx context.Context, email, redirectURL string) error {
	return nil
}

func (f *fakeAuth) UpdatePassword(ctx context.Context, newPassword string) error {
	return nil
}

type fakeProfiles struct {
	fn    func(ctx context.Context, s *models.Session) (*models.Profile, error)
	calls atomic.Int32
}

func (f *fakeProfiles) GetOrCreateProfile(ctx context.Context, s *models.Session) (*models.Profile, error) {
	f.calls.Add(1)
	return f.fn(ctx, s)
}

func testSession() *models.Session {
	return &models.Session{
		UserID:       "user-1",
		Email:        "ada@example.com",
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

var errUnavailable = &backend.Error{Kind: backend.KindUnavailable, Message: "connection refused"}

// firedTimer is an after-func whose channel fires immediately.
func firedTimer(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// idleTimer is an after-func whose channel never fires.
func idleTimer(time.Duration) <-chan time.Time {
	return nil
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestInitialize_TimeoutContinuesSignedOut(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	auth := &fakeAuth{getSessionFn: func(ctx context.Context) (*models.Session, error) {
		<-block
		return testSession(), nil
	}}
	profiles := &fakeProfiles{fn: func(ctx context.Context, s *models.Session) (*models.Profile, error) {
		t.Error("profile load must not run when bootstrap times out")
		return nil, nil
	}}

	c := New(auth, profiles, WithClock(nil, firedTimer, noSleep))
	defer c.Close()

	done := make(chan struct{})
	go func() {
		c.Initialize(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Initialize did not return after the bootstrap timeout fired")
	}

	assert.False(t, c.Loading())
	assert.Nil(t, c.User())
	assert.Nil(t, c.Profile())
}

func TestInitialize_NoStoredSession(t *testing.T) {
	auth := &fakeAuth{}
	profiles := &fakeProfiles{fn: func(ctx context.Context, s *models.Session) (*models.Profile, error) {
		return nil, errUnavailable
	}}

	c := New(auth, profiles, WithClock(nil, idleTimer, noSleep))
	defer c.Close()

	c.Initialize(context.Background())

	assert.False(t, c.Loading())
	assert.Nil(t, c.User())
	assert.Nil(t, c.Profile())
	assert.Zero(t, profiles.calls.Load())
}

func TestInitialize_LoadsProfileForStoredSession(t *testing.T) {
	auth := &fakeAuth{getSessionFn: func(ctx context.Context) (*models.Session, error) {
		return testSession(), nil
	}}
	profiles := &fakeProfiles{fn: func(ctx context.Context, s *models.Session) (*models.Profile, error) {
		return &models.Profile{ID: s.UserID, FullName: "Ada", Role: models.RoleVolunteer}, nil
	}}

	c := New(auth, profiles, WithClock(nil, idleTimer, noSleep))
	defer c.Close()

	c.Initialize(context.Background())

	require.NotNil(t, c.User())
	assert.Equal(t, "user-1", c.User().UserID)
	require.NotNil(t, c.Profile())
	assert.Equal(t, "Ada", c.Profile().FullName)
	assert.Equal(t, models.RoleVolunteer, c.Profile().Role)
	assert.False(t, c.Loading())
	assert.Equal(t, int32(1), profiles.calls.Load())
}

func TestLoadProfile_FallbackAfterExhaustedRetries(t *testing.T) {
	auth := &fakeAuth{getSessionFn: func(ctx context.Context) (*models.Session, error) {
		return testSession(), nil
	}}
	profiles := &fakeProfiles{fn: func(ctx context.Context, s *models.Session) (*models.Profile, error) {
		return nil, errUnavailable
	}}

	c := New(auth, profiles,
		WithDefaultCity("Riverton"),
		WithClock(nil, idleTimer, noSleep),
	)
	defer c.Close()

	c.Initialize(context.Background())

	assert.Equal(t, int32(3), profiles.calls.Load())

	p := c.Profile()
	require.NotNil(t, p, "a session must always end up with a profile")
	assert.Equal(t, "user-1", p.ID)
	assert.Equal(t, models.RoleCitizen, p.Role)
	assert.Equal(t, "ada", p.FullName)
	assert.Equal(t, "Riverton", p.City)
	assert.Empty(t, c.ProfileError(), "the fallback resolves the load, it is not an error state")
	assert.False(t, c.Loading())
}

func TestLoadProfile_RetryBackoffTiming(t *testing.T) {
	var sleeps []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	profiles := &fakeProfiles{}
	profiles.fn = func(ctx context.Context, s *models.Session) (*models.Profile, error) {
		if profiles.calls.Load() < 3 {
			return nil, errUnavailable
		}
		return &models.Profile{ID: s.UserID, FullName: "Ada", Role: models.RoleCitizen}, nil
	}

	c := New(&fakeAuth{}, profiles, WithClock(nil, idleTimer, sleep))
	defer c.Close()

	c.setUser(testSession())
	c.loadProfile(context.Background(), c.User())

	assert.Equal(t, int32(3), profiles.calls.Load())
	require.Len(t, sleeps, 2, "backoff runs between attempts, not before the first")
	assert.Equal(t, DefaultRetryBackoff, sleeps[0])
	assert.Equal(t, DefaultRetryBackoff, sleeps[1])

	require.NotNil(t, c.Profile())
	assert.Equal(t, "Ada", c.Profile().FullName, "the third attempt's result is adopted, not the fallback")
}

func TestLoadProfile_SingleFlight(t *testing.T) {
	entered := make(chan struct{})
	gate := make(chan struct{})

	profiles := &fakeProfiles{fn: func(ctx context.Context, s *models.Session) (*models.Profile, error) {
		close(entered)
		<-gate
		return &models.Profile{ID: s.UserID, Role: models.RoleCitizen}, nil
	}}

	c := New(&fakeAuth{}, profiles, WithClock(nil, idleTimer, noSleep))
	defer c.Close()

	sess := testSession()
	c.setUser(sess)

	done := make(chan struct{})
	go func() {
		c.loadProfile(context.Background(), sess)
		close(done)
	}()

	<-entered
	// A second trigger while the first lineage is in flight is dropped.
	c.loadProfile(context.Background(), sess)

	close(gate)
	<-done

	assert.Equal(t, int32(1), profiles.calls.Load())
	require.NotNil(t, c.Profile())
}

func TestFetchProfileOnce_LateResultDiscarded(t *testing.T) {
	gate := make(chan struct{})
	returned := make(chan struct{})

	profiles := &fakeProfiles{fn: func(ctx context.Context, s *models.Session) (*models.Profile, error) {
		<-gate
		defer close(returned)
		return &models.Profile{ID: s.UserID, FullName: "late", Role: models.RoleAdmin}, nil
	}}

	c := New(&fakeAuth{}, profiles,
		WithLoadAttempts(1),
		WithClock(nil, firedTimer, noSleep),
	)
	defer c.Close()

	sess := testSession()
	c.setUser(sess)

	// The only attempt times out immediately, so the fallback is adopted.
	c.loadProfile(context.Background(), sess)

	p := c.Profile()
	require.NotNil(t, p)
	assert.Equal(t, models.RoleCitizen, p.Role)
	assert.NotEqual(t, "late", p.FullName)

	// Let the raced-out request settle; its result must not overwrite state.
	close(gate)
	<-returned

	assert.Never(t, func() bool {
		return c.Profile().FullName == "late"
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestLoadProfile_SignOutDuringBackoffDropsResult(t *testing.T) {
	sleeping := make(chan struct{})
	release := make(chan struct{})
	sleep := func(ctx context.Context, d time.Duration) error {
		close(sleeping)
		<-release
		return nil
	}

	profiles := &fakeProfiles{}
	profiles.fn = func(ctx context.Context, s *models.Session) (*models.Profile, error) {
		if profiles.calls.Load() == 1 {
			return nil, errUnavailable
		}
		return &models.Profile{ID: s.UserID, FullName: "Ada", Role: models.RoleVolunteer}, nil
	}

	c := New(&fakeAuth{}, profiles,
		WithLoadAttempts(2),
		WithClock(nil, idleTimer, sleep),
	)
	defer c.Close()

	sess := testSession()
	c.setUser(sess)

	done := make(chan struct{})
	go func() {
		c.loadProfile(context.Background(), sess)
		close(done)
	}()

	<-sleeping
	require.NoError(t, c.SignOut(context.Background()))
	assert.Nil(t, c.User())
	assert.Nil(t, c.Profile())

	close(release)
	<-done

	assert.Nil(t, c.Profile(), "a signed-out controller must not hold a profile")
	assert.Nil(t, c.User())
	assert.Equal(t, int32(2), profiles.calls.Load(), "the lineage still ran to completion")
}

func TestLoadProfile_SignOutDuringBackoffSkipsFallback(t *testing.T) {
	sleeping := make(chan struct{})
	release := make(chan struct{})
	sleep := func(ctx context.Context, d time.Duration) error {
		close(sleeping)
		<-release
		return nil
	}

	profiles := &fakeProfiles{fn: func(ctx context.Context, s *models.Session) (*models.Profile, error) {
		return nil, errUnavailable
	}}

	c := New(&fakeAuth{}, profiles,
		WithLoadAttempts(2),
		WithClock(nil, idleTimer, sleep),
	)
	defer c.Close()

	sess := testSession()
	c.setUser(sess)

	done := make(chan struct{})
	go func() {
		c.loadProfile(context.Background(), sess)
		close(done)
	}()

	<-sleeping
	require.NoError(t, c.SignOut(context.Background()))

	close(release)
	<-done

	assert.Nil(t, c.Profile(), "exhausted retries must not synthesize a fallback for a signed-out user")
	assert.Nil(t, c.User())
}

func TestHandleSessionChange_SignInAndSignOut(t *testing.T) {
	auth := &fakeAuth{}
	profiles := &fakeProfiles{fn: func(ctx context.Context, s *models.Session) (*models.Profile, error) {
		return &models.Profile{ID: s.UserID, Role: models.RoleCitizen}, nil
	}}

	c := New(auth, profiles, WithClock(nil, idleTimer, noSleep))
	defer c.Close()

	c.Initialize(context.Background())
	require.NotNil(t, auth.listener, "bootstrap must subscribe to session changes")

	auth.listener(backend.EventSignedIn, testSession())
	require.NotNil(t, c.User())
	require.NotNil(t, c.Profile())

	auth.listener(backend.EventSignedOut, nil)
	assert.Nil(t, c.User())
	assert.Nil(t, c.Profile())
	assert.Empty(t, c.ProfileError())
}

func TestSignOut_ClearsStateAndReturnsBackendError(t *testing.T) {
	boom := errors.New("revocation failed")
	auth := &fakeAuth{signOutFn: func(ctx context.Context) error { return boom }}

	c := New(auth, &fakeProfiles{}, WithClock(nil, idleTimer, noSleep))
	defer c.Close()

	c.setUser(testSession())
	c.adoptProfile(&models.Profile{ID: "user-1", Role: models.RoleCitizen})

	err := c.SignOut(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, c.User(), "local state is cleared even when revocation fails")
	assert.Nil(t, c.Profile())
}

func TestSignOut_AbortTreatedAsSuccess(t *testing.T) {
	auth := &fakeAuth{signOutFn: func(ctx context.Context) error {
		return fmt.Errorf("logout: %w", context.Canceled)
	}}

	c := New(auth, &fakeProfiles{}, WithClock(nil, idleTimer, noSleep))
	defer c.Close()

	c.setUser(testSession())

	err := c.SignOut(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, c.User())
}

func TestSignIn_PropagatesCredentialError(t *testing.T) {
	credErr := &backend.Error{Kind: backend.KindInvalidCredentials, Message: "invalid login credentials"}
	auth := &fakeAuth{signInFn: func(ctx context.Context, email, password string) (*models.Session, error) {
		return nil, credErr
	}}

	c := New(auth, &fakeProfiles{}, WithClock(nil, idleTimer, noSleep))
	defer c.Close()

	err := c.SignIn(context.Background(), "ada@example.com", "nope")
	assert.Equal(t, backend.KindInvalidCredentials, backend.KindOf(err))
}

func TestRefreshProfile_NoopWhenSignedOut(t *testing.T) {
	profiles := &fakeProfiles{fn: func(ctx context.Context, s *models.Session) (*models.Profile, error) {
		return nil, errUnavailable
	}}

	c := New(&fakeAuth{}, profiles, WithClock(nil, idleTimer, noSleep))
	defer c.Close()

	c.RefreshProfile(context.Background())
	assert.Zero(t, profiles.calls.Load())
}

func TestAdoptProfile_DefaultsInvalidRole(t *testing.T) {
	c := New(&fakeAuth{}, &fakeProfiles{})
	defer c.Close()

	c.adoptProfile(&models.Profile{ID: "user-1", Role: models.Role("superuser")})
	require.NotNil(t, c.Profile())
	assert.Equal(t, models.RoleCitizen, c.Profile().Role)
}

func TestClose_DropsLateResults(t *testing.T) {
	c := New(&fakeAuth{}, &fakeProfiles{})

	c.setUser(testSession())
	c.Close()

	c.adoptProfile(&models.Profile{ID: "user-1", Role: models.RoleCitizen})
	assert.Nil(t, c.Profile())

	c.setUser(testSession())
	assert.Nil(t, c.User())
}
