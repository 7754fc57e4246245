package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/resqlink/resq-go/internal/client/backend"
	"github.com/resqlink/resq-go/internal/client/models"
	"github.com/resqlink/resq-go/internal/logging"
)

// Timing defaults. The bootstrap race keeps a cold start from blocking the
// UI when the backend is unreachable; the per-attempt timeout and fixed
// backoff absorb slow or flaky networks during profile loads.
const (
	DefaultBootstrapTimeout = 5 * time.Second
	DefaultProfileTimeout   = 8 * time.Second
	DefaultRetryBackoff     = 1 * time.Second
	DefaultLoadAttempts     = 3
)

// Controller is the single source of truth for "who is signed in and what
// is their profile". It hides backend latency and transient failure behind
// bounded retries and a synthesized fallback profile, and guarantees the
// caller is never left waiting indefinitely.
//
// Construct one Controller per application, call Initialize once at start,
// and Close on shutdown.
type Controller struct {
	auth     backend.AuthAPI
	profiles backend.ProfileAPI
	logger   logging.Logger

	bootstrapTimeout time.Duration
	profileTimeout   time.Duration
	retryBackoff     time.Duration
	loadAttempts     int
	defaultCity      string
	appOrigin        string

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
	sleep func(ctx context.Context, d time.Duration) error

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	user         *models.Session
	profile      *models.Profile
	loading      bool
	profileError string

	// loadBusy is the reentrancy guard: at most one profile-load lineage
	// runs per controller at a time. Triggers that arrive while it is held
	// are dropped; a later session-change event repeats them if needed.
	loadBusy atomic.Bool

	// gen stamps the profile-load lineage. Sign-out, close, and the
	// timeout path all advance it, so a result that settles after state
	// moved on carries a stale stamp and is discarded instead of adopted.
	gen atomic.Uint64

	closed      atomic.Bool
	unsubscribe func()
}

type Option func(*Controller)

func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithDefaultCity sets the city used when synthesizing a fallback profile.
func WithDefaultCity(city string) Option {
	return func(c *Controller) { c.defaultCity = city }
}

// WithAppOrigin sets the origin used to derive redirect targets for
// sign-up confirmation and password reset emails.
func WithAppOrigin(origin string) Option {
	return func(c *Controller) { c.appOrigin = origin }
}

func WithBootstrapTimeout(d time.Duration) Option {
	return func(c *Controller) { c.bootstrapTimeout = d }
}

func WithProfileTimeout(d time.Duration) Option {
	return func(c *Controller) { c.profileTimeout = d }
}

func WithRetryBackoff(d time.Duration) Option {
	return func(c *Controller) { c.retryBackoff = d }
}

// WithLoadAttempts bounds a profile-load lineage. After this many failed
// attempts the controller synthesizes a local fallback profile.
func WithLoadAttempts(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.loadAttempts = n
		}
	}
}

// WithClock injects the timing seams (now, timer, interruptible sleep) so
// tests can run the retry/timeout machinery deterministically.
func WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
		if after != nil {
			c.after = after
		}
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func New(auth backend.AuthAPI, profiles backend.ProfileAPI, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		auth:             auth,
		profiles:         profiles,
		logger:           logging.Nop(),
		bootstrapTimeout: DefaultBootstrapTimeout,
		profileTimeout:   DefaultProfileTimeout,
		retryBackoff:     DefaultRetryBackoff,
		loadAttempts:     DefaultLoadAttempts,
		defaultCity:      "Springfield",
		now:              time.Now,
		after:            time.After,
		sleep:            defaultSleep,
		ctx:              ctx,
		cancel:           cancel,
		loading:          true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize runs the one-time bootstrap: subscribe to session changes,
// then race the persisted-session fetch against the bootstrap timeout.
// On success, no session, error, or timeout alike it returns with loading
// set to false. Errors are logged, never propagated: an unreachable
// backend at boot means "signed out", not a stuck splash screen.
func (c *Controller) Initialize(ctx context.Context) {
	defer c.setLoading(false)

	c.unsubscribe = c.auth.OnSessionChange(c.handleSessionChange)

	type result struct {
		sess *models.Session
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := c.auth.GetSession(ctx)
		ch <- result{s, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			if !backend.IsAborted(r.err) {
				c.logger.Warn(ctx, "session fetch failed, continuing signed out", "error", r.err)
			}
			return
		}
		if r.sess == nil {
			return
		}
		c.setUser(r.sess)
		c.loadProfile(ctx, r.sess)

	case <-c.after(c.bootstrapTimeout):
		c.logger.Warn(ctx, "session fetch timed out, continuing signed out",
			"timeout", c.bootstrapTimeout)
		// The fetch is not cancelled; drain it so a late session cannot be
		// applied once the boot decision is made.
		go func() {
			r := <-ch
			if r.err == nil && r.sess != nil {
				c.logger.Warn(c.ctx, "discarding session resolved after bootstrap timeout",
					"user_id", r.sess.UserID)
			}
		}()

	case <-ctx.Done():
		c.logger.Warn(ctx, "bootstrap cancelled", "error", ctx.Err())
	}
}

// handleSessionChange is the continuous subscription callback. It and
// Initialize may both fire near startup in either order; both write into
// the same state slots and the reentrancy guard keeps profile loads from
// doubling up.
func (c *Controller) handleSessionChange(event backend.AuthEvent, sess *models.Session) {
	if c.closed.Load() {
		return
	}
	defer c.setLoading(false)

	c.logger.Debug(c.ctx, "session change", "event", string(event), "has_session", sess != nil)

	if sess == nil {
		c.clearState()
		return
	}
	c.setUser(sess)
	c.loadProfile(c.ctx, sess)
}

// loadProfile resolves the profile for sess: up to loadAttempts tries
// against the profile capability (fixed backoff between tries), then a
// fallback synthesized from local session data. It never returns an error
// and never leaves the profile empty while a session exists. A lineage
// already in flight makes this call a no-op.
func (c *Controller) loadProfile(ctx context.Context, sess *models.Session) {
	if !c.loadBusy.CompareAndSwap(false, true) {
		return
	}
	defer c.loadBusy.Store(false)

	c.setProfileError("")

	// Stamp the lineage. Every adoption below re-checks this stamp, so a
	// sign-out or teardown that lands mid-attempt or mid-backoff advances
	// gen and the lineage settles without touching state.
	gen := c.gen.Add(1)

	var lastErr error
	for attempt := 1; attempt <= c.loadAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.retryBackoff); err != nil {
				lastErr = err
				break
			}
		}
		p, next, err := c.fetchProfileOnce(ctx, sess, gen)
		gen = next
		if err == nil {
			c.adoptProfileIfCurrent(gen, p)
			return
		}
		lastErr = err
		c.logger.Warn(ctx, "profile load attempt failed",
			"attempt", attempt, "of", c.loadAttempts, "error", err)
	}

	// Availability over strict consistency: the application keys on
	// profile.Role for access control and must not block on the backend.
	// The fallback counts as a successful resolution, so the profile error
	// stays clear.
	c.logger.Warn(ctx, "profile load exhausted, using locally synthesized profile",
		"user_id", sess.UserID, "error", lastErr)
	c.adoptProfileIfCurrent(gen, models.FallbackProfile(sess, c.defaultCity, c.now()))
}

var errLoadTimeout = &backend.Error{Kind: backend.KindUnavailable, Message: "profile load timed out"}

// fetchProfileOnce races one get-or-create request against the profile
// timeout. The loser is not cancelled; its eventual result is checked
// against the generation stamp and discarded when stale. It returns the
// lineage's current stamp: unchanged when the request settled in time,
// advanced past the raced-out loser on timeout.
func (c *Controller) fetchProfileOnce(ctx context.Context, sess *models.Session, gen uint64) (*models.Profile, uint64, error) {
	type result struct {
		p   *models.Profile
		err error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := c.profiles.GetOrCreateProfile(ctx, sess)
		ch <- result{p, err}
	}()

	select {
	case r := <-ch:
		return r.p, gen, r.err
	case <-c.after(c.profileTimeout):
		// Advance the stamp so the raced-out request can never be adopted.
		// A failed swap means something else (sign-out, teardown) already
		// invalidated the lineage; keep the stale stamp in that case.
		next := gen
		if c.gen.CompareAndSwap(gen, gen+1) {
			next = gen + 1
		}
		go func() {
			r := <-ch
			if r.err == nil && r.p != nil {
				c.adoptProfileIfCurrent(gen, r.p)
			}
		}()
		return nil, next, errLoadTimeout
	}
}

// RefreshProfile restarts a full profile-load lineage for the current user.
// No-op when signed out. Backs the UI's "retry connection" affordance.
func (c *Controller) RefreshProfile(ctx context.Context) {
	u := c.User()
	if u == nil {
		return
	}
	c.loadProfile(ctx, u)
}

// SignIn verifies credentials with the auth backend. It does not populate
// user or profile itself; the session-change subscription does that
// asynchronously, so the profile is not guaranteed to be available the
// moment this returns. Credential errors are returned unchanged for the UI
// to present.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	_, err := c.auth.SignInWithPassword(ctx, email, password)
	return err
}

// SignUp registers an account. Whether a session exists afterwards depends
// on the backend's email-confirmation policy; callers must not assume
// either way.
func (c *Controller) SignUp(ctx context.Context, email, password string, metadata map[string]any) error {
	_, err := c.auth.SignUp(ctx, email, password, backend.SignUpOptions{
		Metadata:    metadata,
		RedirectURL: c.redirectTarget("/auth/callback"),
	})
	return err
}

// SignOut revokes the session. Local state is cleared unconditionally, even
// when the backend call fails: staying "signed in" locally because the
// network dropped would be worse than an unrevoked token. An abort-kind
// failure (our own teardown cancelling in-flight requests) is treated as
// success and not logged.
func (c *Controller) SignOut(ctx context.Context) error {
	defer c.clearState()

	err := c.auth.SignOut(ctx)
	if err == nil {
		return nil
	}
	if backend.IsAborted(err) {
		return nil
	}
	c.logger.Error(ctx, "sign-out failed", "error", err)
	return err
}

func (c *Controller) ResetPassword(ctx context.Context, email string) error {
	return c.auth.SendPasswordReset(ctx, email, c.redirectTarget("/auth/reset"))
}

func (c *Controller) UpdatePassword(ctx context.Context, newPassword string) error {
	return c.auth.UpdatePassword(ctx, newPassword)
}

// Close tears the controller down: unsubscribes from session changes and
// marks state read-only so results from still-running loads are dropped
// instead of corrupting it. In-flight requests are not waited for.
func (c *Controller) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.gen.Add(1)
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.cancel()
}

func (c *Controller) redirectTarget(path string) string {
	if c.appOrigin == "" {
		return ""
	}
	return c.appOrigin + path
}

// --- state accessors ---

// User returns the current session, or nil when signed out.
func (c *Controller) User() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	s := *c.user
	return &s
}

// Profile returns the current profile (backend-loaded or fallback), or nil.
func (c *Controller) Profile() *models.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return nil
	}
	p := *c.profile
	return &p
}

// Loading reports whether the initial bootstrap race is still unresolved.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// ProfileError returns the human-readable profile failure, or "". In
// practice the fallback path resolves every lineage, so this is a safety
// valve rather than a commonly populated field.
func (c *Controller) ProfileError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profileError
}

// --- state mutation (all no-ops after Close) ---

func (c *Controller) setLoading(v bool) {
	if c.closed.Load() {
		return
	}
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

func (c *Controller) setUser(s *models.Session) {
	if c.closed.Load() {
		return
	}
	c.mu.Lock()
	copied := *s
	c.user = &copied
	c.mu.Unlock()
}

func (c *Controller) adoptProfile(p *models.Profile) {
	if c.closed.Load() {
		return
	}
	c.mu.Lock()
	copied := *p
	if !copied.Role.Valid() {
		copied.Role = models.RoleCitizen
	}
	c.profile = &copied
	c.profileError = ""
	c.mu.Unlock()
}

// adoptProfileIfCurrent applies a late-arriving profile only if no newer
// attempt has been stamped since. The timeout path advances the stamp
// before handing the loser off here, so raced-out results always lose.
func (c *Controller) adoptProfileIfCurrent(gen uint64, p *models.Profile) {
	if c.closed.Load() || c.gen.Load() != gen {
		c.logger.Debug(c.ctx, "dropping stale profile result", "user_id", p.ID)
		return
	}
	c.adoptProfile(p)
}

func (c *Controller) setProfileError(msg string) {
	if c.closed.Load() {
		return
	}
	c.mu.Lock()
	c.profileError = msg
	c.mu.Unlock()
}

func (c *Controller) clearState() {
	c.gen.Add(1) // invalidate any in-flight load results
	c.mu.Lock()
	c.user = nil
	c.profile = nil
	c.profileError = ""
	c.mu.Unlock()
}
