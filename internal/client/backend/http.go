package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/resqlink/resq-go/internal/client/models"
	"github.com/resqlink/resq-go/internal/client/repositories/tokens"
	"github.com/resqlink/resq-go/internal/logging"
)

// RESTClient talks to the hosted ResQ backend over its REST surface:
// /auth/v1 for authentication, /rest/v1 for relational data and RPC,
// /storage/v1 for objects. One instance serves all capability interfaces.
type RESTClient struct {
	baseURL     string
	apiKey      string
	httpc       *http.Client
	logger      logging.Logger
	store       tokens.Repository
	defaultCity string
	now         func() time.Time

	mu      sync.Mutex
	session *models.Session

	subMu  sync.Mutex
	subs   map[int]SessionListener
	nextID int
}

type Option func(*RESTClient)

func WithHTTPClient(h *http.Client) Option {
	return func(c *RESTClient) { c.httpc = h }
}

func WithLogger(l logging.Logger) Option {
	return func(c *RESTClient) { c.logger = l }
}

// WithTokenStore persists the token pair so a session survives restarts.
// Without a store, sessions live only in memory.
func WithTokenStore(r tokens.Repository) Option {
	return func(c *RESTClient) { c.store = r }
}

// WithDefaultCity sets the city written into lazily created profiles.
func WithDefaultCity(city string) Option {
	return func(c *RESTClient) { c.defaultCity = city }
}

func WithNow(now func() time.Time) Option {
	return func(c *RESTClient) { c.now = now }
}

func NewRESTClient(baseURL, apiKey string, opts ...Option) *RESTClient {
	c := &RESTClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		httpc:       &http.Client{Timeout: 30 * time.Second},
		logger:      logging.Nop(),
		defaultCity: "Springfield",
		now:         time.Now,
		subs:        make(map[int]SessionListener),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is the wire shape of backend failures. GoTrue-style endpoints use
// error_code/error_description/msg; PostgREST uses message. All fields are
// optional; categorization keys on ErrorCode and the HTTP status, never on
// prose.
type apiError struct {
	ErrorCode        string `json:"error_code"`
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e *apiError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.ErrorName} {
		if s != "" {
			return s
		}
	}
	return ""
}

// do executes one JSON request. A non-2xx response is mapped to a
// categorized *Error; a transport failure is mapped by wrapTransport.
// When out is non-nil the response body is unmarshalled into it.
func (c *RESTClient) do(ctx context.Context, method, path string, query url.Values, body, out any, authed bool) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost && out != nil {
		// PostgREST returns the created row only when asked to.
		req.Header.Set("Prefer", "return=representation")
	}
	if authed {
		if token := c.accessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return wrapTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapTransport(err)
	}

	if resp.StatusCode >= 400 {
		var ae apiError
		_ = json.Unmarshal(data, &ae)
		return c.mapStatus(resp.StatusCode, &ae)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// mapStatus converts an HTTP failure into a categorized error. The auth
// endpoints carry a structured error_code; everything else falls back to
// the status class.
func (c *RESTClient) mapStatus(status int, ae *apiError) error {
	switch ae.ErrorCode {
	case "invalid_credentials", "invalid_grant":
		return newError(KindInvalidCredentials, ae.text(), nil)
	case "email_not_confirmed":
		return newError(KindEmailNotConfirmed, ae.text(), nil)
	case "user_already_exists", "email_exists":
		return newError(KindConflict, ae.text(), nil)
	}

	msg := ae.text()
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return newError(KindUnauthorized, msg, nil)
	case status == http.StatusNotFound || status == http.StatusNotAcceptable:
		return newError(KindNotFound, msg, nil)
	case status == http.StatusConflict:
		return newError(KindConflict, msg, nil)
	case status == http.StatusRequestTimeout || status >= 500:
		return newError(KindUnavailable, msg, nil)
	default:
		return newError(KindInternal, msg, nil)
	}
}

func (c *RESTClient) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

func (c *RESTClient) currentSession() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}
