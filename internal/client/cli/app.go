// Package cli implements the interactive ResQ terminal client.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/resqlink/resq-go/internal/client/backend"
	"github.com/resqlink/resq-go/internal/client/config"
	"github.com/resqlink/resq-go/internal/client/services"
	"github.com/resqlink/resq-go/internal/client/session"
	"github.com/resqlink/resq-go/internal/client/store"
	"github.com/resqlink/resq-go/internal/logging"
)

type App struct {
	config     *config.Config
	api        *backend.RESTClient
	session    *session.Controller
	complaints services.ComplaintService
	civic      services.CivicService
	logger     logging.Logger
	reader     *bufio.Reader
}

func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	ctx := context.Background()

	repos, err := store.InitDatabase(ctx, cfg.CacheDBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing local cache: %w", err)
	}

	api := backend.NewRESTClient(cfg.BackendURL, cfg.APIKey,
		backend.WithLogger(logger),
		backend.WithTokenStore(repos.Tokens),
		backend.WithDefaultCity(cfg.DefaultCity),
	)

	ctrl := session.New(api, api,
		session.WithLogger(logger),
		session.WithDefaultCity(cfg.DefaultCity),
		session.WithAppOrigin(cfg.AppOrigin),
	)

	return &App{
		config:     cfg,
		api:        api,
		session:    ctrl,
		complaints: services.NewComplaintService(api, api, repos.Drafts, logger),
		civic:      services.NewCivicService(api),
		logger:     logger,
		reader:     bufio.NewReader(os.Stdin),
	}, nil
}

// Run bootstraps the session, starts the background token refresher, and
// hands control to the REPL until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.session.Close()

	a.session.Initialize(ctx)

	go a.api.StartAutoRefresh(ctx, a.config.RefreshInterval)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.session.User() != nil
}

// getStatus renders the prompt suffix: the signed-in email and role, plus
// the number of complaint drafts still waiting to be pushed.
func (a *App) getStatus() string {
	u := a.session.User()
	if u == nil {
		return "(signed out)"
	}
	s := u.Email
	if p := a.session.Profile(); p != nil {
		s = fmt.Sprintf("%s %s %dpt", s, p.Role, p.Points)
	}
	if n, err := a.complaints.PendingCount(context.Background()); err == nil && n > 0 {
		s = fmt.Sprintf("%s [%d queued]", s, n)
	}
	return "(" + s + ")"
}
