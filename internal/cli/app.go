// Package cli is the interactive storectl shell: a small REPL over the
// storefront client for logging in, browsing orders and notifications, and
// walking through a checkout from the terminal.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/a2ztrade/storekit/internal/account"
	"github.com/a2ztrade/storekit/internal/api"
	"github.com/a2ztrade/storekit/internal/checkout"
	"github.com/a2ztrade/storekit/internal/config"
	"github.com/a2ztrade/storekit/internal/credentials"
	"github.com/a2ztrade/storekit/internal/logging"
	"github.com/a2ztrade/storekit/internal/models"
	"github.com/a2ztrade/storekit/internal/repositories"
	"github.com/a2ztrade/storekit/internal/session"
)

// App holds everything the shell commands need.
type App struct {
	config  *config.Config
	repos   *repositories.Repositories
	creds   *credentials.Store
	client  *api.Client
	session *session.Manager
	account *account.Service
	logger  logging.Logger

	// cart is built up with the "add" command and consumed by checkout.
	cart []models.CartLine

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the local credential cache and wires the client stack.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	repos, err := repositories.InitDatabase(ctx, cfg.CredentialsDSN)
	if err != nil {
		return nil, err
	}

	creds := credentials.NewStore(repos.Credentials,
		credentials.WithTokenTTL(cfg.TokenTTL),
		credentials.WithWarnThreshold(cfg.WarnThreshold),
		credentials.WithLogger(logger),
	)

	client := api.NewClient(cfg.BaseURL,
		api.WithTokenSource(creds),
		api.WithLanguage(cfg.Language),
		api.WithRetryBackoff(cfg.RetryBackoff),
		api.WithClientLogger(logger),
	)

	sess := session.NewManager(client, creds, cfg.MonitorInterval,
		session.WithManagerLogger(logger),
	)

	acct := account.NewService(client, creds,
		account.WithServiceLogger(logger),
	)

	return &App{
		config:  cfg,
		repos:   repos,
		creds:   creds,
		client:  client,
		session: sess,
		account: acct,
		logger:  logger,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

// Run resumes monitoring for a restored session, then hands control to the
// REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	if a.session.IsAuthenticated(ctx) {
		a.session.StartTokenMonitoring(ctx, nil)
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner, a.out)
}

// Close stops monitoring and releases the local database.
func (a *App) Close() error {
	a.session.StopTokenMonitoring()
	return a.repos.Close()
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated(context.Background())
}

// status renders the prompt suffix: the signed-in user's name, if any.
func (a *App) status() string {
	user := a.session.User(context.Background())
	if user == nil {
		return ""
	}
	return "(" + user.FullName() + ")"
}

// newCheckout builds a fresh flow over the current cart.
func (a *App) newCheckout() *checkout.Flow {
	return checkout.NewFlow(a.client, a.session, a.cart,
		checkout.WithSubmitTimeout(a.config.RequestTimeout),
		checkout.WithFlowLogger(a.logger),
	)
}
