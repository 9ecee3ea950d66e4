package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/query"
	"github.com/idilsaglam/tada/internal/session"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

// app is the object graph one command runs against.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	client  *api.Client
	authAPI *api.AuthAPI
	todos   *api.TodosAPI
	session *session.Store
	queries *query.Client

	in    io.Reader
	lines *bufio.Reader
	out   io.Writer
}

func newApp(opt Options) *app {
	cfg := opt.Config
	if cfg == nil {
		cfg = config.Defaults()
	}
	logger := discardIfNil(opt.Logger)
	in := opt.In
	if in == nil {
		in = os.Stdin
	}

	client := api.New(api.Config{BaseURL: cfg.APIURL, Timeout: cfg.Timeout}, api.NewTokenStore(""), logger)
	authAPI := api.NewAuthAPI(client)
	store := session.New(authAPI, client.Tokens(), session.NewFileStore(cfg.DataDir), session.Options{
		EnvToken: cfg.Token,
		Logger:   logger,
	})
	client.OnUnauthorized(store.HandleUnauthorized)

	if _, err := store.Rehydrate(); err != nil {
		// a corrupt blob means signed out, not a dead CLI
		logger.Warn("ignoring stored session", "err", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		authAPI: authAPI,
		todos:   api.NewTodosAPI(client),
		session: store,
		queries: query.NewClient(),
		in:      in,
		lines:   bufio.NewReader(in),
		out:     outOf(opt),
	}
}

// requireAuth fails fast when no token is available.
func (a *app) requireAuth() bool {
	if a.session.State().IsAuthenticated {
		return true
	}
	ui.Fail("not signed in")
	ui.Hint("run `todo auth login` or set TADA_TOKEN")
	return false
}

func (a *app) mutations() *query.Mutations {
	return query.NewMutations(a.queries, a.todos, ui.Notices, a.logger)
}

func (a *app) interactive(ctx context.Context) int {
	if !a.requireAuth() {
		return ExitError
	}
	err := tui.Run(ctx, tui.Deps{
		Query:   a.queries,
		Todos:   a.todos,
		Session: a.session,
		User:    a.session.State().User,
		Logger:  a.logger,
	})
	switch {
	case errors.Is(err, tui.ErrSessionExpired):
		ui.Fail("session expired")
		ui.Hint("run `todo auth login` to sign in again")
		return ExitError
	case err != nil:
		ui.Fail("tui: " + err.Error())
		return ExitError
	}
	return ExitOK
}
