package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/api/apitest"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/session"
	"github.com/idilsaglam/tada/internal/ui"
)

type env struct {
	srv         *apitest.Server
	cfg         *config.Config
	out, errOut bytes.Buffer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{srv: apitest.NewServer(t)}
	e.cfg = &config.Config{
		APIURL:  e.srv.URL,
		Timeout: 2 * time.Second,
		DataDir: t.TempDir(),
		Theme:   "classic",
	}
	ui.SetOutput(&e.out, &e.errOut)
	ui.SetColorForcing(false, true)
	t.Cleanup(func() {
		ui.SetOutput(os.Stdout, os.Stderr)
		ui.SetColorForcing(false, false)
	})
	return e
}

// run executes one command with stdin as prompt input and resets the
// captured output first.
func (e *env) run(stdin string, args ...string) int {
	e.out.Reset()
	e.errOut.Reset()
	return Run(context.Background(), args, Options{
		Config: e.cfg,
		In:     strings.NewReader(stdin),
		Out:    &e.out,
	})
}

func (e *env) login(t *testing.T) string {
	t.Helper()
	tok := e.srv.AddUser("ada@example.com", "secret", model.Profile{ID: "u1", FirstName: "Ada", LastName: "Lovelace"})
	require.Equal(t, ExitOK, e.run("secret\n", "auth", "login", "ada@example.com"), e.errOut.String())
	return tok
}

func TestUsage(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, ExitUsage, e.run(""))
	assert.Equal(t, ExitOK, e.run("", "help"))
	assert.Contains(t, e.out.String(), "Subcommands:")

	assert.Equal(t, ExitUsage, e.run("", "bogus"))
	assert.Contains(t, e.errOut.String(), "unknown subcommand: bogus")

	assert.Equal(t, ExitUsage, e.run("", "auth"))
	assert.Equal(t, ExitUsage, e.run("", "add"))
	assert.Equal(t, ExitUsage, e.run("", "done"))
	assert.Equal(t, ExitUsage, e.run("", "rm", "a", "b"))
}

func TestLoginPersistsSession(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	assert.Contains(t, e.out.String(), "Welcome back, Ada!")

	_, err := os.Stat(session.NewFileStore(e.cfg.DataDir).Path())
	require.NoError(t, err)

	require.Equal(t, ExitOK, e.run("", "auth", "whoami"))
	assert.Contains(t, e.out.String(), "Ada Lovelace <ada@example.com>")
	assert.Contains(t, e.out.String(), "id: u1")

	require.Equal(t, ExitOK, e.run("", "auth", "status"))
	assert.Contains(t, e.out.String(), "signed in: yes")
	assert.Contains(t, e.out.String(), "token from: stored session")
	assert.Contains(t, e.out.String(), "opaque")
}

func TestLoginPromptsForEmail(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("ada@example.com", "secret", model.Profile{FirstName: "Ada"})

	assert.Equal(t, ExitOK, e.run("ada@example.com\nsecret\n", "auth", "login"))
	assert.Contains(t, e.out.String(), "Email: ")
	assert.Contains(t, e.out.String(), "Password: ")
}

func TestLoginFailureShowsBackendMessage(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("ada@example.com", "secret", model.Profile{})

	assert.Equal(t, ExitError, e.run("wrong\n", "auth", "login", "ada@example.com"))
	assert.Contains(t, e.errOut.String(), "Invalid email or password")

	assert.Equal(t, ExitOK, e.run("", "auth", "status"))
	assert.Contains(t, e.out.String(), "signed in: no")
}

func TestLoginInputEnded(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, ExitUsage, e.run("", "auth", "login"))
	assert.Zero(t, e.srv.Hits("POST /auth/login"))
}

func TestRegister(t *testing.T) {
	e := newEnv(t)
	stdin := strings.Join([]string{"Grace", "Hopper", "555", "grace@example.com", "pw", "pw", ""}, "\n") + "\n"

	require.Equal(t, ExitOK, e.run(stdin, "auth", "register"), e.errOut.String())
	assert.Contains(t, e.out.String(), "Welcome back, Grace!")

	mismatch := strings.Join([]string{"Grace", "Hopper", "555", "g2@example.com", "pw", "nope", ""}, "\n") + "\n"
	assert.Equal(t, ExitError, e.run(mismatch, "auth", "register"))
	assert.Contains(t, e.errOut.String(), "invalid input")
	assert.Equal(t, 1, e.srv.Hits("POST /auth/register"))
}

func TestCommandsRequireLogin(t *testing.T) {
	e := newEnv(t)
	for _, args := range [][]string{{"ls"}, {"add", "x"}, {"done", "1"}, {"rm", "1"}, {"tui"}, {"auth", "whoami"}} {
		assert.Equal(t, ExitError, e.run("", args...), args)
		assert.Contains(t, e.errOut.String(), "not signed in", args)
	}
	assert.Zero(t, e.srv.Hits("GET /todos"))
}

func TestTodoLifecycle(t *testing.T) {
	e := newEnv(t)
	tok := e.login(t)

	require.Equal(t, ExitOK, e.run("", "add", "buy", "milk"))
	assert.Contains(t, e.out.String(), "Todo created")

	seeded := e.srv.Seed(tok, "call mum", false)

	require.Equal(t, ExitOK, e.run("", "ls"))
	out := e.out.String()
	assert.Contains(t, out, "buy milk")
	assert.Contains(t, out, "call mum")
	assert.Contains(t, out, "Showing 2 of 2 todos")
	assert.Contains(t, out, "page 1/1")

	require.Equal(t, ExitOK, e.run("", "done", seeded.ID))
	assert.Contains(t, e.out.String(), "Todo updated")
	stored, _ := e.srv.Todo(seeded.ID)
	assert.True(t, stored.IsDone)

	require.Equal(t, ExitOK, e.run("", "ls", "-status", "done"))
	assert.Contains(t, e.out.String(), "call mum")
	assert.NotContains(t, e.out.String(), "buy milk")

	require.Equal(t, ExitOK, e.run("", "undone", seeded.ID))
	stored, _ = e.srv.Todo(seeded.ID)
	assert.False(t, stored.IsDone)

	require.Equal(t, ExitOK, e.run("", "rm", seeded.ID))
	assert.Contains(t, e.out.String(), "Todo deleted")
	_, ok := e.srv.Todo(seeded.ID)
	assert.False(t, ok)
}

func TestListEmptyState(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	require.Equal(t, ExitOK, e.run("", "ls", "-search", "nothing"))
	assert.Contains(t, e.out.String(), "No todos found. Create your first todo!")
	assert.Contains(t, e.out.String(), `search: "nothing"`)
}

func TestListFlagValidation(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	assert.Equal(t, ExitUsage, e.run("", "ls", "-status", "maybe"))
	assert.Equal(t, ExitUsage, e.run("", "ls", "-rule", "up"))
	assert.Equal(t, ExitUsage, e.run("", "ls", "-rows", "0"))
	assert.Equal(t, ExitUsage, e.run("", "ls", "extra"))
	assert.Zero(t, e.srv.Hits("GET /todos"))
}

func TestMutationFailureShowsBackendMessage(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	assert.Equal(t, ExitError, e.run("", "rm", "missing"))
	assert.Contains(t, e.errOut.String(), "Error: Todo not found")
}

func TestAddRejectsBlankText(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	assert.Equal(t, ExitError, e.run("", "add", "  "))
	assert.Zero(t, e.srv.Hits("POST /todos"))
}

func TestExpiredTokenSignsOut(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	e.srv.RevokeTokens()

	assert.Equal(t, ExitError, e.run("", "ls"))
	assert.Contains(t, e.errOut.String(), "session expired")

	// the cleared session was persisted
	assert.Equal(t, ExitOK, e.run("", "auth", "status"))
	assert.Contains(t, e.out.String(), "signed in: no")
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	require.Equal(t, ExitOK, e.run("", "auth", "logout"))
	assert.Contains(t, e.out.String(), "signed out")
	assert.Equal(t, ExitError, e.run("", "ls"))
	assert.Equal(t, 1, e.srv.Hits("POST /auth/login"), "logout never calls the backend")
}

func TestEnvTokenOverride(t *testing.T) {
	e := newEnv(t)
	e.cfg.Token = e.srv.AddUser("ada@example.com", "secret", model.Profile{FirstName: "Ada"})

	require.Equal(t, ExitOK, e.run("", "ls"))
	require.Equal(t, ExitOK, e.run("", "auth", "status"))
	assert.Contains(t, e.out.String(), "token from: TADA_TOKEN")

	require.Equal(t, ExitOK, e.run("", "auth", "whoami"))
	assert.Contains(t, e.out.String(), "profile unknown")

	require.Equal(t, ExitOK, e.run("", "auth", "logout"))
	assert.Contains(t, e.errOut.String(), "TADA_TOKEN is still set")
}

func TestStatusShowsTokenTimes(t *testing.T) {
	e := newEnv(t)
	issued := time.Now().Add(-time.Hour).Truncate(time.Second)
	expires := issued.Add(24 * time.Hour)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expires),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	e.cfg.Token = tok

	require.Equal(t, ExitOK, e.run("", "auth", "status"))
	out := e.out.String()
	assert.Contains(t, out, "token: expires "+expires.Local().Format(time.RFC1123))
	assert.Contains(t, out, "issued: "+issued.Local().Format(time.RFC1123))
}
