package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/session"
	"github.com/idilsaglam/tada/internal/ui"
)

func (a *app) auth(ctx context.Context, args []string) int {
	if len(args) == 0 {
		ui.Fail("usage: todo auth <login|register|logout|status|whoami>")
		return ExitUsage
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "login":
		if len(rest) > 1 {
			ui.Fail("usage: todo auth login [email]")
			return ExitUsage
		}
		return a.login(ctx, rest)
	case "register":
		return a.register(ctx)
	case "logout":
		return a.logout()
	case "status":
		return a.status()
	case "whoami":
		return a.whoami()
	}
	ui.Fail("unknown auth subcommand: " + sub)
	return ExitUsage
}

func (a *app) login(ctx context.Context, args []string) int {
	var email string
	if len(args) == 1 {
		email = strings.TrimSpace(args[0])
	}
	var err error
	if email == "" {
		if email, err = a.prompt("Email"); err != nil {
			return a.promptFailed(err)
		}
	}
	password, err := a.promptSecret("Password")
	if err != nil {
		return a.promptFailed(err)
	}

	if err := a.session.Login(ctx, email, password); err != nil {
		report(err)
		return ExitError
	}
	a.welcome()
	return ExitOK
}

func (a *app) register(ctx context.Context) int {
	var req model.RegisterRequest
	fields := []struct {
		label  string
		dst    *string
		secret bool
	}{
		{"First name", &req.FirstName, false},
		{"Last name", &req.LastName, false},
		{"Phone number", &req.PhoneNumber, false},
		{"Email", &req.Email, false},
		{"Password", &req.Password, true},
		{"Confirm password", &req.ConfirmPassword, true},
		{"Bio (optional)", &req.Bio, false},
	}
	for _, f := range fields {
		var err error
		if f.secret {
			*f.dst, err = a.promptSecret(f.label)
		} else {
			*f.dst, err = a.prompt(f.label)
		}
		if err != nil {
			return a.promptFailed(err)
		}
	}

	if err := a.session.Register(ctx, req); err != nil {
		report(err)
		return ExitError
	}
	a.welcome()
	return ExitOK
}

func (a *app) welcome() {
	st := a.session.State()
	name := "back"
	if st.User != nil && st.User.FirstName != "" {
		name = "back, " + st.User.FirstName
	}
	ui.OK("Welcome " + name + "!")
}

func (a *app) logout() int {
	if err := a.session.Logout(); err != nil {
		ui.Fail("logout: " + err.Error())
		return ExitError
	}
	ui.OK("signed out")
	if a.session.EnvOverride() {
		ui.Hint("TADA_TOKEN is still set and will be used on the next run")
	}
	return ExitOK
}

func (a *app) status() int {
	st := a.session.State()
	t := ui.Current()
	if !st.IsAuthenticated {
		ui.Info("signed in: " + ui.C(t.Pending, "no"))
		return ExitOK
	}

	source := "stored session"
	if a.session.Source() == session.SourceEnv {
		source = "TADA_TOKEN"
	}
	ui.Info("signed in: " + ui.C(t.Success, "yes"))
	ui.Info("token from: " + source)

	info := session.Inspect(st.Token)
	switch {
	case info.Opaque:
		ui.Info("token: opaque, expiry unknown")
	case info.ExpiresAt == nil:
		ui.Info("token: no expiry")
	case info.Expired(time.Now()):
		ui.Info("token: " + ui.C(t.Error, "expired "+info.ExpiresAt.Local().Format(time.RFC1123)))
	default:
		ui.Info("token: expires " + info.ExpiresAt.Local().Format(time.RFC1123))
	}
	if info.IssuedAt != nil {
		ui.Info("issued: " + info.IssuedAt.Local().Format(time.RFC1123))
	}
	return ExitOK
}

func (a *app) whoami() int {
	if !a.requireAuth() {
		return ExitError
	}
	u := a.session.State().User
	if u == nil {
		ui.Info("signed in with TADA_TOKEN; profile unknown")
		return ExitOK
	}
	ui.Info(fmt.Sprintf("%s <%s>", u.FullName(), u.Email))
	ui.Info("id: " + u.ID)
	return ExitOK
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo when stdin is a terminal.
func (a *app) promptSecret(label string) (string, error) {
	f, ok := a.in.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return a.prompt(label)
	}
	fmt.Fprintf(a.out, "%s: ", label)
	b, err := term.ReadPassword(f.Fd())
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (a *app) promptFailed(err error) int {
	if errors.Is(err, io.EOF) {
		ui.Fail("input ended before all fields were entered")
		return ExitUsage
	}
	ui.Fail("reading input: " + err.Error())
	return ExitError
}
