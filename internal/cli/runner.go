package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/ui"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Options carry what the root command resolved.
type Options struct {
	Config *config.Config
	Logger *log.Logger

	// In and Out are used for prompts; they default to the process stdio.
	In  io.Reader
	Out io.Writer
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp(outOf(opt))
		return ExitUsage
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(outOf(opt))
		return ExitOK
	case "auth", "ls", "add", "done", "undone", "rm", "tui":
	default:
		ui.Fail("unknown subcommand: " + cmd)
		PrintHelp(outOf(opt))
		return ExitUsage
	}

	app := newApp(opt)

	switch cmd {
	case "auth":
		return app.auth(ctx, a)
	case "ls":
		return app.list(ctx, a)
	case "add":
		if len(a) == 0 {
			ui.Fail("usage: todo add <text...>")
			return ExitUsage
		}
		return app.add(ctx, strings.Join(a, " "))
	case "done", "undone":
		if len(a) != 1 {
			ui.Fail("usage: todo " + cmd + " <id>")
			return ExitUsage
		}
		action := model.ActionDone
		if cmd == "undone" {
			action = model.ActionUndone
		}
		return app.mark(ctx, a[0], action)
	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: todo rm <id>")
			return ExitUsage
		}
		return app.remove(ctx, a[0])
	}
	return app.interactive(ctx)
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `todo - a terminal client for your remote todo list

Usage:
  todo [flags] <subcommand> [args]

Flags:
  -config <path>     config file (default ~/.tada/config.toml)
  -api <url>         backend base URL
  -timeout <dur>     request timeout (default 10s)
  -theme <name>      classic, neon or mono
  -no-color          disable colours
  -v                 debug logging

Subcommands:
  auth login [email] Sign in (prompts for what is missing)
  auth register      Create an account and sign in
  auth logout        Forget the stored session
  auth status        Show where the token comes from and when it expires
  auth whoami        Show the signed-in profile
  ls [flags]         List todos (-status all|done|undone, -search, -page, -rows, -order, -rule)
  add <text...>      Create a todo
  done <id>          Mark a todo as done
  undone <id>        Mark a todo as not done
  rm <id>            Delete a todo
  tui                Interactive list

Examples:
  todo auth login me@example.com
  todo add "Buy milk"
  todo ls -status undone -search milk
  todo done 6f1c...
`)
}

func outOf(opt Options) io.Writer {
	if opt.Out != nil {
		return opt.Out
	}
	return os.Stdout
}

// report prints err in user terms with a hint where one helps.
func report(err error) {
	var (
		verr *model.ValidationError
		terr *api.TransportError
	)
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		ui.Fail("session expired or invalid")
		ui.Hint("run `todo auth login` to sign in again")
	case errors.As(err, &verr):
		ui.Fail("invalid input: " + verr.Error())
	case errors.As(err, &terr):
		ui.Fail("cannot reach the backend: " + terr.Err.Error())
		ui.Hint("check -api / TADA_API_URL and your connection")
	default:
		ui.Fail(err.Error())
	}
}

func discardIfNil(l *log.Logger) *log.Logger {
	if l == nil {
		return logging.Discard()
	}
	return l
}
