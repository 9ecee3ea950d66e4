package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/query"
	"github.com/idilsaglam/tada/internal/ui"
)

func (a *app) list(ctx context.Context, args []string) int {
	def := model.DefaultQuery()
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(a.out)
	status := fs.String("status", "all", "all, done or undone")
	search := fs.String("search", "", "only todos whose text contains this")
	page := fs.Int("page", def.Page, "page number (1-based)")
	rows := fs.Int("rows", def.Rows, "rows per page")
	order := fs.String("order", def.OrderKey, "field to order by")
	rule := fs.String("rule", string(def.OrderRule), "asc or desc")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() > 0 {
		ui.Fail("ls: unexpected argument " + fs.Arg(0))
		return ExitUsage
	}

	sf, err := model.ParseStatusFilter(*status)
	if err != nil {
		ui.Fail("ls: " + err.Error())
		return ExitUsage
	}
	if *rule != string(model.OrderAsc) && *rule != string(model.OrderDesc) {
		ui.Fail("ls: -rule must be asc or desc")
		return ExitUsage
	}
	if *rows < 1 {
		ui.Fail("ls: -rows must be at least 1")
		return ExitUsage
	}
	params := def.WithStatus(sf).WithSearch(*search).WithPage(*page)
	params.Rows = *rows
	params.OrderKey = *order
	params.OrderRule = model.OrderRule(*rule)

	if !a.requireAuth() {
		return ExitError
	}

	view := query.NewListView(a.queries, a.todos, params)
	defer view.Close()
	if err := view.Load(ctx); err != nil {
		report(err)
		return ExitError
	}

	t := ui.Current()
	header := ui.C(t.Title, "Todos") + "  " + ui.C(t.Muted, describeQuery(params))
	lines := append([]string{header, ""}, ui.ListLines(view.Snapshot())...)
	ui.Panel(lines)
	return ExitOK
}

func describeQuery(p model.QueryParams) string {
	s := "status: " + string(p.Status())
	if term := p.Search(); term != "" {
		s += fmt.Sprintf(", search: %q", term)
	}
	return s
}

func (a *app) add(ctx context.Context, text string) int {
	if !a.requireAuth() {
		return ExitError
	}
	if _, err := a.mutations().Create(ctx, text); err != nil {
		return a.mutationFailed(err)
	}
	return ExitOK
}

func (a *app) mark(ctx context.Context, id string, action model.MarkAction) int {
	if !a.requireAuth() {
		return ExitError
	}
	if _, err := a.mutations().Mark(ctx, id, action); err != nil {
		return a.mutationFailed(err)
	}
	return ExitOK
}

func (a *app) remove(ctx context.Context, id string) int {
	if !a.requireAuth() {
		return ExitError
	}
	if err := a.mutations().Delete(ctx, id); err != nil {
		return a.mutationFailed(err)
	}
	return ExitOK
}

// mutationFailed adds a hint after the notice the mutation already printed.
func (a *app) mutationFailed(err error) int {
	if errors.Is(err, api.ErrUnauthorized) {
		ui.Hint("run `todo auth login` to sign in again")
	}
	return ExitError
}
