// Package tui is the interactive todo list. Every change goes through the
// backend; the screen only shows what the last fetch returned.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/query"
	"github.com/idilsaglam/tada/internal/session"
)

// ErrSessionExpired is returned by Run when the backend rejected the token.
var ErrSessionExpired = errors.New("session expired")

// Backend reads and writes todos.
type Backend interface {
	query.Lister
	query.Writer
}

// Session reports sign-in changes, such as the sign-out after a 401.
type Session interface {
	Subscribe(fn func(session.State))
}

type Deps struct {
	Query   *query.Client
	Todos   Backend
	Session Session
	User    *model.Profile
	Params  model.QueryParams
	Logger  *log.Logger
}

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeSearch
	modeConfirmDelete
)

type (
	listMsg      query.ListState
	noticeMsg    query.Notice
	doneMsg      struct{ err error }
	signedOutMsg struct{}
)

// todoItem adapts model.Todo to list.Item.
type todoItem struct{ model.Todo }

func (i todoItem) Title() string       { return i.Item }
func (i todoItem) Description() string { return i.Status() }
func (i todoItem) FilterValue() string { return i.Item }

// itemDelegate renders one todo per line.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}
	box, text, badge := mutedStyle.Render(boxUnchecked), it.Item, pendingStyle.Render(it.Status())
	if it.IsDone {
		box, text, badge = successStyle.Render(boxChecked), doneStyle.Render(it.Item), successStyle.Render(it.Status())
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render(">") + " "
	}
	fmt.Fprintf(w, "%s%s %s  %s", prefix, box, text, badge)
}

// Model is the Bubble Tea model of the list screen. Network work runs in
// commands; list states and notices come back through events.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	events chan tea.Msg

	client *query.Client
	view   *query.ListView
	mut    *query.Mutations
	logger *log.Logger

	keys  keyMap
	help  help.Model
	list  list.Model
	input textinput.Model
	mode  mode

	user    *model.Profile
	params  model.QueryParams
	state   query.ListState
	target  *model.Todo
	notice  *query.Notice
	expired bool
}

// New builds the model. Call Close once the program has ended.
func New(ctx context.Context, d Deps) Model {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Params.Page == 0 {
		d.Params = model.DefaultQuery()
	}
	ctx, cancel := context.WithCancel(ctx)
	events := make(chan tea.Msg, 64)
	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		case <-ctx.Done():
		}
	}

	view := query.NewListView(d.Query, d.Todos, d.Params)
	view.OnChange(func(st query.ListState) { send(listMsg(st)) })
	mut := query.NewMutations(d.Query, d.Todos, query.NotifierFunc(func(n query.Notice) { send(noticeMsg(n)) }), d.Logger)
	if d.Session != nil {
		d.Session.Subscribe(func(st session.State) {
			if !st.IsAuthenticated && !st.IsLoading {
				send(signedOutMsg{})
			}
		})
	}

	l := list.New(nil, itemDelegate{}, 80, 16)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("right", "pgdown"))
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("left", "pgup"))
	l.Styles.PaginationStyle = helpStyle

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 0

	return Model{
		ctx:    ctx,
		cancel: cancel,
		events: events,
		client: d.Query,
		view:   view,
		mut:    mut,
		logger: d.Logger,
		keys:   defaultKeys(),
		help:   help.New(),
		list:   l,
		input:  ti,
		user:   d.User,
		params: d.Params,
		state:  view.Snapshot(),
	}
}

// Close stops background work started by the model.
func (m Model) Close() {
	m.cancel()
	m.view.Close()
}

// Run shows the list until the user quits or the session expires.
func Run(ctx context.Context, d Deps) error {
	m := New(ctx, d)
	defer m.Close()

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.expired {
		return ErrSessionExpired
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitEvent(), m.run(m.view.Load))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.list.SetSize(msg.Width-4, max(msg.Height-10, 3))
		return m, nil

	case listMsg:
		m.applyState(query.ListState(msg))
		if errors.Is(m.state.Err, api.ErrUnauthorized) {
			return m.expire()
		}
		if cmd := m.clampPage(); cmd != nil {
			return m, tea.Batch(m.waitEvent(), cmd)
		}
		return m, m.waitEvent()

	case signedOutMsg:
		return m.expire()

	case noticeMsg:
		n := query.Notice(msg)
		m.notice = &n
		return m, m.waitEvent()

	case doneMsg:
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return m.expire()
		}
		if msg.err != nil {
			m.logger.Debug("command failed", "err", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	if m.mode == modeAdd || m.mode == modeSearch {
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeAdd, modeSearch:
		return m.handleInput(msg)
	case modeConfirmDelete:
		target := m.target
		m.mode, m.target = modeBrowse, nil
		if msg.String() != "y" || target == nil {
			return m, nil
		}
		mut, id := m.mut, target.ID
		return m, m.run(func(ctx context.Context) error { return mut.Delete(ctx, id) })
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		td, ok := m.selected()
		if !ok {
			return m, nil
		}
		mut := m.mut
		return m, m.run(func(ctx context.Context) error {
			_, err := mut.Toggle(ctx, td)
			return err
		})

	case key.Matches(msg, m.keys.Delete):
		if td, ok := m.selected(); ok {
			m.mode, m.target = modeConfirmDelete, &td
		}
		return m, nil

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.input.SetValue("")
		m.input.Placeholder = "What needs to be done?"
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.input.SetValue(m.params.Search())
		m.input.CursorEnd()
		m.input.Placeholder = "Search todos"
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Filter):
		cmd := m.setParams(m.params.WithStatus(m.params.Status().Next()))
		return m, cmd

	case key.Matches(msg, m.keys.Next):
		if page := max(m.params.Page, 1); page < m.totalPages() {
			cmd := m.setParams(m.params.WithPage(page + 1))
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		if page := max(m.params.Page, 1); page > 1 {
			cmd := m.setParams(m.params.WithPage(page - 1))
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		client := m.client
		return m, m.run(func(ctx context.Context) error {
			return client.Invalidate(ctx, query.FamilyTodos)
		})
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.cancel()
		return m, tea.Quit
	case tea.KeyEsc:
		m.closeInput()
		return m, nil
	case tea.KeyEnter:
		value, md := m.input.Value(), m.mode
		m.closeInput()
		if md == modeSearch {
			cmd := m.setParams(m.params.WithSearch(value))
			return m, cmd
		}
		mut := m.mut
		return m, m.run(func(ctx context.Context) error {
			_, err := mut.Create(ctx, value)
			return err
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = modeBrowse
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) applyState(st query.ListState) {
	m.state = st
	if st.Status != query.StatusSuccess {
		return
	}
	entries := st.Entries()
	items := make([]list.Item, len(entries))
	for i, td := range entries {
		items[i] = todoItem{td}
	}
	m.list.SetItems(items)
	if n := len(items); n > 0 && m.list.Index() >= n {
		m.list.Select(n - 1)
	}
}

func (m Model) expire() (tea.Model, tea.Cmd) {
	m.expired = true
	m.notice = &query.Notice{Kind: query.NoticeError, Title: "Error", Description: "session expired, please log in again"}
	m.cancel()
	return m, tea.Quit
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	return it.Todo, ok
}

func (m Model) totalPages() int {
	if m.state.Page == nil {
		return 1
	}
	return max(m.state.Page.TotalPage, 1)
}

// clampPage steps back to the last page when the shown one no longer
// exists, e.g. after deleting the only entry of the final page.
func (m *Model) clampPage() tea.Cmd {
	pg := m.state.Page
	if m.state.Status != query.StatusSuccess || pg == nil || pg.TotalPage < 1 || m.state.Params.Page <= pg.TotalPage {
		return nil
	}
	return m.setParams(m.params.WithPage(pg.TotalPage))
}

// setParams switches the view to p; the fetch runs in a command.
func (m *Model) setParams(p model.QueryParams) tea.Cmd {
	m.params = p
	view := m.view
	return m.run(func(ctx context.Context) error { return view.SetParams(ctx, p) })
}

func (m Model) run(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg { return doneMsg{err: fn(ctx)} }
}

func (m Model) waitEvent() tea.Cmd {
	events, done := m.events, m.ctx.Done()
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-done:
			return nil
		}
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(greeting(m.user)))
	b.WriteString("  " + accentStyle.Render(filterLine(m.params)) + "\n\n")
	b.WriteString(m.body() + "\n")

	if m.state.Page != nil {
		page := max(m.state.Params.Page, 1)
		b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("%s · page %d/%d", m.state.Summary(), page, m.totalPages())) + "\n")
	}

	switch m.mode {
	case modeAdd:
		b.WriteString(inputStyle.Render("Add todo\n"+m.input.View()) + "\n")
	case modeSearch:
		b.WriteString(inputStyle.Render("Search\n"+m.input.View()) + "\n")
	case modeConfirmDelete:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Delete %q? (y/n)", m.target.Item)) + "\n")
	}
	if m.notice != nil {
		b.WriteString(noticeView(*m.notice) + "\n")
	}
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return frameStyle.Render(b.String())
}

func (m Model) body() string {
	switch {
	case m.state.Status == query.StatusError:
		return errorStyle.Render(m.state.Err.Error())
	case m.state.Page == nil:
		return mutedStyle.Render("Loading todos...")
	case m.state.Empty():
		return mutedStyle.Render(query.EmptyText)
	case m.state.Status == query.StatusLoading:
		return m.list.View() + "\n" + mutedStyle.Render("Refreshing...")
	}
	return m.list.View()
}

func greeting(u *model.Profile) string {
	if u == nil || u.FirstName == "" {
		return "Welcome back!"
	}
	return fmt.Sprintf("Welcome back, %s!", u.FirstName)
}

func filterLine(p model.QueryParams) string {
	s := "status: " + string(p.Status())
	if term := p.Search(); term != "" {
		s += fmt.Sprintf(" · search: %q", term)
	}
	return s
}

func noticeView(n query.Notice) string {
	if n.Kind == query.NoticeError {
		return errorStyle.Render("✖ " + n.Title + ": " + n.Description)
	}
	return successStyle.Render("✔ " + n.Title + ": " + n.Description)
}
