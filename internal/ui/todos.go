package ui

import (
	"fmt"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/query"
)

const maxItemWidth = 80

// TodoLine renders one todo as "☐ item  <badge>  <id>".
func TodoLine(td model.Todo) string {
	t := current
	box, color := t.BoxUnchecked, t.Muted
	if td.IsDone {
		box, color = t.BoxChecked, t.Success
	}
	item := td.Item
	if r := []rune(item); len(r) > maxItemWidth {
		item = string(r[:maxItemWidth-3]) + "..."
	}
	return fmt.Sprintf("%s %s  %s  %s", C(color, box), item, Badge(td), C(dim, td.ID))
}

// Badge is the status label of a todo as reported by the backend.
func Badge(td model.Todo) string {
	t := current
	if td.IsDone {
		return C(t.Success, t.SymDone+" "+td.Status())
	}
	return C(t.Pending, t.SymPending+" "+td.Status())
}

// ListLines renders a list state: loading, error, empty, or entries with
// the summary footer and page bar.
func ListLines(st query.ListState) []string {
	t := current
	switch st.Status {
	case query.StatusIdle, query.StatusLoading:
		return []string{C(t.Muted, "Loading todos...")}
	case query.StatusError:
		msg := "Failed to load todos."
		if st.Err != nil {
			msg = st.Err.Error()
		}
		return []string{C(t.Error, symCross+" "+msg)}
	}
	if st.Empty() {
		return []string{C(t.Muted, query.EmptyText)}
	}

	entries := st.Entries()
	lines := make([]string, 0, len(entries)+3)
	for _, td := range entries {
		lines = append(lines, TodoLine(td))
	}
	lines = append(lines, "")
	lines = append(lines, C(t.Muted, st.Summary()))
	lines = append(lines, C(t.Muted, PageBar(st.Params.Page, st.Page.TotalPage, 20)))
	return lines
}

// NoticeLine formats a notice for a single status line.
func NoticeLine(n query.Notice) string {
	t := current
	if n.Kind == query.NoticeError {
		return C(t.Error, symCross+" "+n.Title+": "+n.Description)
	}
	return C(t.Success, symCheck+" "+n.Title+": "+n.Description)
}

// PrintNotice writes successes to stdout and failures to stderr.
func PrintNotice(n query.Notice) {
	if n.Kind == query.NoticeError {
		fmt.Fprintln(stderr, NoticeLine(n))
		return
	}
	fmt.Fprintln(stdout, NoticeLine(n))
}

// Notices is a query.Notifier that prints every notice.
var Notices query.Notifier = query.NotifierFunc(PrintNotice)
