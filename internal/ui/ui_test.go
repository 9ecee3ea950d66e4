package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/query"
)

func plain(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr := stdout, stderr
	SetOutput(&out, &errOut)
	SetColorForcing(false, true)
	SetTheme("classic")
	t.Cleanup(func() {
		SetOutput(prevOut, prevErr)
		SetColorForcing(false, false)
	})
	return &out, &errOut
}

func TestPanelAlignsWideGlyphs(t *testing.T) {
	plain(t)
	got := PanelString([]string{"☐ a", "longer line"})
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, lines, 4)
	for _, ln := range lines[1:] {
		assert.Equal(t, visibleWidth(lines[0]), visibleWidth(ln), ln)
	}
}

func TestVisibleWidthSkipsEscapes(t *testing.T) {
	assert.Equal(t, 5, visibleWidth("\x1b[38;2;1;2;3mhello\x1b[0m"))
	assert.Equal(t, 4, visibleWidth("\x1b]8;;http://x\x07link\x1b]8;;\x07"))
	assert.Equal(t, 2, visibleWidth("日"))
}

func TestPageBar(t *testing.T) {
	plain(t)
	assert.Equal(t, "█████░░░░░ page 1/2", PageBar(1, 2, 10))
	assert.Equal(t, "██████████ page 1/1", PageBar(1, 0, 10))
}

func TestListLinesStates(t *testing.T) {
	plain(t)

	assert.Equal(t, []string{"Loading todos..."}, ListLines(query.ListState{Status: query.StatusLoading}))
	assert.Equal(t, []string{"✖ boom"}, ListLines(query.ListState{Status: query.StatusError, Err: errors.New("boom")}))
	assert.Equal(t, []string{query.EmptyText}, ListLines(query.ListState{
		Status: query.StatusSuccess,
		Page:   &model.Page[model.Todo]{},
	}))

	st := query.ListState{
		Status: query.StatusSuccess,
		Params: model.DefaultQuery(),
		Page: &model.Page[model.Todo]{
			Entries:   []model.Todo{{ID: "1", Item: "milk", IsDone: true}, {ID: "2", Item: "eggs"}},
			TotalData: 7,
			TotalPage: 4,
		},
	}
	lines := ListLines(st)
	require.Len(t, lines, 5)
	assert.Equal(t, "☑ milk  ✔ Success  1", lines[0])
	assert.Equal(t, "☐ eggs  • Pending  2", lines[1])
	assert.Equal(t, "Showing 2 of 7 todos", lines[3])
	assert.Contains(t, lines[4], "page 1/4")
}

func TestTodoLineTruncatesLongItems(t *testing.T) {
	plain(t)
	line := TodoLine(model.Todo{ID: "x", Item: strings.Repeat("é", 200)})
	assert.Contains(t, line, "...")
	assert.Less(t, len([]rune(line)), 100)
}

func TestPrintNoticeRoutesByKind(t *testing.T) {
	out, errOut := plain(t)
	Notices.Notify(query.Notice{Kind: query.NoticeSuccess, Title: "Todo created", Description: "done"})
	Notices.Notify(query.Notice{Kind: query.NoticeError, Title: "Error", Description: "nope"})

	assert.Equal(t, "✔ Todo created: done\n", out.String())
	assert.Equal(t, "✖ Error: nope\n", errOut.String())
}

func TestMonoThemeDisablesColour(t *testing.T) {
	plain(t)
	SetColorForcing(true, false)
	SetTheme("mono")
	t.Cleanup(func() { SetTheme("classic") })

	assert.Equal(t, "[x] milk  x Success  1", TodoLine(model.Todo{ID: "1", Item: "milk", IsDone: true}))
}
