package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryParamsValues(t *testing.T) {
	p := DefaultQuery().WithStatus(StatusDone).WithSearch("milk")
	p.RangedFilters = []RangedFilter{{Key: "createdAt", Start: 1, End: 2}}

	v, err := p.Values()
	require.NoError(t, err)

	assert.Equal(t, "1", v.Get("page"))
	assert.Equal(t, "50", v.Get("rows"))
	assert.Equal(t, "createdAt", v.Get("orderKey"))
	assert.Equal(t, "desc", v.Get("orderRule"))
	assert.JSONEq(t, `{"isDone":true}`, v.Get("filters"))
	assert.JSONEq(t, `{"item":"milk"}`, v.Get("searchFilters"))
	assert.JSONEq(t, `[{"key":"createdAt","start":1,"end":2}]`, v.Get("rangedFilters"))
}

func TestQueryParamsValuesOmitsEmpty(t *testing.T) {
	v, err := QueryParams{}.Values()
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestStatusFilterRoundTrip(t *testing.T) {
	tests := []struct {
		in   StatusFilter
		want any
	}{
		{StatusDone, true},
		{StatusUndone, false},
		{StatusAll, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			p := DefaultQuery().WithStatus(StatusDone).WithStatus(tt.in)
			assert.Equal(t, tt.in, p.Status())
			if tt.want == nil {
				assert.Nil(t, p.Filters)
				return
			}
			assert.Equal(t, tt.want, p.Filters["isDone"])
		})
	}
}

func TestWithHelpersDoNotMutateReceiver(t *testing.T) {
	base := DefaultQuery().WithSearch("a").WithPage(3)
	_ = base.WithSearch("b").WithStatus(StatusUndone)

	assert.Equal(t, "a", base.Search())
	assert.Equal(t, StatusAll, base.Status())
	assert.Equal(t, 3, base.Page)
}

func TestWithSearchResetsPage(t *testing.T) {
	p := DefaultQuery().WithPage(4).WithSearch("  ")
	assert.Equal(t, 1, p.Page)
	assert.Nil(t, p.SearchFilters)
}

func TestCacheKeyIsDeterministic(t *testing.T) {
	a := QueryParams{Filters: map[string]any{"isDone": true, "b": 1}, Page: 1}
	b := QueryParams{Filters: map[string]any{"b": 1, "isDone": true}, Page: 1}
	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, a.CacheKey(), a.WithPage(2).CacheKey())
}

func TestParseStatusFilter(t *testing.T) {
	f, err := ParseStatusFilter("DONE")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, f)

	f, err = ParseStatusFilter("")
	require.NoError(t, err)
	assert.Equal(t, StatusAll, f)

	_, err = ParseStatusFilter("maybe")
	assert.Error(t, err)

	assert.Equal(t, StatusDone, StatusAll.Next())
	assert.Equal(t, StatusUndone, StatusDone.Next())
	assert.Equal(t, StatusAll, StatusUndone.Next())
}

func TestToggleFollowsBackendValue(t *testing.T) {
	assert.Equal(t, ActionDone, Toggle(Todo{IsDone: false}))
	assert.Equal(t, ActionUndone, Toggle(Todo{IsDone: true}))
}

func TestCreateTodoValidation(t *testing.T) {
	req := &CreateTodoRequest{Item: "   "}
	err := req.Validate()

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "item")

	req = &CreateTodoRequest{Item: "  buy milk "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "buy milk", req.Item)

	req = &CreateTodoRequest{Item: strings.Repeat("long ", 400)}
	require.NoError(t, req.Validate())
}

func TestRegisterValidation(t *testing.T) {
	req := RegisterRequest{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		PhoneNumber:     "123",
		Email:           "ada@example.com",
		Password:        "pw",
		ConfirmPassword: "pw",
	}
	require.NoError(t, req.Validate())

	req.ConfirmPassword = "other"
	req.Email = "nope"
	err := req.Validate()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "does not match password", ve.Fields["confirmPassword"])
	assert.Equal(t, "must be a valid email address", ve.Fields["email"])
	assert.NotContains(t, ve.Fields, "bio")
}

func TestMarkValidation(t *testing.T) {
	require.NoError(t, MarkTodoRequest{Action: ActionUndone}.Validate())
	assert.Error(t, MarkTodoRequest{Action: "FLIP"}.Validate())
}

func TestTodoDecodes(t *testing.T) {
	raw := `{"id":"t1","item":"buy milk","userId":"u1","isDone":true,
		"createdAt":"2024-01-02T03:04:05Z","updatedAt":"2024-01-02T03:04:06Z"}`
	var td Todo
	require.NoError(t, json.Unmarshal([]byte(raw), &td))
	assert.Equal(t, "t1", td.ID)
	assert.True(t, td.IsDone)
	assert.Equal(t, "Success", td.Status())
	assert.Equal(t, 2024, td.CreatedAt.Year())
}
