package spa

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/MikhailRaia/url-mapper/internal/apitest"
	"github.com/MikhailRaia/url-mapper/internal/client"
	"github.com/MikhailRaia/url-mapper/internal/model"
	"github.com/MikhailRaia/url-mapper/internal/service"
	"github.com/MikhailRaia/url-mapper/internal/session"
	"github.com/MikhailRaia/url-mapper/internal/storage/memory"
	"github.com/MikhailRaia/url-mapper/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	yes = service.ConfirmFunc(func(context.Context, string) bool { return true })
	no  = service.ConfirmFunc(func(context.Context, string) bool { return false })
)

func newTestApp(t *testing.T, opts ...apitest.Option) (*App, *apitest.API, *session.Session) {
	t.Helper()

	api, srv := apitest.NewServer(t, opts...)
	sess := session.New(memory.NewStorage())
	svc := service.NewURLMapService(client.New(srv.URL, sess))

	app := NewApp(svc, sess)
	require.NoError(t, app.Start(context.Background(), PathIndex))

	return app, api, sess
}

func countCalls(api *apitest.API, method string) int {
	n := 0
	for _, r := range api.Requests() {
		if r.Method == method {
			n++
		}
	}
	return n
}

func TestApp_Scenario(t *testing.T) {
	ctx := context.Background()
	app, _, _ := newTestApp(t)

	table := app.Screen().Table
	require.NotNil(t, table)
	require.NotNil(t, table.Placeholder)
	assert.Equal(t, 3, table.Placeholder.ColSpan)
	assert.Equal(t, view.EmptyMessage, table.Placeholder.Message)

	require.NoError(t, app.ClickCreate(ctx))
	assert.Equal(t, ViewNew, app.Screen().Route.View)
	require.NoError(t, app.SetField("key", "abc"))
	require.NoError(t, app.SetField("url", "https://example.com"))
	require.NoError(t, app.Submit(ctx))

	screen := app.Screen()
	assert.Equal(t, ViewIndex, screen.Route.View)
	require.Len(t, screen.Table.Rows, 1)
	assert.Nil(t, screen.Table.Placeholder)
	assert.Equal(t, "abc", screen.Table.Rows[0].Key)
	assert.Equal(t, "https://example.com", screen.Table.Rows[0].URL)

	require.NoError(t, app.ClickEdit(ctx, "abc"))
	screen = app.Screen()
	assert.Equal(t, ViewEdit, screen.Route.View)
	assert.Equal(t, Form{Key: "abc", URL: "https://example.com"}, screen.Form)

	require.NoError(t, app.SetField("url", "https://example.org"))
	require.NoError(t, app.Submit(ctx))
	screen = app.Screen()
	assert.Equal(t, ViewIndex, screen.Route.View)
	assert.Equal(t, "https://example.org", screen.Table.Rows[0].URL)

	require.NoError(t, app.Delete(ctx, "abc", yes))
	screen = app.Screen()
	assert.Equal(t, ViewIndex, screen.Route.View)
	require.NotNil(t, screen.Table.Placeholder)
	assert.Empty(t, screen.Table.Rows)
}

func TestApp_IndexRows(t *testing.T) {
	app, _, _ := newTestApp(t, apitest.WithURLMaps(
		model.URLMap{Key: "a", URL: "https://a.example"},
		model.URLMap{Key: "b", URL: "https://b.example"},
	))

	table := app.Screen().Table
	require.Len(t, table.Rows, 2)
	assert.Nil(t, table.Placeholder)
	assert.Equal(t, "/url_maps/edit/a", table.Rows[0].EditPath)
	assert.Contains(t, table.Rows[0].TestURL, "/a")
}

func TestApp_DeclinedDeleteDoesNothing(t *testing.T) {
	ctx := context.Background()
	app, api, _ := newTestApp(t, apitest.WithURLMaps(model.URLMap{Key: "abc", URL: "https://example.com"}))

	before := len(api.Requests())
	require.NoError(t, app.Delete(ctx, "abc", no))

	assert.Equal(t, before, len(api.Requests()))
	assert.Equal(t, 0, countCalls(api, http.MethodDelete))
	assert.Len(t, app.Screen().Table.Rows, 1)
}

func TestApp_FailedDeleteIsReported(t *testing.T) {
	ctx := context.Background()
	app, api, _ := newTestApp(t, apitest.WithURLMaps(model.URLMap{Key: "abc", URL: "https://example.com"}))
	api.FailDeletes(true)

	err := app.Delete(ctx, "abc", yes)
	assert.ErrorIs(t, err, service.ErrDeleteFailed)
	assert.ErrorIs(t, app.Screen().Err, service.ErrDeleteFailed)
	assert.Len(t, app.Screen().Table.Rows, 1)
}

func TestApp_CancelIsPureNavigation(t *testing.T) {
	ctx := context.Background()
	app, api, _ := newTestApp(t, apitest.WithURLMaps(model.URLMap{Key: "abc", URL: "https://example.com"}))

	require.NoError(t, app.ClickCreate(ctx))
	require.NoError(t, app.SetField("key", "zzz"))
	require.NoError(t, app.Cancel(ctx))

	assert.Equal(t, ViewIndex, app.Screen().Route.View)
	assert.Equal(t, 0, countCalls(api, http.MethodPost))

	require.NoError(t, app.ClickEdit(ctx, "abc"))
	require.NoError(t, app.Cancel(ctx))
	assert.Equal(t, ViewIndex, app.Screen().Route.View)
	assert.Equal(t, 0, countCalls(api, http.MethodPut))
}

func TestApp_EditLoadsOnlyOnEntry(t *testing.T) {
	ctx := context.Background()
	app, api, _ := newTestApp(t, apitest.WithURLMaps(model.URLMap{Key: "abc", URL: "https://example.com"}))

	require.NoError(t, app.Navigate(ctx, EditPath("abc")))
	gets := countCalls(api, http.MethodGet)

	require.NoError(t, app.SetField("key", "abcd"))
	require.NoError(t, app.SetField("key", "abc"))

	assert.Equal(t, gets, countCalls(api, http.MethodGet))
}

func TestApp_EditRenameRefused(t *testing.T) {
	ctx := context.Background()
	app, api, _ := newTestApp(t, apitest.WithURLMaps(model.URLMap{Key: "abc", URL: "https://example.com"}))

	require.NoError(t, app.ClickEdit(ctx, "abc"))
	require.NoError(t, app.SetField("key", "xyz"))

	err := app.Submit(ctx)
	assert.ErrorIs(t, err, service.ErrKeyChanged)
	assert.Equal(t, ViewEdit, app.Screen().Route.View)
	assert.Equal(t, 0, countCalls(api, http.MethodPut))
}

func TestApp_EditMissingKey(t *testing.T) {
	ctx := context.Background()
	app, _, _ := newTestApp(t)

	err := app.ClickEdit(ctx, "missing")
	assert.True(t, errors.Is(err, client.ErrNotFound))
	assert.Equal(t, ViewEdit, app.Screen().Route.View)
	assert.Equal(t, "missing", app.Screen().Form.Key)
}

func TestApp_CreateErrorStaysOnForm(t *testing.T) {
	ctx := context.Background()
	app, _, _ := newTestApp(t, apitest.WithURLMaps(model.URLMap{Key: "abc", URL: "https://example.com"}))

	require.NoError(t, app.ClickCreate(ctx))
	require.NoError(t, app.SetField("key", "abc"))
	require.NoError(t, app.SetField("url", "https://dup.example"))

	err := app.Submit(ctx)
	require.Error(t, err)
	screen := app.Screen()
	assert.Equal(t, ViewNew, screen.Route.View)
	assert.Equal(t, "https://dup.example", screen.Form.URL)
	assert.Error(t, screen.Err)
}

func TestApp_Settings(t *testing.T) {
	ctx := context.Background()
	app, api, sess := newTestApp(t)

	require.NoError(t, app.OpenSettings(ctx))
	assert.Equal(t, ViewSettings, app.Screen().Route.View)
	assert.Equal(t, "", app.Screen().Form.Token)

	require.NoError(t, app.SetField("token", "new-token"))
	require.NoError(t, app.Submit(ctx))
	assert.Equal(t, "new-token", sess.Token())
	assert.Equal(t, "Token saved", app.Screen().Notice)

	require.NoError(t, app.Navigate(ctx, PathIndex))
	req, ok := api.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "new-token", req.Authorization)

	require.NoError(t, sess.SetToken("changed-elsewhere"))
	require.NoError(t, app.OpenSettings(ctx))
	assert.Equal(t, "changed-elsewhere", app.Screen().Form.Token)
}

func TestApp_InvalidEvents(t *testing.T) {
	ctx := context.Background()
	app, _, _ := newTestApp(t)

	assert.ErrorIs(t, app.Cancel(ctx), ErrInvalidEvent)
	assert.ErrorIs(t, app.Submit(ctx), ErrInvalidEvent)
	assert.ErrorIs(t, app.SetField("key", "x"), ErrInvalidEvent)
	assert.ErrorIs(t, app.SuggestKey(), ErrInvalidEvent)

	require.NoError(t, app.OpenSettings(ctx))
	assert.ErrorIs(t, app.ClickCreate(ctx), ErrInvalidEvent)
	assert.ErrorIs(t, app.Delete(ctx, "abc", yes), ErrInvalidEvent)
	assert.ErrorIs(t, app.SetField("url", "x"), ErrInvalidEvent)
}

func TestApp_SuggestKey(t *testing.T) {
	ctx := context.Background()
	app, _, _ := newTestApp(t)

	require.NoError(t, app.ClickCreate(ctx))
	require.NoError(t, app.SuggestKey())
	assert.Len(t, app.Screen().Form.Key, SuggestedKeyLength)
}

func TestApp_EmptyTokenStillSendsHeader(t *testing.T) {
	_, api, _ := newTestApp(t)

	req, ok := api.LastRequest()
	require.True(t, ok)
	assert.True(t, req.HasAuthorization)
	assert.Equal(t, "", req.Authorization)
}
