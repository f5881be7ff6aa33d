// Package spa is the routed view layer: a state machine over the index,
// new, edit and settings views that loads data when a view is entered.
package spa

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikhailRaia/url-mapper/internal/auth"
	"github.com/MikhailRaia/url-mapper/internal/generator"
	"github.com/MikhailRaia/url-mapper/internal/model"
	"github.com/MikhailRaia/url-mapper/internal/service"
	"github.com/MikhailRaia/url-mapper/internal/view"
	"github.com/samber/lo"
)

// ErrInvalidEvent is returned for an event the current view does not handle.
var ErrInvalidEvent = errors.New("event not available in this view")

// SuggestedKeyLength is the length of keys produced by SuggestKey.
const SuggestedKeyLength = 6

// Service is the URL-map contract the views consume.
type Service interface {
	List(ctx context.Context) ([]model.URLMap, error)
	Get(ctx context.Context, key string) (model.URLMap, error)
	Create(ctx context.Context, urlMap model.URLMap) (model.URLMap, error)
	Update(ctx context.Context, originalKey string, urlMap model.URLMap) (model.URLMap, error)
	Delete(ctx context.Context, key string, confirmer service.Confirmer) error
	RedirectURL(key string) string
}

// TokenStore is the operator's authorization token.
type TokenStore interface {
	Token() string
	SetToken(token string) error
	Describe() auth.TokenInfo
}

// Form holds the transient fields of the new, edit and settings views.
type Form struct {
	Key   string
	URL   string
	Token string
}

// Screen is everything needed to draw the current view.
type Screen struct {
	Route     Route
	Table     *view.Table
	Form      Form
	TokenInfo auth.TokenInfo
	Notice    string
	Err       error
}

// App drives the views.
type App struct {
	svc    Service
	tokens TokenStore
	router *Router
	screen Screen
}

// NewApp creates an App. Call Start to enter the first view.
func NewApp(svc Service, tokens TokenStore) *App {
	return &App{
		svc:    svc,
		tokens: tokens,
		router: NewRouter(),
	}
}

// Start enters the view at path.
func (a *App) Start(ctx context.Context, path string) error {
	return a.Navigate(ctx, path)
}

// Screen returns the current screen.
func (a *App) Screen() Screen {
	return a.screen
}

// Navigate pushes path onto the history and enters its view.
func (a *App) Navigate(ctx context.Context, path string) error {
	return a.enter(ctx, a.router.Push(path))
}

// Back returns to the previous view.
func (a *App) Back(ctx context.Context) error {
	return a.enter(ctx, a.router.Back())
}

// Reload enters the current view again, refetching its data.
func (a *App) Reload(ctx context.Context) error {
	return a.enter(ctx, a.router.Current())
}

// OpenSettings navigates to the settings view from anywhere.
func (a *App) OpenSettings(ctx context.Context) error {
	return a.Navigate(ctx, PathSettings)
}

// ClickCreate opens the new view from the index.
func (a *App) ClickCreate(ctx context.Context) error {
	if err := a.expect(ViewIndex); err != nil {
		return err
	}
	return a.Navigate(ctx, PathNew)
}

// ClickEdit opens the edit view for key from the index.
func (a *App) ClickEdit(ctx context.Context, key string) error {
	if err := a.expect(ViewIndex); err != nil {
		return err
	}
	return a.Navigate(ctx, EditPath(key))
}

// Delete removes key once confirmer agrees, then reloads the index.
// A declined confirmation does nothing.
func (a *App) Delete(ctx context.Context, key string, confirmer service.Confirmer) error {
	if err := a.expect(ViewIndex); err != nil {
		return err
	}

	err := a.svc.Delete(ctx, key, confirmer)
	if errors.Is(err, service.ErrDeleteDeclined) {
		return nil
	}
	if err != nil {
		a.screen.Err = err
		return err
	}

	if err := a.Reload(ctx); err != nil {
		return err
	}
	a.screen.Notice = fmt.Sprintf("Deleted %s", key)
	return nil
}

// SetField edits a form field of the current view.
func (a *App) SetField(name, value string) error {
	switch a.screen.Route.View {
	case ViewNew, ViewEdit:
		switch name {
		case "key":
			a.screen.Form.Key = value
			return nil
		case "url":
			a.screen.Form.URL = value
			return nil
		}
	case ViewSettings:
		if name == "token" {
			a.screen.Form.Token = value
			return nil
		}
	}
	return fmt.Errorf("%w: field %q in %s view", ErrInvalidEvent, name, a.screen.Route.View)
}

// SuggestKey fills the key field of the new view with a random key.
func (a *App) SuggestKey() error {
	if err := a.expect(ViewNew); err != nil {
		return err
	}

	key, err := generator.GenerateKey(SuggestedKeyLength)
	if err != nil {
		return fmt.Errorf("suggest key: %w", err)
	}
	a.screen.Form.Key = key
	return nil
}

// Submit sends the current form. New and edit return to the index on
// success; settings saves the token and stays.
func (a *App) Submit(ctx context.Context) error {
	form := a.screen.Form
	urlMap := model.URLMap{Key: form.Key, URL: form.URL}

	switch a.screen.Route.View {
	case ViewNew:
		if _, err := a.svc.Create(ctx, urlMap); err != nil {
			a.screen.Err = err
			return err
		}
		return a.Navigate(ctx, PathIndex)

	case ViewEdit:
		if _, err := a.svc.Update(ctx, a.screen.Route.Key, urlMap); err != nil {
			a.screen.Err = err
			return err
		}
		return a.Navigate(ctx, PathIndex)

	case ViewSettings:
		if err := a.tokens.SetToken(form.Token); err != nil {
			a.screen.Err = err
			return err
		}
		a.screen.Err = nil
		a.screen.TokenInfo = a.tokens.Describe()
		a.screen.Notice = "Token saved"
		return nil
	}

	return fmt.Errorf("%w: submit in %s view", ErrInvalidEvent, a.screen.Route.View)
}

// Cancel leaves the new or edit view without calling the API.
func (a *App) Cancel(ctx context.Context) error {
	if a.screen.Route.View != ViewNew && a.screen.Route.View != ViewEdit {
		return fmt.Errorf("%w: cancel in %s view", ErrInvalidEvent, a.screen.Route.View)
	}
	return a.Back(ctx)
}

// RedirectURL is the Test link of a row.
func (a *App) RedirectURL(key string) string {
	return a.svc.RedirectURL(key)
}

func (a *App) expect(want View) error {
	if a.screen.Route.View != want {
		return fmt.Errorf("%w: %s view expected, in %s view", ErrInvalidEvent, want, a.screen.Route.View)
	}
	return nil
}

// enter replaces the screen with a fresh one for route and loads its data.
func (a *App) enter(ctx context.Context, route Route) error {
	a.screen = Screen{Route: route}

	switch route.View {
	case ViewIndex:
		urlMaps, err := a.svc.List(ctx)
		if err != nil {
			a.screen.Err = err
			return err
		}
		a.screen.Table = a.buildTable(urlMaps)

	case ViewEdit:
		a.screen.Form.Key = route.Key
		urlMap, err := a.svc.Get(ctx, route.Key)
		if err != nil {
			a.screen.Err = err
			return err
		}
		a.screen.Form.Key = urlMap.Key
		a.screen.Form.URL = urlMap.URL

	case ViewSettings:
		a.screen.Form.Token = a.tokens.Token()
		a.screen.TokenInfo = a.tokens.Describe()
	}

	return nil
}

func (a *App) buildTable(urlMaps []model.URLMap) *view.Table {
	rows := lo.Map(urlMaps, func(m model.URLMap, _ int) view.Row {
		return view.Row{
			Key:      m.Key,
			URL:      m.URL,
			TestURL:  a.svc.RedirectURL(m.Key),
			EditPath: EditPath(m.Key),
		}
	})
	return view.NewTable(rows)
}
