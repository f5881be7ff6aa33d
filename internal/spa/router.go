package spa

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// View identifies a navigable screen.
type View int

const (
	ViewIndex View = iota
	ViewNew
	ViewEdit
	ViewSettings
)

func (v View) String() string {
	switch v {
	case ViewIndex:
		return "index"
	case ViewNew:
		return "new"
	case ViewEdit:
		return "edit"
	case ViewSettings:
		return "settings"
	}
	return "unknown"
}

// Paths of the navigable views.
const (
	PathIndex    = "/"
	PathSettings = "/settings"
	PathNew      = "/url_maps/new"
	patternEdit  = "/url_maps/edit/{key}"
)

// EditPath is the location of the edit view for key.
func EditPath(key string) string {
	return "/url_maps/edit/" + url.PathEscape(key)
}

// Route is a resolved location.
type Route struct {
	View View
	Key  string
	Path string
}

// Router resolves paths to views and keeps the navigation history.
type Router struct {
	mux     *chi.Mux
	views   map[string]View
	history []Route
}

// NewRouter creates a Router whose history starts empty.
func NewRouter() *Router {
	r := &Router{
		mux: chi.NewRouter(),
		views: map[string]View{
			PathIndex:    ViewIndex,
			PathSettings: ViewSettings,
			PathNew:      ViewNew,
			patternEdit:  ViewEdit,
		},
	}

	// Handlers are never served; the mux is only used for matching.
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for pattern := range r.views {
		r.mux.Get(pattern, noop)
	}

	return r
}

// Resolve maps path to a Route. Unknown paths resolve to the index.
func (r *Router) Resolve(path string) Route {
	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		return Route{View: ViewIndex, Path: PathIndex}
	}

	view, ok := r.views[rctx.RoutePattern()]
	if !ok {
		return Route{View: ViewIndex, Path: PathIndex}
	}

	route := Route{View: view, Path: path}
	if view == ViewEdit {
		key, err := url.PathUnescape(rctx.URLParam("key"))
		if err != nil {
			key = rctx.URLParam("key")
		}
		route.Key = key
	}

	return route
}

// Push resolves path and makes it the current entry.
func (r *Router) Push(path string) Route {
	route := r.Resolve(path)
	r.history = append(r.history, route)
	return route
}

// Back drops the current entry and returns the previous one.
// With nothing to go back to, the index becomes current.
func (r *Router) Back() Route {
	if len(r.history) > 0 {
		r.history = r.history[:len(r.history)-1]
	}
	if len(r.history) == 0 {
		r.history = append(r.history, Route{View: ViewIndex, Path: PathIndex})
	}
	return r.history[len(r.history)-1]
}

// Current returns the current entry.
func (r *Router) Current() Route {
	if len(r.history) == 0 {
		return Route{View: ViewIndex, Path: PathIndex}
	}
	return r.history[len(r.history)-1]
}

// Depth is the number of history entries.
func (r *Router) Depth() int {
	return len(r.history)
}
