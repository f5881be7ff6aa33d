// Package web serves the server-rendered pages and binds their forms and
// links to the URL-map service.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/MikhailRaia/url-mapper/internal/auth"
	"github.com/MikhailRaia/url-mapper/internal/client"
	"github.com/MikhailRaia/url-mapper/internal/logger"
	"github.com/MikhailRaia/url-mapper/internal/middleware"
	"github.com/MikhailRaia/url-mapper/internal/model"
	"github.com/MikhailRaia/url-mapper/internal/service"
	"github.com/MikhailRaia/url-mapper/internal/view"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	IndexPath    = "/web/url_maps"
	NewPath      = "/web/url_maps/new"
	SettingsPath = "/web/settings"

	flashCookie = "flash"
)

// URLMapService is the URL-map contract the pages consume.
type URLMapService interface {
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

// Handler renders the pages and handles their submissions.
type Handler struct {
	svc    URLMapService
	tokens TokenStore
	pages  map[string]*template.Template
}

type formData struct {
	Key   string
	URL   string
	Token string
}

type page struct {
	Title       string
	Notice      string
	Error       string
	Table       *view.Table
	Form        formData
	FormID      string
	Action      string
	Submit      string
	KeyReadOnly bool
	TokenInfo   auth.TokenInfo
	Expired     bool
}

// NewHandler parses the embedded templates.
func NewHandler(svc URLMapService, tokens TokenStore) (*Handler, error) {
	funcs := template.FuncMap{"deletePath": deletePath}

	pages := make(map[string]*template.Template)
	for _, name := range []string{"index", "form", "delete", "settings"} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Handler{
		svc:    svc,
		tokens: tokens,
		pages:  pages,
	}, nil
}

// RegisterRoutes builds the page router.
func (h *Handler) RegisterRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(logger.RequestLogger)
	r.Use(middleware.GzipMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, IndexPath, http.StatusFound)
	})

	r.Route(IndexPath, func(r chi.Router) {
		r.Get("/", h.handleIndex)
		r.Post("/", h.handleCreate)
		r.Get("/new", h.handleNew)
		r.Get("/{key}/edit", h.handleEdit)
		r.Post("/{key}", h.handleUpdate)
		r.Get("/{key}/delete", h.handleConfirmDelete)
		r.Post("/{key}/delete", h.handleDelete)
	})

	r.Get(SettingsPath, h.handleSettings)
	r.Post(SettingsPath, h.handleSaveToken)

	return r
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, r, http.StatusOK, popFlash(w, r), "")
}

func (h *Handler) renderIndex(w http.ResponseWriter, r *http.Request, status int, notice, errMsg string) {
	p := page{Title: "URL maps", Notice: notice, Error: errMsg}

	urlMaps, err := h.svc.List(r.Context())
	if err != nil {
		p.Error = err.Error()
		status = errorStatus(err)
		urlMaps = nil
	}

	p.Table = view.NewTable(lo.Map(urlMaps, func(m model.URLMap, _ int) view.Row {
		return view.Row{
			Key:      m.Key,
			URL:      m.URL,
			TestURL:  h.svc.RedirectURL(m.Key),
			EditPath: editPath(m.Key),
		}
	}))

	h.render(w, "index", status, p)
}

func (h *Handler) handleNew(w http.ResponseWriter, r *http.Request) {
	h.render(w, "form", http.StatusOK, newFormPage(formData{}))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	urlMap := model.URLMap{Key: r.PostFormValue("key"), URL: r.PostFormValue("url")}
	if _, err := h.svc.Create(r.Context(), urlMap); err != nil {
		p := newFormPage(formData{Key: urlMap.Key, URL: urlMap.URL})
		p.Error = err.Error()
		h.render(w, "form", errorStatus(err), p)
		return
	}

	redirectWithFlash(w, r, IndexPath, "Create Url Map successfully!")
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	urlMap, err := h.svc.Get(r.Context(), key)
	if err != nil {
		p := editFormPage(formData{Key: key})
		p.Error = err.Error()
		h.render(w, "form", errorStatus(err), p)
		return
	}

	h.render(w, "form", http.StatusOK, editFormPage(formData{Key: urlMap.Key, URL: urlMap.URL}))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	urlMap := model.URLMap{Key: r.PostFormValue("key"), URL: r.PostFormValue("url")}
	if urlMap.Key == "" {
		urlMap.Key = key
	}

	if _, err := h.svc.Update(r.Context(), key, urlMap); err != nil {
		p := editFormPage(formData{Key: key, URL: urlMap.URL})
		p.Error = err.Error()
		h.render(w, "form", errorStatus(err), p)
		return
	}

	redirectWithFlash(w, r, IndexPath, fmt.Sprintf("Updated Url Map for %s successfully!", key))
}

func (h *Handler) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	h.render(w, "delete", http.StatusOK, page{
		Title:  "Delete " + key,
		Form:   formData{Key: key},
		Action: deletePath(key),
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	confirmed := service.ConfirmFunc(func(context.Context, string) bool {
		return r.PostFormValue("confirm") == "yes"
	})

	err := h.svc.Delete(r.Context(), key, confirmed)
	switch {
	case errors.Is(err, service.ErrDeleteDeclined):
		http.Redirect(w, r, IndexPath, http.StatusSeeOther)
	case err != nil:
		h.renderIndex(w, r, errorStatus(err), "", err.Error())
	default:
		redirectWithFlash(w, r, IndexPath, fmt.Sprintf("Deleted Url Map for %s successfully!", key))
	}
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	info := h.tokens.Describe()
	h.render(w, "settings", http.StatusOK, page{
		Title:     "Settings",
		Notice:    popFlash(w, r),
		Form:      formData{Token: h.tokens.Token()},
		TokenInfo: info,
		Expired:   info.Expired(time.Now()),
	})
}

func (h *Handler) handleSaveToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	token := r.PostFormValue("authorization")
	if err := h.tokens.SetToken(token); err != nil {
		h.render(w, "settings", http.StatusInternalServerError, page{
			Title:     "Settings",
			Error:     err.Error(),
			Form:      formData{Token: token},
			TokenInfo: auth.Inspect(token),
		})
		return
	}

	redirectWithFlash(w, r, SettingsPath, "Token saved")
}

func (h *Handler) render(w http.ResponseWriter, name string, status int, p page) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render page")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func newFormPage(form formData) page {
	return page{
		Title:  "New URL map",
		Form:   form,
		FormID: "create_url_map_form",
		Action: IndexPath,
		Submit: "Create",
	}
}

func editFormPage(form formData) page {
	return page{
		Title:       "Edit " + form.Key,
		Form:        form,
		FormID:      "update_url_map_form",
		Action:      IndexPath + "/" + url.PathEscape(form.Key),
		Submit:      "Save",
		KeyReadOnly: true,
	}
}

func editPath(key string) string {
	return IndexPath + "/" + url.PathEscape(key) + "/edit"
}

func deletePath(key string) string {
	return IndexPath + "/" + url.PathEscape(key) + "/delete"
}

// keyParam returns the decoded {key} segment. chi matches on RawPath when the
// request carries one, so the segment is still escaped in that case.
func keyParam(r *http.Request) string {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return key
	}
	if unescaped, err := url.PathUnescape(key); err == nil {
		return unescaped
	}
	return key
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrKeyChanged):
		return http.StatusUnprocessableEntity
	case errors.Is(err, client.ErrUnauthorized):
		return http.StatusUnauthorized
	}

	var statusErr *client.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
		return statusErr.StatusCode
	}
	return http.StatusBadGateway
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, to, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(message),
		Path:     "/",
		HttpOnly: true,
	})
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func popFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return message
}
