package api

import (
	"encoding/json"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	pderr "github.com/amterp/postdeck/internal/errors"
	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/internal/render"
	"github.com/amterp/postdeck/internal/session"
	"github.com/amterp/postdeck/internal/util"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Handler contains all HTTP handlers: the page, its partials and the JSON API.
//
// Every request is bound to a session through the session cookie; handlers
// never touch another session's state.
type Handler struct {
	manager        *session.Manager
	hub            *WebSocketHub
	logger         zerolog.Logger
	debounceMillis int

	tmplOnce sync.Once
	tmpl     *template.Template
	tmplErr  error
}

// NewHandler creates a new handler. hub may be nil, which disables the
// websocket route.
func NewHandler(manager *session.Manager, hub *WebSocketHub, debounce time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{
		manager:        manager,
		hub:            hub,
		logger:         logger,
		debounceMillis: int(debounce / time.Millisecond),
	}
}

// RegisterRoutes sets up all routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Page and partials
	mux.HandleFunc("GET /{$}", h.GetPage)
	mux.HandleFunc("GET /partials/posts", h.GetPostRows)
	mux.HandleFunc("GET /partials/form", h.GetForm)
	mux.HandleFunc("GET /partials/posts/{id}/preview", h.GetPreview)

	// Post routes
	mux.HandleFunc("GET /api/v1/posts", h.ListPosts)
	mux.HandleFunc("POST /api/v1/posts", h.CreatePost)
	mux.HandleFunc("GET /api/v1/posts/{id}", h.GetPost)
	mux.HandleFunc("PUT /api/v1/posts/{id}", h.UpdatePost)
	mux.HandleFunc("DELETE /api/v1/posts/{id}", h.DeletePost)

	// Query routes
	mux.HandleFunc("POST /api/v1/query", h.SetQuery)
	mux.HandleFunc("POST /api/v1/query/apply", h.ApplyQuery)

	// Selection and form routes
	mux.HandleFunc("PUT /api/v1/selection", h.Select)
	mux.HandleFunc("DELETE /api/v1/selection", h.ResetSelection)
	mux.HandleFunc("GET /api/v1/form", h.GetFormState)
	mux.HandleFunc("POST /api/v1/form", h.SubmitForm)

	mux.HandleFunc("GET /api/v1/session", h.GetSession)
	mux.HandleFunc("GET /api/v1/users", h.ListUsers)

	// Assets
	mux.HandleFunc("GET /favicon.svg", h.GetFavicon)
	mux.HandleFunc("GET /static/syntax.css", h.GetSyntaxCSS)
	mux.Handle("GET /static/", h.StaticHandler())
}

// RegisterWebSocket adds the websocket route. It is kept apart from
// RegisterRoutes so the server can mount it outside response compression.
func (h *Handler) RegisterWebSocket(mux *http.ServeMux) {
	if h.hub == nil {
		return
	}
	mux.HandleFunc("GET /api/v1/ws", h.ServeWS)
}

// --- Templates ---

func (h *Handler) templates() (*template.Template, error) {
	if liveAssets {
		return parseTemplates()
	}
	h.tmplOnce.Do(func() {
		h.tmpl, h.tmplErr = parseTemplates()
	})
	return h.tmpl, h.tmplErr
}

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"preview": func(s string) string {
			return util.Truncate(util.FirstLine(s), 80)
		},
	}
	return template.New("").Funcs(funcs).ParseFS(assetFS(), "templates/*.html")
}

func (h *Handler) renderHTML(w http.ResponseWriter, name string, data any) {
	tmpl, err := h.templates()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to parse templates")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set(HCType, CTypeHTML)
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("failed to render template")
	}
}

// StaticHandler serves the page's script and stylesheet.
func (h *Handler) StaticHandler() http.Handler {
	fsys, err := fs.Sub(assetFS(), "static")
	if err != nil {
		return http.NotFoundHandler()
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(fsys)))
}

// GetSyntaxCSS serves the stylesheet for highlighted code in previews.
func (h *Handler) GetSyntaxCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(HCType, CTypeCSS)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	io.WriteString(w, render.SyntaxCSS())
}

// --- Page Handlers ---

type pageData struct {
	session.Snapshot
	Users          []model.User
	DebounceMillis int
}

type formData struct {
	Form  session.Form
	Users []model.User
}

func (p pageData) FormData() formData {
	return formData{Form: p.Form, Users: p.Users}
}

type previewData struct {
	Post model.Post
	Body template.HTML
}

// GetPage renders the full page for the request's session.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	s := h.currentSession(w, r)
	h.renderHTML(w, "layout.html", pageData{
		Snapshot:       s.Snapshot(),
		Users:          h.manager.Users(),
		DebounceMillis: h.debounceMillis,
	})
}

// GetPostRows renders the table body for the applied query.
func (h *Handler) GetPostRows(w http.ResponseWriter, r *http.Request) {
	s := h.currentSession(w, r)
	h.renderHTML(w, "rows", s.Snapshot())
}

// GetForm renders the create or edit form.
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	s := h.currentSession(w, r)
	h.renderHTML(w, "form", formData{Form: s.Form(), Users: h.manager.Users()})
}

// GetPreview renders a post's body as markdown.
func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r)
	if !ok {
		return
	}

	post, err := h.currentSession(w, r).Post(postID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.renderHTML(w, "preview", previewData{Post: post, Body: render.Markdown(post.Body)})
}

// --- Post Handlers ---

// QueryState is the search box state.
type QueryState struct {
	Typed   string `json:"typed"`
	Applied string `json:"applied"`
	Pending bool   `json:"pending"`
}

// ListPostsResponse is the JSON response for listing posts.
type ListPostsResponse struct {
	Posts []model.Post `json:"posts"`
	Query QueryState   `json:"query"`
	Total int          `json:"total"`
}

func queryState(s *session.Session) QueryState {
	return QueryState{Typed: s.Typed(), Applied: s.Applied(), Pending: s.Pending()}
}

// ListPosts returns the posts matching the applied query, or every post
// with ?all=true.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	s := h.currentSession(w, r)

	all := s.Posts()
	posts := all
	if r.URL.Query().Get("all") != "true" {
		posts = s.Filtered()
	}

	JSON(w, http.StatusOK, ListPostsResponse{
		Posts: posts,
		Query: queryState(s),
		Total: len(all),
	})
}

// GetPost returns a single post.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r)
	if !ok {
		return
	}

	post, err := h.currentSession(w, r).Post(postID)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, post)
}

// CreatePost adds a post regardless of the form mode.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	post := h.currentSession(w, r).Add(draft)
	JSON(w, http.StatusCreated, post)
}

// UpdatePost replaces a post's editable fields.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r)
	if !ok {
		return
	}
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	post, err := h.currentSession(w, r).Update(postID, draft)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, post)
}

// DeletePost removes a post. Deleting a missing post is not an error.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r)
	if !ok {
		return
	}

	h.currentSession(w, r).Delete(postID)
	NoContent(w)
}

// --- Query Handlers ---

// SetQueryRequest is the JSON body for updating the search box.
// Seq increases with every keystroke; requests that arrive after a newer
// one are ignored. Zero means unnumbered.
type SetQueryRequest struct {
	Query string `json:"q"`
	Seq   uint64 `json:"seq,omitempty"`
}

// SetQuery records a keystroke. The query is applied once typing goes
// quiet; clients learn about it through a query_applied websocket event.
func (h *Handler) SetQuery(w http.ResponseWriter, r *http.Request) {
	var req SetQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s := h.currentSession(w, r)
	if !s.TypeSeq(util.NormalizeQuery(req.Query), req.Seq) {
		h.logger.Debug().Str("session", s.ID()).Uint64("seq", req.Seq).Msg("stale query dropped")
	}
	JSON(w, http.StatusAccepted, queryState(s))
}

// ApplyQuery applies the typed query immediately.
func (h *Handler) ApplyQuery(w http.ResponseWriter, r *http.Request) {
	s := h.currentSession(w, r)
	s.ApplyNow()
	JSON(w, http.StatusOK, queryState(s))
}

// --- Selection and Form Handlers ---

// SelectRequest is the JSON body for selecting a post.
type SelectRequest struct {
	ID int `json:"id"`
}

// Select puts the form in edit mode for a post.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s := h.currentSession(w, r)
	if err := s.Select(req.ID); err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, s.Form())
}

// ResetSelection returns the form to create mode.
func (h *Handler) ResetSelection(w http.ResponseWriter, r *http.Request) {
	s := h.currentSession(w, r)
	s.ResetSelection()
	JSON(w, http.StatusOK, s.Form())
}

// GetFormState returns the form as JSON.
func (h *Handler) GetFormState(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.currentSession(w, r).Form())
}

// SubmitFormResponse is the JSON response for a form submission.
type SubmitFormResponse struct {
	Post model.Post   `json:"post"`
	Form session.Form `json:"form"`
}

// SubmitForm saves the form: an update in edit mode, an add in create mode.
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	s := h.currentSession(w, r)
	creating := s.Form().Mode == session.ModeCreate

	post, err := s.Submit(draft)
	if err != nil {
		Error(w, err)
		return
	}

	status := http.StatusOK
	if creating {
		status = http.StatusCreated
	}
	JSON(w, status, SubmitFormResponse{Post: post, Form: s.Form()})
}

// GetSession returns the whole view state.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.currentSession(w, r).Snapshot())
}

// ListUsers returns the users posts can be attributed to.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string][]model.User{"users": h.manager.Users()})
}

// ServeWS attaches a websocket to the request's session.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	s := h.currentSession(w, r)
	h.hub.ServeWS(w, r, s.ID())
}

// --- Helpers ---

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("id")
	n, err := strconv.Atoi(raw)
	if err != nil {
		Error(w, pderr.InvalidField("id", "must be an integer, got "+strconv.Quote(raw)))
		return 0, false
	}
	return n, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (model.Draft, bool) {
	var draft model.Draft
	if !decodeJSON(w, r, &draft) {
		return model.Draft{}, false
	}
	draft.Title = util.NormalizeInput(draft.Title)
	draft.Body = util.NormalizeInput(draft.Body)
	return draft, true
}
