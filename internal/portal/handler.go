package portal

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/objaverse/platform/internal/httpx"
	"github.com/objaverse/platform/internal/middleware"
	"github.com/objaverse/platform/internal/token"
)

// Handler is the evaluator portal's backend-for-frontend. It proxies the auth
// service for session establishment and the resource service for data, after
// verifying the caller's token locally with the shared secret.
type Handler interface {
	Routes() chi.Router
}

type handler struct {
	logger *zap.Logger
	auth   *Client
	api    *Client
	tokens token.Service
}

func NewHandler(auth, api *Client, tokens token.Service, l *zap.Logger) Handler {
	return &handler{
		logger: l,
		auth:   auth,
		api:    api,
		tokens: tokens,
	}
}

func (h *handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.tokens, h.logger))
		r.Post("/logout", h.Logout)
		r.Get("/objects", h.Objects)
		r.Get("/objects/{objectID}", h.Object)
		r.Get("/assignments", h.Assignments)
	})
	return r
}

func (h *handler) Login(w http.ResponseWriter, r *http.Request) {
	resp, err := h.auth.Forward(r.Context(), http.MethodPost, "/login", "", "",
		r.Header.Get("Content-Type"), r.Body)
	h.relay(w, resp, err, "auth service")
}

func (h *handler) Logout(w http.ResponseWriter, r *http.Request) {
	resp, err := h.auth.Forward(r.Context(), http.MethodPost, "/logout", "",
		middleware.BearerFrom(r.Context()), "", nil)
	h.relay(w, resp, err, "auth service")
}

func (h *handler) Objects(w http.ResponseWriter, r *http.Request) {
	resp, err := h.api.Forward(r.Context(), http.MethodGet, "/api/objects", r.URL.RawQuery,
		middleware.BearerFrom(r.Context()), "", nil)
	h.relay(w, resp, err, "resource service")
}

func (h *handler) Object(w http.ResponseWriter, r *http.Request) {
	resp, err := h.api.Forward(r.Context(), http.MethodGet,
		"/api/objects/"+chi.URLParam(r, "objectID"), "",
		middleware.BearerFrom(r.Context()), "", nil)
	h.relay(w, resp, err, "resource service")
}

func (h *handler) Assignments(w http.ResponseWriter, r *http.Request) {
	resp, err := h.api.Forward(r.Context(), http.MethodGet, "/api/assignments", r.URL.RawQuery,
		middleware.BearerFrom(r.Context()), "", nil)
	h.relay(w, resp, err, "resource service")
}

// relay copies the upstream status and body through unchanged. An unreachable
// upstream becomes a 503, never a hang.
func (h *handler) relay(w http.ResponseWriter, resp *http.Response, err error, upstream string) {
	if err != nil {
		h.logger.Error("upstream call failed", zap.String("upstream", upstream), zap.Error(err))
		httpx.WriteError(w, http.StatusServiceUnavailable, httpx.ErrorResponse[any]{
			Code:    httpx.ErrUnavailable,
			Message: upstream + " unavailable",
		})
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Warn("failed to stream upstream response", zap.Error(err))
	}
}
