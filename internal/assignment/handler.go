package assignment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/objaverse/platform/internal/httpx"
	"github.com/objaverse/platform/internal/middleware"
	"github.com/objaverse/platform/internal/principal"
	"github.com/objaverse/platform/internal/token"
	"github.com/objaverse/platform/pkg/id"
)

type Handler interface {
	Routes() chi.Router
}

type handler struct {
	logger  *zap.Logger
	service Service
	tokens  token.Service
}

func NewHandler(service Service, tokens token.Service, l *zap.Logger) Handler {
	return &handler{logger: l, service: service, tokens: tokens}
}

func (h *handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireAuth(h.tokens, h.logger))
	r.Get("/", h.List)
	r.With(middleware.RequireRole(principal.RoleAdmin)).Post("/rebalance", h.Rebalance)
	return r
}

// List returns the caller's own assignments. Admins may inspect another
// evaluator via ?evaluator_id=.
func (h *handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	claims := middleware.ClaimsFrom(r.Context())
	evaluatorID := claims.Sub
	if other := r.URL.Query().Get("evaluator_id"); other != "" && other != string(claims.Sub) {
		if !token.Authorize(claims, principal.RoleAdmin) {
			httpx.WriteError(w, http.StatusForbidden, httpx.ErrorResponse[any]{
				Code:    httpx.ErrForbidden,
				Message: "insufficient privileges",
			})
			return
		}
		evaluatorID = id.PublicID(other)
	}

	assignments, err := h.service.ListForEvaluator(ctx, evaluatorID)
	if err != nil {
		h.logger.Error("failed to list assignments", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInternal,
			Message: "internal server error",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, assignments)
}

func (h *handler) Rebalance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	assigned, err := h.service.Rebalance(ctx)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoEvaluators):
			httpx.WriteError(w, http.StatusConflict, httpx.ErrorResponse[any]{
				Code:    httpx.ErrConflict,
				Message: "no evaluators registered",
			})
			return
		case errors.Is(err, ErrNotEnoughObjects):
			httpx.WriteError(w, http.StatusConflict, httpx.ErrorResponse[any]{
				Code:    httpx.ErrConflict,
				Message: "not enough objects for the configured distribution",
			})
			return
		}
		h.logger.Error("rebalance failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInternal,
			Message: "internal server error",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]int{"assigned": assigned})
}
