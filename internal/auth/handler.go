package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/objaverse/platform/internal/httpx"
	"github.com/objaverse/platform/internal/middleware"
	"github.com/objaverse/platform/internal/principal"
	"github.com/objaverse/platform/internal/token"
)

type Handler interface {
	Routes() chi.Router
}

type handler struct {
	logger      *zap.Logger
	authService Service
	tokens      token.Service
	validator   *validator.Validate
}

func NewHandler(authService Service, tokens token.Service, l *zap.Logger) Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	return &handler{
		logger:      l,
		authService: authService,
		tokens:      tokens,
		validator:   v,
	}
}

func (h *handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.tokens, h.logger))
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
		r.Get("/verify", h.Verify)
	})
	return r
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"     validate:"omitempty,oneof=researcher evaluator"`
}

type registerResponse struct {
	PublicID string `json:"public_id"`
}

func (h *handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	publicID, err := h.authService.Register(ctx, req.Email, req.Password, principal.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, principal.ErrDuplicateEmail):
			h.logger.Debug("duplicate email", zap.String("email", req.Email))
			httpx.WriteError(w, http.StatusConflict, httpx.ErrorResponse[any]{
				Code:    httpx.ErrConflict,
				Message: "email already exists",
			})
		default:
			h.logger.Error("failed to register principal", zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorResponse[any]{
				Code:    httpx.ErrInternal,
				Message: "internal server error",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, registerResponse{
		PublicID: string(publicID),
	})
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1,max=72"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredential), errors.Is(err, ErrPrincipalLocked):
			// One generic body for both: the response must not disclose
			// whether the account exists or is locked.
			h.logger.Warn("login rejected", zap.Error(err))
			httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorResponse[any]{
				Code:    httpx.ErrUnauthorized,
				Message: "invalid credentials",
			})
		default:
			h.logger.Error("login failed", zap.Error(err))
			httpx.WriteError(w, http.StatusServiceUnavailable, httpx.ErrorResponse[any]{
				Code:    httpx.ErrUnavailable,
				Message: "temporarily unable to authenticate",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		ExpiresAt:   result.ExpiresAt,
	})
}

func (h *handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.authService.Logout(ctx, middleware.BearerFrom(r.Context())); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		httpx.WriteError(w, http.StatusServiceUnavailable, httpx.ErrorResponse[any]{
			Code:    httpx.ErrUnavailable,
			Message: "temporarily unable to log out",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

type meResponse struct {
	PublicID string `json:"public_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (h *handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	claims := middleware.ClaimsFrom(r.Context())
	p, err := h.authService.Me(ctx, claims.Sub)
	if err != nil {
		if errors.Is(err, principal.ErrNotFound) {
			// Token is valid but the account was deleted since issuance.
			httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorResponse[any]{
				Code:    httpx.ErrUnauthorized,
				Message: "invalid or missing credentials",
			})
			return
		}
		h.logger.Error("me lookup failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInternal,
			Message: "internal server error",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, meResponse{
		PublicID: string(p.PublicID),
		Email:    p.Email,
		Role:     string(p.Role),
	})
}

type verifyResponse struct {
	Sub       string    `json:"sub"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Verify is the internal surface other services call to validate a bearer
// token. Verification itself already happened in the middleware.
func (h *handler) Verify(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	httpx.WriteJSON(w, http.StatusOK, verifyResponse{
		Sub:       string(claims.Sub),
		Role:      string(claims.Role),
		ExpiresAt: claims.ExpiresAt.Time,
	})
}

// decode applies the shared request hygiene: size cap, content type, strict
// JSON, validation. Returns false if a response was already written.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		httpx.WriteError(w, http.StatusUnsupportedMediaType, httpx.ErrorResponse[any]{
			Code:    httpx.ErrUnsupportedMedia,
			Message: "Content-Type must be application/json",
		})
		return false
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.logger.Warn("failed to decode request body", zap.Error(err))
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInvalidJSON,
			Message: "invalid request body",
		})
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF { // check if there's any trailing data
		h.logger.Warn("trailing data after JSON body", zap.Error(err))
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInvalidJSON,
			Message: "request body must contain a single JSON object",
		})
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		h.logger.Warn("validation failed", zap.Error(err))
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.ErrorResponse[[]httpx.FieldError]{
			Code:    httpx.ErrValidationFailed,
			Message: "validation failed",
			Details: httpx.ValidationDetails(err),
		})
		return false
	}
	return true
}
