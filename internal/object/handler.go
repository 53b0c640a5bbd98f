package object

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/objaverse/platform/internal/httpx"
	"github.com/objaverse/platform/internal/middleware"
	"github.com/objaverse/platform/internal/principal"
	"github.com/objaverse/platform/internal/token"
	"github.com/objaverse/platform/pkg/id"
)

const maxImageBytes = 10 << 20 // 10MB

type Handler interface {
	Routes() chi.Router
	// SearchRoutes is mounted separately so search lives at its own path
	// rather than under the object collection.
	SearchRoutes() chi.Router
}

type handler struct {
	logger    *zap.Logger
	service   Service
	tokens    token.Service
	validator *validator.Validate
}

func NewHandler(service Service, tokens token.Service, l *zap.Logger) Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	return &handler{
		logger:    l,
		service:   service,
		tokens:    tokens,
		validator: v,
	}
}

func (h *handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireAuth(h.tokens, h.logger))
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{objectID}", h.Get)
	r.Put("/{objectID}", h.Update)
	r.With(middleware.RequireRole(principal.RoleAdmin)).Delete("/{objectID}", h.Delete)
	r.Post("/{objectID}/images", h.UploadImage)
	return r
}

func (h *handler) SearchRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireAuth(h.tokens, h.logger))
	r.Get("/", h.Search)
	return r
}

type searchResponse struct {
	Count   int        `json:"count"`
	Objects []Object3D `json:"objects"`
}

func (h *handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrValidationFailed,
			Message: "query parameter is required",
		})
		return
	}

	objects, err := h.service.Search(ctx, query)
	if err != nil {
		h.internalError(w, "failed to search objects", err)
		return
	}
	if objects == nil {
		objects = []Object3D{}
	}

	httpx.WriteJSON(w, http.StatusOK, searchResponse{
		Count:   len(objects),
		Objects: objects,
	})
}

type listResponse struct {
	Count   int        `json:"count"`
	Total   int        `json:"total"`
	Page    int        `json:"page"`
	Pages   int        `json:"pages"`
	Objects []Object3D `json:"objects"`
}

func (h *handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	objects, total, err := h.service.List(ctx, page, limit)
	if err != nil {
		h.internalError(w, "failed to list objects", err)
		return
	}
	if objects == nil {
		objects = []Object3D{}
	}

	httpx.WriteJSON(w, http.StatusOK, listResponse{
		Count:   len(objects),
		Total:   total,
		Page:    page,
		Pages:   (total + limit - 1) / limit,
		Objects: objects,
	})
}

type createRequest struct {
	Description string   `json:"description" validate:"required,min=1,max=2048"`
	Category    string   `json:"category"    validate:"required,min=1,max=128"`
	Metadata    Metadata `json:"metadata"`
}

func (h *handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}

	objectID, err := h.service.Create(ctx, CreateDTO{
		Description: req.Description,
		Category:    req.Category,
		Metadata:    req.Metadata,
	})
	if err != nil {
		h.internalError(w, "failed to create object", err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"object_id": string(objectID)})
}

func (h *handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	obj, err := h.service.Get(ctx, id.ObjectID(chi.URLParam(r, "objectID")))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFound(w)
			return
		}
		h.internalError(w, "failed to get object", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, obj)
}

type updateRequest struct {
	Description *string   `json:"description" validate:"omitempty,min=1,max=2048"`
	Category    *string   `json:"category"    validate:"omitempty,min=1,max=128"`
	Metadata    *Metadata `json:"metadata"`
}

func (h *handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var req updateRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.Update(ctx, id.ObjectID(chi.URLParam(r, "objectID")), UpdateDTO{
		Description: req.Description,
		Category:    req.Category,
		Metadata:    req.Metadata,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFound(w)
			return
		}
		h.internalError(w, "failed to update object", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "object updated"})
}

func (h *handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	err := h.service.Delete(ctx, id.ObjectID(chi.URLParam(r, "objectID")))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFound(w)
			return
		}
		h.internalError(w, "failed to delete object", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "object deleted"})
}

func (h *handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInvalidJSON,
			Message: "invalid multipart form",
		})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrValidationFailed,
			Message: "image file is required",
		})
		return
	}
	defer file.Close()

	img, err := h.service.UploadImage(ctx,
		id.ObjectID(chi.URLParam(r, "objectID")),
		header.Filename,
		r.FormValue("angle"),
		file,
	)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFound(w)
			return
		}
		h.logger.Error("image upload failed", zap.Error(err))
		httpx.WriteError(w, http.StatusServiceUnavailable, httpx.ErrorResponse[any]{
			Code:    httpx.ErrUnavailable,
			Message: "media store unavailable",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, img)
}

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
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInvalidJSON,
			Message: "request body must contain a single JSON object",
		})
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.ErrorResponse[[]httpx.FieldError]{
			Code:    httpx.ErrValidationFailed,
			Message: "validation failed",
			Details: httpx.ValidationDetails(err),
		})
		return false
	}
	return true
}

func (h *handler) notFound(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusNotFound, httpx.ErrorResponse[any]{
		Code:    httpx.ErrNotFound,
		Message: "object not found",
	})
}

func (h *handler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorResponse[any]{
		Code:    httpx.ErrInternal,
		Message: "internal server error",
	})
}
