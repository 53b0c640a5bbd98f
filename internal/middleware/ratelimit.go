package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/objaverse/platform/internal/httpx"
)

// RateLimit caps requests per client IP over the window and answers overflow
// with the shared error envelope instead of httprate's plain-text body.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			httpx.WriteError(w, http.StatusTooManyRequests, httpx.ErrorResponse[any]{
				Code:    httpx.ErrTooManyRequests,
				Message: "rate limit exceeded, retry later",
			})
		}),
	)
}
