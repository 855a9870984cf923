package middleware

import (
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/portfolio-engagement/internal/utils/response"
)

// Recover is the outermost boundary: any panic becomes a generic 500 with
// the detail kept in the server log, never in the response body.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Handler panicked",
					slog.Any("panic", rec),
					slog.String("path", r.URL.Path))
				response.WriteJSON(w, http.StatusInternalServerError, response.Error("Internal server error"))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
