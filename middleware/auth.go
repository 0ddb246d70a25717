package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/deep-dholariya/backend/auth"
	"github.com/deep-dholariya/backend/controllers"
	"github.com/deep-dholariya/backend/models"
)

// sessionToken reads the session cookie, falling back to a bearer header for
// non-browser clients.
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(controllers.SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	tokenParts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(tokenParts) == 2 && tokenParts[0] == "Bearer" {
		return tokenParts[1]
	}
	return ""
}

// AuthMiddleware resolves the session to a user and stores it in the request
// context.
func AuthMiddleware(gate *auth.Gate, logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, claims, err := gate.Resolve(r.Context(), sessionToken(r))
			if err != nil {
				controllers.WriteError(w, r, logger, err)
				return
			}
			ctx := auth.WithCaller(r.Context(), user, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.RequireRole(auth.Caller(r.Context()), models.RoleAdmin); err != nil {
				controllers.WriteError(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LimitBody caps request bodies at n bytes.
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if n > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Recover turns a panic into a 500 response.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic serving request", "method", r.Method, "path", r.URL.Path, "panic", rec)
					controllers.WriteJSON(w, http.StatusInternalServerError, controllers.ErrorResponse{Message: "Server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
