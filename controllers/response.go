package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/deep-dholariya/backend/apperr"
	"github.com/deep-dholariya/backend/auth"
	"github.com/deep-dholariya/backend/workflow"
)

// Env carries the dependencies every handler closes over.
type Env struct {
	Engine       *workflow.Engine
	Gate         *auth.Gate
	Logger       *slog.Logger
	SecureCookie bool
}

type Response struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

type ListingResponse struct {
	Success    bool        `json:"success"`
	Count      int         `json:"count"`
	Properties interface{} `json:"properties"`
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("encoding response", "error", err)
	}
}

// WriteError logs err and answers with its mapped status and a
// {"message": ...} body.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := apperr.Status(err)
	attrs := []any{"method", r.Method, "path", r.URL.Path, "status", status, "error", err}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}
	WriteJSON(w, status, ErrorResponse{Message: apperr.Message(err)})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("Request body too large")
		}
		return apperr.Wrap(apperr.KindValidation, "Invalid request payload", err)
	}
	return nil
}

// NotFound answers requests that match no route.
func NotFound(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, env.Logger, apperr.NotFound("Route not found"))
	}
}

// MethodNotAllowed answers requests whose path exists under another method.
func MethodNotAllowed(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env.Logger.Info("request rejected", "method", r.Method, "path", r.URL.Path, "status", http.StatusMethodNotAllowed)
		WriteJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Message: "Method not allowed"})
	}
}
