package controllers

import (
	"net/http"

	"github.com/deep-dholariya/backend/apperr"
	"github.com/deep-dholariya/backend/auth"
	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/workflow"
)

const SessionCookie = "token"

type UserResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type forgotPasswordRequest struct {
	Identifier  string `json:"identifier"`
	NewPassword string `json:"newPassword"`
}

func setSessionCookie(w http.ResponseWriter, env *Env, session *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   env.Gate.SessionTTL(),
		HttpOnly: true,
		Secure:   env.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, env *Env) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   env.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func issueSession(w http.ResponseWriter, r *http.Request, env *Env, user *models.User) bool {
	session, err := env.Gate.Issue(user)
	if err != nil {
		WriteError(w, r, env.Logger, err)
		return false
	}
	setSessionCookie(w, env, session)
	return true
}

func RegisterUser(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in workflow.Registration
		if err := decodeJSON(r, &in); err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}

		user, err := env.Engine.Register(r.Context(), in)
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		if !issueSession(w, r, env, user) {
			return
		}
		WriteJSON(w, http.StatusCreated, UserResponse{Message: "Account created", User: user})
	}
}

func LoginUser(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var credentials loginRequest
		if err := decodeJSON(r, &credentials); err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}

		user, err := env.Engine.Authenticate(r.Context(), credentials.Identifier, credentials.Password)
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		if !issueSession(w, r, env, user) {
			return
		}
		WriteJSON(w, http.StatusOK, UserResponse{Message: "Login success", User: user})
	}
}

// LogoutUser needs no session: a valid cookie is revoked, anything else is
// simply cleared.
func LogoutUser(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			if err := env.Gate.RevokeToken(r.Context(), cookie.Value); err != nil {
				WriteError(w, r, env.Logger, err)
				return
			}
		}
		clearSessionCookie(w, env)
		WriteJSON(w, http.StatusOK, Response{Message: "Logged out"})
	}
}

func GetMe(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.Caller(r.Context())
		if user == nil {
			WriteError(w, r, env.Logger, apperr.Unauthenticated("Not authenticated"))
			return
		}
		WriteJSON(w, http.StatusOK, user)
	}
}

func ForgotPassword(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in forgotPasswordRequest
		if err := decodeJSON(r, &in); err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		if err := env.Engine.ResetPassword(r.Context(), in.Identifier, in.NewPassword); err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, Response{Message: "Password updated successfully"})
	}
}

type usersResponse struct {
	Success bool          `json:"success"`
	Users   []models.User `json:"users"`
}

func GetAllUsers(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := env.Engine.ListUsers(r.Context(), auth.Caller(r.Context()))
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		if users == nil {
			users = []models.User{}
		}
		WriteJSON(w, http.StatusOK, usersResponse{Success: true, Users: users})
	}
}
