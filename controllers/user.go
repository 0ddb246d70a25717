package controllers

import (
	"net/http"

	"github.com/deep-dholariya/backend/auth"
	"github.com/deep-dholariya/backend/workflow"
)

func UpdateProfile(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in workflow.ProfileUpdate
		if err := decodeJSON(r, &in); err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		user, err := env.Engine.UpdateProfile(r.Context(), auth.Caller(r.Context()), in)
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, UserResponse{Message: "Profile updated", User: user})
	}
}

// DeleteAccount removes the caller and everything referencing them, then
// signs the session out.
func DeleteAccount(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := env.Engine.DeleteAccount(ctx, auth.Caller(ctx)); err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		if err := env.Gate.Revoke(ctx, auth.SessionClaims(ctx)); err != nil {
			env.Logger.Error("revoking session of deleted account", "error", err)
		}
		clearSessionCookie(w, env)
		WriteJSON(w, http.StatusOK, Response{Message: "Account, properties, and related contact requests deleted successfully"})
	}
}
