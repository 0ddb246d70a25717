package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/deep-dholariya/backend/apperr"
	"github.com/deep-dholariya/backend/auth"
	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/workflow"
)

type PropertyResponse struct {
	Success  bool             `json:"success,omitempty"`
	Message  string           `json:"message"`
	Property *models.Property `json:"property"`
}

func listing(props []models.Property) ListingResponse {
	if props == nil {
		props = []models.Property{}
	}
	return ListingResponse{Success: true, Count: len(props), Properties: props}
}

func CreateProperty(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.PropertyInput
		if err := decodeJSON(r, &in); err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		property, err := env.Engine.CreateProperty(r.Context(), auth.Caller(r.Context()), in)
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, PropertyResponse{Message: "Property created successfully", Property: property})
	}
}

// GetMyProperties lists the caller's listings without the owner reference.
func GetMyProperties(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		props, err := env.Engine.MyProperties(r.Context(), auth.Caller(r.Context()))
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		for i := range props {
			props[i].UserID = ""
		}
		WriteJSON(w, http.StatusOK, listing(props))
	}
}

func UpdateProperty(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.PropertyInput
		if err := decodeJSON(r, &in); err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		id := mux.Vars(r)["id"]
		property, err := env.Engine.UpdateProperty(r.Context(), auth.Caller(r.Context()), id, in)
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, PropertyResponse{Success: true, Message: "Property updated successfully.", Property: property})
	}
}

func DeleteProperty(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := env.Engine.DeleteProperty(r.Context(), auth.Caller(r.Context()), id); err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, Response{Message: "Property and its contact requests deleted successfully"})
	}
}

func SearchProperties(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		props, err := env.Engine.SearchProperties(r.Context(), auth.Caller(r.Context()), query)
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, listing(props))
	}
}

// ListPropertiesByStatus serves the status feeds. excludeCaller hides the
// caller's own listings from the public approved feed.
func ListPropertiesByStatus(env *Env, status models.PropertyStatus, excludeCaller bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		props, err := env.Engine.ListByStatus(r.Context(), auth.Caller(r.Context()), status, excludeCaller)
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, listing(props))
	}
}

var moderationMessages = map[workflow.PropertyAction]string{
	workflow.PropertyApprove:  "Property approved",
	workflow.PropertyReject:   "Property rejected",
	workflow.PropertyComplete: "Property marked completed",
	workflow.PropertyReset:    "Status changed to pending",
}

// ModerateProperty handles PUT /properties/{id}/{action}.
func ModerateProperty(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		action, ok := workflow.ModerationAction(vars["action"])
		if !ok {
			WriteError(w, r, env.Logger, apperr.NotFound("Unknown moderation action"))
			return
		}
		property, err := env.Engine.ModerateProperty(r.Context(), auth.Caller(r.Context()), vars["id"], action)
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, PropertyResponse{Message: moderationMessages[action], Property: property})
	}
}
