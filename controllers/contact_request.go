package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/deep-dholariya/backend/auth"
	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/workflow"
)

type ContactRequestResponse struct {
	Success bool                   `json:"success,omitempty"`
	Message string                 `json:"message"`
	Request *models.ContactRequest `json:"request"`
}

type requestsResponse struct {
	Success  bool                        `json:"success"`
	Requests []models.ContactRequestView `json:"requests"`
}

type interestResponse struct {
	Success    bool                        `json:"success"`
	Properties []models.InterestedProperty `json:"properties"`
}

func CreateContactRequest(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := mux.Vars(r)["propertyId"]
		request, err := env.Engine.CreateContactRequest(r.Context(), auth.Caller(r.Context()), propertyID)
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, ContactRequestResponse{Message: "Contact request sent successfully", Request: request})
	}
}

var transitionMessages = map[workflow.RequestAction]string{
	workflow.RequestDealDone:      "Marked as Deal Done and property completed",
	workflow.RequestNotInterested: "Marked as Not Interested",
	workflow.RequestSetPending:    "Status updated to pending",
}

func TransitionContactRequest(env *Env, action workflow.RequestAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		request, err := env.Engine.TransitionContactRequest(r.Context(), auth.Caller(r.Context()), id, action)
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, ContactRequestResponse{Success: true, Message: transitionMessages[action], Request: request})
	}
}

// ListContactRequests is the admin view of every request in a status.
func ListContactRequests(env *Env, status models.RequestStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := env.Engine.ListContactRequests(r.Context(), auth.Caller(r.Context()), status)
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, requestsResponse{Success: true, Requests: views})
	}
}

func MyContactRequests(env *Env, status models.RequestStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := env.Engine.MyContactRequests(r.Context(), auth.Caller(r.Context()), status)
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, requestsResponse{Success: true, Requests: views})
	}
}

func MyInterest(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		props, err := env.Engine.MyInterest(r.Context(), auth.Caller(r.Context()))
		if err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, interestResponse{Success: true, Properties: props})
	}
}

func DeleteContactRequest(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := env.Engine.DeleteContactRequest(r.Context(), auth.Caller(r.Context()), id); err != nil {
			WriteError(w, r, env.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, Response{Success: true, Message: "Contact request deleted successfully"})
	}
}
