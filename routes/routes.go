package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/deep-dholariya/backend/controllers"
	"github.com/deep-dholariya/backend/middleware"
	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/workflow"
)

func Routes(router *mux.Router, env *controllers.Env) {
	// Public auth routes
	router.HandleFunc("/api/auth/signup", controllers.RegisterUser(env)).Methods("POST")
	router.HandleFunc("/api/auth/login", controllers.LoginUser(env)).Methods("POST")
	router.HandleFunc("/api/auth/logout", controllers.LogoutUser(env)).Methods("POST")
	router.HandleFunc("/api/auth/forgot-password", controllers.ForgotPassword(env)).Methods("POST")

	// Routes that require a session
	authenticated := router.PathPrefix("/api").Subrouter()
	authenticated.Use(middleware.AuthMiddleware(env.Gate, env.Logger))

	adminOnly := middleware.RequireAdmin(env.Logger)
	admin := func(h http.HandlerFunc) http.Handler { return adminOnly(h) }

	authenticated.HandleFunc("/auth/me", controllers.GetMe(env)).Methods("GET")
	authenticated.Handle("/auth/all-users", admin(controllers.GetAllUsers(env))).Methods("GET")

	authenticated.HandleFunc("/user/profile", controllers.UpdateProfile(env)).Methods("PUT")
	authenticated.HandleFunc("/user/delete", controllers.DeleteAccount(env)).Methods("DELETE")

	// Property routes; fixed paths before /{id}
	authenticated.HandleFunc("/properties", controllers.CreateProperty(env)).Methods("POST")
	authenticated.HandleFunc("/properties/my", controllers.GetMyProperties(env)).Methods("GET")
	authenticated.HandleFunc("/properties/search", controllers.SearchProperties(env)).Methods("GET")
	authenticated.HandleFunc("/properties/approved", controllers.ListPropertiesByStatus(env, models.PropertyApproved, true)).Methods("GET")
	authenticated.Handle("/properties/approvedd", admin(controllers.ListPropertiesByStatus(env, models.PropertyApproved, false))).Methods("GET")
	authenticated.Handle("/properties/pending", admin(controllers.ListPropertiesByStatus(env, models.PropertyPending, false))).Methods("GET")
	authenticated.Handle("/properties/rejected", admin(controllers.ListPropertiesByStatus(env, models.PropertyRejected, false))).Methods("GET")
	authenticated.Handle("/properties/completed", admin(controllers.ListPropertiesByStatus(env, models.PropertyCompleted, false))).Methods("GET")
	authenticated.Handle("/properties/{id}/{action:approve|reject|completed|pending}", admin(controllers.ModerateProperty(env))).Methods("PUT")
	authenticated.HandleFunc("/properties/{id}", controllers.UpdateProperty(env)).Methods("PUT")
	authenticated.HandleFunc("/properties/{id}", controllers.DeleteProperty(env)).Methods("DELETE")

	// Contact request routes
	authenticated.Handle("/contact-requests/pending", admin(controllers.ListContactRequests(env, models.RequestPending))).Methods("GET")
	authenticated.Handle("/contact-requests/deal-done", admin(controllers.ListContactRequests(env, models.RequestDealDone))).Methods("GET")
	authenticated.Handle("/contact-requests/not-interested", admin(controllers.ListContactRequests(env, models.RequestNotInterested))).Methods("GET")
	authenticated.HandleFunc("/contact-requests/user-pending", controllers.MyContactRequests(env, models.RequestPending)).Methods("GET")
	authenticated.HandleFunc("/contact-requests/user-deal-done", controllers.MyContactRequests(env, models.RequestDealDone)).Methods("GET")
	authenticated.HandleFunc("/contact-requests/user-not-interested", controllers.MyContactRequests(env, models.RequestNotInterested)).Methods("GET")
	authenticated.HandleFunc("/contact-requests/my-interest", controllers.MyInterest(env)).Methods("GET")
	authenticated.HandleFunc("/contact-requests/set-pending/{id}", controllers.TransitionContactRequest(env, workflow.RequestSetPending)).Methods("PATCH")
	authenticated.HandleFunc("/contact-requests/{id}/deal-done", controllers.TransitionContactRequest(env, workflow.RequestDealDone)).Methods("PUT")
	authenticated.HandleFunc("/contact-requests/{id}/not-interested", controllers.TransitionContactRequest(env, workflow.RequestNotInterested)).Methods("PUT")
	authenticated.HandleFunc("/contact-requests/{propertyId}", controllers.CreateContactRequest(env)).Methods("POST")
	authenticated.HandleFunc("/contact-requests/{id}", controllers.DeleteContactRequest(env)).Methods("DELETE")
}

// NewHandler assembles the router with the server-wide middleware.
func NewHandler(env *controllers.Env, bodyLimit int64) http.Handler {
	router := mux.NewRouter()
	router.Use(
		middleware.Recover(env.Logger),
		middleware.RequestLogger(env.Logger),
		middleware.LimitBody(bodyLimit),
	)
	// mux skips Use middleware for unmatched requests
	router.NotFoundHandler = middleware.RequestLogger(env.Logger)(controllers.NotFound(env))
	router.MethodNotAllowedHandler = middleware.RequestLogger(env.Logger)(controllers.MethodNotAllowed(env))
	Routes(router, env)
	return router
}
