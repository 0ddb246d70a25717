package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-dholariya/backend/auth"
	"github.com/deep-dholariya/backend/cache"
	"github.com/deep-dholariya/backend/controllers"
	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/store"
	"github.com/deep-dholariya/backend/store/memstore"
	"github.com/deep-dholariya/backend/utils"
	"github.com/deep-dholariya/backend/workflow"
)

const pngImage = "data:image/png;base64,iVBORw0KGgo="

type harness struct {
	t       *testing.T
	store   *memstore.Store
	engine  *workflow.Engine
	handler http.Handler
}

func newHarness(t *testing.T, bodyLimit int64) *harness {
	t.Helper()
	s := memstore.New()
	require.NoError(t, s.Init(context.Background()))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine := workflow.New(s, workflow.WithLogger(logger))
	gate := auth.NewGate(utils.NewSessionSigner("route-secret", 7*24*time.Hour), cache.NewMemoryRevocations(), s, logger)
	env := &controllers.Env{Engine: engine, Gate: gate, Logger: logger}
	return &harness{t: t, store: s, engine: engine, handler: NewHandler(env, bodyLimit)}
}

func (h *harness) do(method, path string, body interface{}, session *http.Cookie) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func sessionOf(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == controllers.SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", controllers.SessionCookie)
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (h *harness) signup(name string) *http.Cookie {
	h.t.Helper()
	rec := h.do("POST", "/api/auth/signup", map[string]string{
		"fullName":     name,
		"email":        name + "@example.com",
		"mobileNumber": "+91-" + name,
		"password":     "secret-" + name,
	}, nil)
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return sessionOf(h.t, rec)
}

func (h *harness) adminSession() *http.Cookie {
	h.t.Helper()
	_, _, err := h.engine.EnsureAdmin(context.Background(), workflow.Registration{
		FullName: "Admin", Email: "admin@example.com", MobileNumber: "+91-admin", Password: "admin-secret",
	})
	require.NoError(h.t, err)
	rec := h.do("POST", "/api/auth/login", map[string]string{"identifier": "admin@example.com", "password": "admin-secret"}, nil)
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	return sessionOf(h.t, rec)
}

func (h *harness) createProperty(session *http.Cookie, location string) string {
	h.t.Helper()
	rec := h.do("POST", "/api/properties", map[string]interface{}{
		"title": "Flat in " + location, "location": location, "price": 2500000, "images": []string{pngImage},
	}, session)
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	property := decode(h.t, rec)["property"].(map[string]interface{})
	return property["_id"].(string)
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t, 0)
	rec := h.do("POST", "/api/auth/signup", map[string]string{
		"fullName": "Asha", "email": "asha@example.com", "mobileNumber": "1", "password": "pw",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	cookie := sessionOf(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 7*24*3600, cookie.MaxAge)
	assert.NotContains(t, rec.Body.String(), "password")

	me := h.do("GET", "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "asha@example.com", decode(t, me)["email"])

	dup := h.do("POST", "/api/auth/signup", map[string]string{
		"fullName": "Other", "email": "asha@example.com", "mobileNumber": "2", "password": "pw",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, dup.Code)
	assert.Equal(t, "Email or mobile already exists", decode(t, dup)["message"])

	bad := h.do("POST", "/api/auth/login", map[string]string{"identifier": "1", "password": "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	out := h.do("POST", "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, out.Code)
	cleared := sessionOf(t, out)
	assert.Equal(t, "", cleared.Value)

	again := h.do("GET", "/api/auth/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, again.Code)
	assert.Equal(t, "Session has been signed out", decode(t, again)["message"])
}

func TestMissingSessionIsUnauthorized(t *testing.T) {
	h := newHarness(t, 0)
	for _, path := range []string{"/api/auth/me", "/api/properties/my", "/api/contact-requests/my-interest"} {
		rec := h.do("GET", path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "Not authenticated", decode(t, rec)["message"])
	}
	rec := h.do("GET", "/api/auth/me", nil, &http.Cookie{Name: controllers.SessionCookie, Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRejectUsers(t *testing.T) {
	h := newHarness(t, 0)
	user := h.signup("asha")
	admin := h.adminSession()

	for _, path := range []string{
		"/api/auth/all-users",
		"/api/properties/pending",
		"/api/properties/approvedd",
		"/api/contact-requests/deal-done",
	} {
		rec := h.do("GET", path, nil, user)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
		assert.Equal(t, http.StatusOK, h.do("GET", path, nil, admin).Code, path)
	}

	users := decode(t, h.do("GET", "/api/auth/all-users", nil, admin))
	assert.Len(t, users["users"], 2)
}

func TestDealScenario(t *testing.T) {
	h := newHarness(t, 0)
	a := h.signup("asha")
	b := h.signup("bilal")
	admin := h.adminSession()

	x := h.createProperty(a, "Baner, Pune")
	rec := h.do("PUT", "/api/properties/"+x+"/approve", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "approved", decode(t, rec)["property"].(map[string]interface{})["status"])

	feed := decode(t, h.do("GET", "/api/properties/approved", nil, b))
	assert.EqualValues(t, 1, feed["count"])
	own := decode(t, h.do("GET", "/api/properties/approved", nil, a))
	assert.EqualValues(t, 0, own["count"])

	rec = h.do("POST", "/api/contact-requests/"+x, nil, b)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	request := decode(t, rec)["request"].(map[string]interface{})
	assert.Equal(t, "pending", request["status"])
	requestID := request["_id"].(string)

	interest := decode(t, h.do("GET", "/api/contact-requests/my-interest", nil, b))
	props := interest["properties"].([]interface{})
	require.Len(t, props, 1)
	assert.Equal(t, requestID, props[0].(map[string]interface{})["requestId"])

	rec = h.do("PUT", "/api/contact-requests/"+requestID+"/deal-done", nil, a)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "deal_done", decode(t, rec)["request"].(map[string]interface{})["status"])

	stored, err := h.store.GetProperty(context.Background(), x)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyCompleted, stored.Status)

	rec = h.do("PUT", "/api/properties/"+x, map[string]interface{}{
		"title": "New", "location": "Pune", "price": 1, "images": []string{pngImage},
	}, a)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot edit completed properties.", decode(t, rec)["message"])

	rec = h.do("POST", "/api/contact-requests/"+x, nil, b)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	requests, err := h.store.ListContactRequests(context.Background(), store.ContactRequestFilter{})
	require.NoError(t, err)
	assert.Len(t, requests, 1)

	done := decode(t, h.do("GET", "/api/contact-requests/user-deal-done", nil, b))
	views := done["requests"].([]interface{})
	require.Len(t, views, 1)
	view := views[0].(map[string]interface{})
	assert.Equal(t, x, view["propertyId"].(map[string]interface{})["_id"])
	assert.Equal(t, "asha@example.com", view["ownerUserId"].(map[string]interface{})["email"])

	rec = h.do("PATCH", "/api/contact-requests/set-pending/"+requestID, nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPropertyRoutes(t *testing.T) {
	h := newHarness(t, 0)
	a := h.signup("asha")
	b := h.signup("bilal")
	admin := h.adminSession()

	rec := h.do("POST", "/api/properties", map[string]interface{}{
		"title": "t", "location": "Goa", "price": 10, "images": []string{"https://cdn/x.png"},
	}, a)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid image format", decode(t, rec)["message"])

	rec = h.do("POST", "/api/properties", `{"title":`, a)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	pending := h.createProperty(a, "Kothrud, Pune")
	mine := decode(t, h.do("GET", "/api/properties/my", nil, a))
	assert.EqualValues(t, 1, mine["count"])
	first := mine["properties"].([]interface{})[0].(map[string]interface{})
	assert.NotContains(t, first, "userId")

	search := decode(t, h.do("GET", "/api/properties/search?query=pune", nil, b))
	assert.EqualValues(t, 0, search["count"])
	assert.Equal(t, http.StatusBadRequest, h.do("GET", "/api/properties/search", nil, b).Code)

	require.Equal(t, http.StatusOK, h.do("PUT", "/api/properties/"+pending+"/approve", nil, admin).Code)
	search = decode(t, h.do("GET", "/api/properties/search?query=PUNE", nil, b))
	assert.EqualValues(t, 1, search["count"])

	assert.Equal(t, http.StatusForbidden, h.do("DELETE", "/api/properties/"+pending, nil, b).Code)
	assert.Equal(t, http.StatusForbidden, h.do("PUT", "/api/properties/"+pending+"/reject", nil, a).Code)
	assert.Equal(t, http.StatusNotFound, h.do("PUT", "/api/properties/nope/approve", nil, admin).Code)

	require.Equal(t, http.StatusCreated, h.do("POST", "/api/contact-requests/"+pending, nil, b).Code)
	rec = h.do("DELETE", "/api/properties/"+pending, nil, a)
	require.Equal(t, http.StatusOK, rec.Code)
	requests, err := h.store.ListContactRequests(context.Background(), store.ContactRequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, requests)
	assert.Equal(t, http.StatusNotFound, h.do("DELETE", "/api/properties/"+pending, nil, a).Code)
}

func TestContactRequestOwnership(t *testing.T) {
	h := newHarness(t, 0)
	a := h.signup("asha")
	b := h.signup("bilal")
	c := h.signup("chen")
	x := h.createProperty(a, "Goa")

	rec := h.do("POST", "/api/contact-requests/"+x, nil, a)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You cannot contact your own property", decode(t, rec)["message"])
	assert.Equal(t, http.StatusNotFound, h.do("POST", "/api/contact-requests/missing", nil, b).Code)

	rec = h.do("POST", "/api/contact-requests/"+x, nil, b)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["request"].(map[string]interface{})["_id"].(string)

	assert.Equal(t, http.StatusForbidden, h.do("PUT", "/api/contact-requests/"+id+"/not-interested", nil, c).Code)
	assert.Equal(t, http.StatusForbidden, h.do("DELETE", "/api/contact-requests/"+id, nil, a).Code)
	assert.Equal(t, http.StatusOK, h.do("DELETE", "/api/contact-requests/"+id, nil, b).Code)
	assert.Equal(t, http.StatusNotFound, h.do("DELETE", "/api/contact-requests/"+id, nil, b).Code)
}

func TestProfileAndAccountDeletion(t *testing.T) {
	h := newHarness(t, 0)
	a := h.signup("asha")
	b := h.signup("bilal")
	x := h.createProperty(a, "Goa")
	require.Equal(t, http.StatusCreated, h.do("POST", "/api/contact-requests/"+x, nil, b).Code)

	rec := h.do("PUT", "/api/user/profile", map[string]string{"fullName": "Asha K", "currentPassword": "wrong"}, a)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Wrong password", decode(t, rec)["message"])

	rec = h.do("PUT", "/api/user/profile", map[string]string{"fullName": "Asha K", "currentPassword": "secret-asha"}, a)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Asha K", decode(t, rec)["user"].(map[string]interface{})["fullName"])

	rec = h.do("DELETE", "/api/user/delete", nil, a)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusUnauthorized, h.do("GET", "/api/auth/me", nil, a).Code)

	requests, err := h.store.ListContactRequests(context.Background(), store.ContactRequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, requests)
	_, err = h.store.GetProperty(context.Background(), x)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestForgotPassword(t *testing.T) {
	h := newHarness(t, 0)
	h.signup("asha")

	rec := h.do("POST", "/api/auth/forgot-password", map[string]string{"identifier": "+91-asha", "newPassword": "fresh"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do("POST", "/api/auth/login", map[string]string{"identifier": "asha@example.com", "password": "fresh"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do("POST", "/api/auth/forgot-password", map[string]string{"identifier": "ghost", "newPassword": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	h := newHarness(t, 64)
	rec := h.do("POST", "/api/auth/signup", map[string]string{
		"fullName": strings.Repeat("a", 200), "email": "a@x.io", "mobileNumber": "1", "password": "pw",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body too large", decode(t, rec)["message"])
}

func TestUnmatchedRoutesAnswerJSON(t *testing.T) {
	h := newHarness(t, 0)

	for _, path := range []string{"/nowhere", "/api/nowhere"} {
		rec := h.do("GET", path, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "Route not found", decode(t, rec)["message"])
	}

	rec := h.do("GET", "/api/auth/signup", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", decode(t, rec)["message"])
}
