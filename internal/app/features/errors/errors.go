// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/authz"
)

// errorBody is the JSON shape of every error response the console writes.
type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	IsLoggedIn bool   `json:"is_logged_in"`
	Role       string `json:"role,omitempty"`
	BackURL    string `json:"back_url,omitempty"`
}

// Handler is the errors feature handler.
// No DB needed; it just writes fixed JSON bodies.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden reports that the signed-in operator lacks the required role.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	RenderForbidden(w, r, "", "")
}

// Unauthorized reports that a session is required.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	RenderUnauthorized(w, r, "")
}

// NotFound is the router's fallback handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	write(w, r, http.StatusNotFound, "not_found", "The requested resource does not exist.", "/")
}

// RenderUnauthorized writes a 401 body. If backURL is empty it defaults to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	write(w, r, http.StatusUnauthorized, "unauthorized", "Please sign in to continue.", backURL)
}

// RenderForbidden writes a 403 body with msg, or a default message when msg is empty.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if msg == "" {
		msg = "You don't have permission to view this page."
	}
	if backURL == "" {
		backURL = "/"
	}
	write(w, r, http.StatusForbidden, "forbidden", msg, backURL)
}

func write(w http.ResponseWriter, r *http.Request, status int, code, msg, backURL string) {
	role, _, _, signedIn := authz.UserCtx(r)
	WriteJSON(w, status, errorBody{
		Error:      code,
		Message:    msg,
		IsLoggedIn: signedIn,
		Role:       role,
		BackURL:    backURL,
	})
}
