// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/auth"
)

// UserCtx returns the user's role (lowercased), name, id, and a found flag.
// If no user is present in context or the session carries no id, it returns
// "visitor", "", "", false. Callers can trust that ok=true means a signed-in
// operator with an id.
func UserCtx(r *http.Request) (role string, name string, userID string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || strings.TrimSpace(user.ID) == "" {
		// Missing id in session - fail closed.
		return "visitor", "", "", false
	}
	return strings.ToLower(user.Role), user.Name, user.ID, true
}

// Actor returns the id and role to record as the performer of an action.
func Actor(r *http.Request) (id, role string, ok bool) {
	role, _, id, ok = UserCtx(r)
	if !ok {
		return "", "", false
	}
	return id, role, true
}
