// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/go-chi/chi/v5"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/auth"
)

// Routes mounts all audit log routes under the path where this
// router is mounted (typically "/audit" from bootstrap).
//
// Access is restricted to the given roles (the reviewer roles).
func Routes(h *Handler, sm *auth.SessionManager, roles ...string) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(roles...))

		pr.Get("/", h.ServeList)
	})

	return r
}
