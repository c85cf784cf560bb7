// internal/app/features/verifications/routes.go
package verifications

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/auth"
)

// Routes wires the verification queue under whatever mount point the
// top-level router chooses (normally BasePath). Every route requires one of
// reviewerRoles; csrf protects the form posts and issues the queue's token.
func Routes(h *Handler, sm *auth.SessionManager, csrf func(http.Handler) http.Handler, reviewerRoles ...string) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(reviewerRoles...))
		pr.Use(csrf)

		pr.Get("/", h.ServeList)
		pr.Post("/approve", h.HandleApprove)
		pr.Post("/reject", h.HandleReject)
		pr.Post("/unverify", h.HandleUnverify)
	})

	return r
}
