// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/go-chi/chi/v5"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/auth"
)

// Routes wires the dashboard feature under whatever mount point
// the top-level router chooses (e.g., "/dashboard").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// All dashboards require the user to be signed in.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		// Final path will be /dashboard when mounted at "/dashboard".
		pr.Get("/", h.ServeDashboard)
	})

	return r
}
