// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"

	"go.uber.org/zap"

	uierrors "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/errors"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/authz"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/reconcile"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/timeouts"
)

type Handler struct {
	Pass   *reconcile.Pass
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(pass *reconcile.Pass, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Pass:   pass,
		ErrLog: errLog,
		Log:    logger,
	}
}

type dashboardView struct {
	UserName             string            `json:"user_name"`
	Role                 string            `json:"role"`
	PendingVerifications int               `json:"pending_verifications"`
	PendingByRole        map[string]int    `json:"pending_by_role"`
	Summary              reconcile.Summary `json:"summary"`
}

// ServeDashboard handles GET /dashboard. The pending badge counts the same
// deduplicated queue the verification page lists.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	role, name, _, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Pass(), h.Log, "dashboard counts")
	defer cancel()

	res, err := h.Pass.Run(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard pass failed", err, "Could not load dashboard counts.", "/")
		return
	}

	uierrors.WriteJSON(w, http.StatusOK, dashboardView{
		UserName:             name,
		Role:                 role,
		PendingVerifications: res.Summary.All.Pending,
		PendingByRole: map[string]int{
			"customer": res.Summary.Customer.Pending,
			"rider":    res.Summary.Rider.Pending,
		},
		Summary: res.Summary,
	})
}
