// internal/app/features/verifications/list.go
package verifications

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/gorilla/csrf"

	uierrors "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/errors"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/authz"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/timeouts"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

// ServeList handles GET /verifications.
//
// Query parameters:
//   - role:  customer | rider; anything else shows every role
//   - debug: "1" adds pass diagnostics
//   - msg, type: flash message left by an action redirect
//
// Summary counts always cover every role so the filter tabs can show totals.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	filter, _ := models.ParseRole(query.Get(r, RoleField))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Pass(), h.Log, "verification queue")
	defer cancel()

	res, err := h.Pass.Run(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reconcile pass failed", err, "Could not load verifications.", "/dashboard")
		return
	}

	items := res.Filter(filter)
	if items == nil {
		items = []models.Item{}
	}

	vm := queueView{
		Items:     items,
		Counts:    res.Summary.For(filter),
		Summary:   res.Summary,
		Role:      filter,
		Flash:     parseFlash(r),
		CSRFToken: csrf.Token(r),
		CanReview: h.Engine.CanReview(role),
	}
	if query.Get(r, "debug") == "1" {
		d := res.Diagnostics
		vm.Diagnostics = &d
	}

	uierrors.WriteJSON(w, http.StatusOK, vm)
}

// parseFlash reads the msg/type pair an action redirect left in the URL.
func parseFlash(r *http.Request) *flash {
	msg := strings.TrimSpace(query.Get(r, "msg"))
	if msg == "" {
		return nil
	}
	if utf8.RuneCountInString(msg) > maxFlashLen {
		msg = string([]rune(msg)[:maxFlashLen])
	}
	kind := FlashSuccess
	if query.Get(r, "type") == FlashError {
		kind = FlashError
	}
	return &flash{Message: msg, Type: kind}
}
