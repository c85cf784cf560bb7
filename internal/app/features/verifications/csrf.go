// internal/app/features/verifications/csrf.go
package verifications

import (
	"net/http"

	"github.com/gorilla/csrf"

	uierrors "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/errors"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/auditlog"
)

// CSRF returns middleware that rejects unsafe requests without a valid
// csrf_token form field. With secure=false (local http) requests are marked
// plaintext so the HTTPS referer check is skipped.
func CSRF(key []byte, secure bool, audit *auditlog.Logger) func(http.Handler) http.Handler {
	protect := csrf.Protect(key,
		csrf.FieldName(TokenField),
		csrf.Path("/"),
		csrf.Secure(secure),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := "invalid token"
			if err := csrf.FailureReason(r); err != nil {
				reason = err.Error()
			}
			audit.CSRFRejected(r.Context(), r, reason)
			uierrors.RenderForbidden(w, r, "Your form has expired. Reload the page and try again.", BasePath)
		})),
	)

	return func(next http.Handler) http.Handler {
		h := protect(next)
		if secure {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
