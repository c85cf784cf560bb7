// internal/app/features/verifications/actions.go
package verifications

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	uierrors "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/errors"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/auditlog"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/authz"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/ratelimit"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/timeouts"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/workflow"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

type applyFunc func(context.Context, workflow.Action) (*workflow.Outcome, error)

// HandleApprove handles POST /verifications/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, models.ActionApprove, h.Engine.Approve)
}

// HandleReject handles POST /verifications/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, models.ActionReject, h.Engine.Reject)
}

// HandleUnverify handles POST /verifications/unverify.
func (h *Handler) HandleUnverify(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, models.ActionUnverify, h.Engine.Unverify)
}

// act runs one review action and always answers with a 303 back to the queue.
// Error details stay in the logs; the flash carries a fixed message.
func (h *Handler) act(w http.ResponseWriter, r *http.Request, action string, apply applyFunc) {
	actorID, actorRole, ok := authz.Actor(r)
	if !ok {
		h.Log.Info("review action without a session",
			zap.String("action", action),
			zap.String("client_ip", ratelimit.ClientIP(r)))
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	if !h.Throttle.Allow(actorID) {
		h.Log.Warn("review action throttled",
			zap.String("action", action),
			zap.String("actor_id", actorID),
			zap.String("client_ip", ratelimit.ClientIP(r)))
		redirectBack(w, r, "", "Too many review actions. Wait a moment and try again.", FlashError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		h.Log.Warn("review form parse failed", zap.String("action", action), zap.Error(err))
		redirectBack(w, r, "", "Invalid form data.", FlashError)
		return
	}
	filter, _ := models.ParseRole(r.PostFormValue(RoleField))

	ctx, cancel := timeouts.WithTimeout(auditlog.WithRequest(r.Context(), r), timeouts.Review(), h.Log, action+" verification")
	defer cancel()

	out, err := apply(ctx, workflow.Action{
		ItemID:   strings.TrimSpace(r.PostFormValue(ItemField)),
		Reviewer: workflow.Reviewer{ID: actorID, Role: actorRole},
		Note:     r.PostFormValue(NoteField),
	})
	if err != nil {
		h.logFailure(action, actorID, err)
		redirectBack(w, r, filter, failureMessage(action, err), FlashError)
		return
	}
	redirectBack(w, r, filter, successMessage(out), FlashSuccess)
}

func (h *Handler) logFailure(action, actorID string, err error) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.String("actor_id", actorID),
		zap.Error(err),
	}
	switch {
	case workflow.IsValidation(err), errors.Is(err, workflow.ErrNotFound),
		errors.Is(err, workflow.ErrInvalidState), errors.Is(err, workflow.ErrUnauthorized):
		h.Log.Info("review action refused", fields...)
	case workflow.IsPartialWrite(err):
		h.Log.Warn("review action left part-applied", fields...)
	default:
		h.Log.Error("review action failed", fields...)
	}
}

func redirectBack(w http.ResponseWriter, r *http.Request, role models.Role, msg, kind string) {
	q := url.Values{}
	if role != "" {
		q.Set(RoleField, string(role))
	}
	q.Set("msg", msg)
	q.Set("type", kind)
	http.Redirect(w, r, BasePath+"?"+q.Encode(), http.StatusSeeOther)
}

var pastTense = map[string]string{
	models.ActionApprove:  "approved",
	models.ActionReject:   "rejected",
	models.ActionUnverify: "returned to pending review",
}

func successMessage(out *workflow.Outcome) string {
	msg := fmt.Sprintf("Verification %s.", pastTense[out.Action])
	if out.Resumed {
		msg += " An earlier incomplete update was finished."
	}
	if !out.SubjectSynced {
		msg += " No matching profile was found to update."
	}
	return msg
}

func failureMessage(action string, err error) string {
	var ve *workflow.ValidationError
	switch {
	case errors.As(err, &ve):
		if ve.Field == ItemField {
			return "No verification was selected."
		}
		return fmt.Sprintf("Please enter a reason to %s this verification.", action)
	case errors.Is(err, workflow.ErrUnauthorized):
		return "You are not allowed to review verifications."
	case errors.Is(err, workflow.ErrNotFound):
		return "Verification not found. It may have been removed."
	case errors.Is(err, workflow.ErrSuperseded):
		return "A newer submission exists for this person. Refresh the queue and review that one."
	case errors.Is(err, workflow.ErrInvalidState):
		switch action {
		case models.ActionApprove:
			return "Only pending verifications can be approved."
		case models.ActionUnverify:
			return "Only approved verifications can be unverified."
		}
		return "This verification cannot be changed in its current state."
	case workflow.IsPartialWrite(err):
		return "The review was only partly saved. Repeat the same action to finish it."
	case errors.Is(err, context.DeadlineExceeded):
		return "The review timed out. Repeat the same action to finish it."
	}
	return "Could not save the review. Please try again."
}
