// internal/app/system/workflow/engine.go
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/archive"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/docstore"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/subjects"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/verifications"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/auditlog"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/evidence"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/htmlsanitize"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/metrics"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/reconcile"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

// DefaultReviewerRoles are the roles allowed to review when none are configured.
var DefaultReviewerRoles = []string{"admin"}

// maxReviewTimeSteps bounds how far a new review time is moved forward to
// find an unused archive id.
const maxReviewTimeSteps = 1000

// Reviewer is the signed-in operator performing an action.
type Reviewer struct {
	ID   string
	Role string
}

// Action is one review request.
type Action struct {
	ItemID   string
	Reviewer Reviewer
	Note     string
}

// Outcome describes an applied action.
type Outcome struct {
	Action     string        `json:"action"`
	ItemID     string        `json:"item_id"`
	SubjectID  string        `json:"subject_id,omitempty"`
	ArchiveID  string        `json:"archive_id"`
	ActionID   string        `json:"action_id"`
	Status     models.Status `json:"status"`
	ReviewedAt time.Time     `json:"reviewed_at"`
	// Resumed is set when the action completed an earlier, part-applied one.
	Resumed bool `json:"resumed"`
	// SubjectSynced is false when no profile could be found to update.
	SubjectSynced bool `json:"subject_synced"`
}

// Deps holds what an Engine needs. Audit and Metrics may be nil.
type Deps struct {
	Gateway       docstore.Gateway
	Pass          *reconcile.Pass // built from Gateway when nil
	Audit         *auditlog.Logger
	Metrics       *metrics.Metrics
	Log           *zap.Logger
	ReviewerRoles []string
	Now           func() time.Time
}

// Engine applies review actions. Each action writes, in order, the workflow
// record, an archive entry and the subject's denormalized fields. There is no
// rollback; a failed later step leaves the earlier writes in place and the
// same action can be repeated to finish it.
type Engine struct {
	pass          *reconcile.Pass
	verifications *verifications.Store
	archive       *archive.Store
	subjects      *subjects.Store
	audit         *auditlog.Logger
	metrics       *metrics.Metrics
	log           *zap.Logger
	roles         map[string]bool
	now           func() time.Time
}

// New creates an Engine.
func New(d Deps) *Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	pass := d.Pass
	if pass == nil {
		pass = reconcile.NewPass(d.Gateway, log, d.Metrics)
	}
	roles := d.ReviewerRoles
	if len(roles) == 0 {
		roles = DefaultReviewerRoles
	}
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = true
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		pass:          pass,
		verifications: verifications.New(d.Gateway),
		archive:       archive.New(d.Gateway),
		subjects:      subjects.New(d.Gateway),
		audit:         d.Audit,
		metrics:       d.Metrics,
		log:           log,
		roles:         allowed,
		now:           now,
	}
}

// CanReview reports whether role may perform review actions.
func (e *Engine) CanReview(role string) bool {
	return e.roles[strings.ToLower(strings.TrimSpace(role))]
}

// Approve marks a pending item verified.
func (e *Engine) Approve(ctx context.Context, a Action) (*Outcome, error) {
	return e.apply(ctx, models.ActionApprove, a)
}

// Reject marks an item rejected. A note is required.
func (e *Engine) Reject(ctx context.Context, a Action) (*Outcome, error) {
	return e.apply(ctx, models.ActionReject, a)
}

// Unverify returns an approved item to pending. A note is required.
func (e *Engine) Unverify(ctx context.Context, a Action) (*Outcome, error) {
	return e.apply(ctx, models.ActionUnverify, a)
}

// recordStatus is the workflow record status an action leaves behind.
func recordStatus(action string) models.Status {
	switch action {
	case models.ActionReject:
		return models.StatusRejected
	case models.ActionUnverify:
		return models.StatusPending
	}
	return models.StatusApproved
}

// archiveStatus is the status stored in an action's archive entry. An
// unverification is archived as a rejection.
func archiveStatus(action string) models.Status {
	if action == models.ActionApprove {
		return models.StatusApproved
	}
	return models.StatusRejected
}

func (e *Engine) apply(ctx context.Context, action string, a Action) (*Outcome, error) {
	rv := auditlog.Review{
		Action:    action,
		ActorID:   a.Reviewer.ID,
		ActorRole: a.Reviewer.Role,
		ItemID:    strings.TrimSpace(a.ItemID),
		ActionID:  uuid.NewString(),
	}

	if !e.CanReview(a.Reviewer.Role) {
		e.audit.ReviewDenied(ctx, rv.ActorID, rv.ActorRole, action, rv.ItemID)
		e.metrics.IncrementTransition(action, "unauthorized")
		return nil, ErrUnauthorized
	}
	if rv.ItemID == "" {
		e.metrics.IncrementTransition(action, "invalid")
		return nil, &ValidationError{Field: "verification_id", Message: "is required"}
	}
	note := htmlsanitize.PlainText(a.Note)
	if action != models.ActionApprove && note == "" {
		e.metrics.IncrementTransition(action, "invalid")
		e.audit.ReviewFailed(ctx, rv, "missing note")
		return nil, &ValidationError{Field: "admin_note", Message: "a reason is required"}
	}
	rv.Note = note

	tg, err := e.pass.Target(ctx, rv.ItemID)
	if errors.Is(err, reconcile.ErrNotFound) {
		e.metrics.IncrementTransition(action, "not_found")
		e.audit.ReviewFailed(ctx, rv, "item not found")
		return nil, ErrNotFound
	}
	if err != nil {
		e.metrics.IncrementTransition(action, "error")
		e.log.Error("review lookup failed", zap.String("action", action), zap.String("item_id", rv.ItemID), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", action, rv.ItemID, err)
	}
	rv.ItemID = tg.ItemID

	if out, ok, err := e.resume(ctx, action, tg, rv); ok || err != nil {
		return out, err
	}

	if superseded(tg) {
		e.metrics.IncrementTransition(action, "invalid")
		e.audit.ReviewFailed(ctx, rv, "superseded by "+tg.Item.ID)
		return nil, fmt.Errorf("%s %s (current item %s): %w", action, tg.ItemID, tg.Item.ID, ErrSuperseded)
	}
	if !allowed(action, tg.Item.Status) {
		e.metrics.IncrementTransition(action, "invalid")
		e.audit.ReviewFailed(ctx, rv, "status "+string(tg.Item.Status))
		return nil, fmt.Errorf("%s %s with status %s: %w", action, tg.ItemID, tg.Item.Status, ErrInvalidState)
	}

	now, err := e.reviewTime(ctx, action, tg.ItemID)
	if err != nil {
		e.metrics.IncrementTransition(action, "error")
		e.log.Error("review time lookup failed", zap.String("action", action), zap.String("item_id", tg.ItemID), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", action, tg.ItemID, err)
	}
	rec := e.record(action, tg, a.Reviewer.ID, note, now)
	if err := e.verifications.Put(ctx, rec); err != nil {
		e.metrics.IncrementTransition(action, "error")
		e.audit.ReviewFailed(ctx, rv, err.Error())
		e.log.Error("review record write failed", zap.String("action", action), zap.String("item_id", tg.ItemID), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", action, tg.ItemID, err)
	}
	return e.finish(ctx, action, tg, rec, rv, false)
}

// reviewTime returns the timestamp for a new action on an item: now at
// millisecond precision, moved forward a millisecond at a time while an
// archive entry for the same action and item already uses it. Every new
// action therefore gets its own archive entry.
func (e *Engine) reviewTime(ctx context.Context, action, itemID string) (time.Time, error) {
	at := e.now().UTC().Truncate(time.Millisecond)
	for i := 0; i < maxReviewTimeSteps; i++ {
		taken, err := e.archive.Exists(ctx, archive.ID(action, itemID, at))
		if err != nil {
			return time.Time{}, err
		}
		if !taken {
			return at, nil
		}
		at = at.Add(time.Millisecond)
	}
	return time.Time{}, fmt.Errorf("no free review time: %w", archive.ErrExists)
}

// superseded reports whether the subject's current item is a different
// workflow record than the one the action names. Profile-derived items mirror
// whichever record the subject has and never supersede it.
func superseded(tg *reconcile.Target) bool {
	return tg.Item.Source != models.SourceProfile && tg.Item.ID != "" && tg.Item.ID != tg.ItemID
}

// allowed is the per-action precondition on the item's current status.
func allowed(action string, status models.Status) bool {
	switch action {
	case models.ActionApprove:
		return status == models.StatusPending
	case models.ActionUnverify:
		return status == models.StatusApproved
	}
	return true
}

// record builds the workflow record an action writes, keeping any fields the
// stored record already had.
func (e *Engine) record(action string, tg *reconcile.Target, reviewerID, note string, at time.Time) models.WorkflowRecord {
	rec := models.WorkflowRecord{ID: tg.ItemID}
	if tg.Record != nil {
		rec = *tg.Record
	}
	if rec.UserID == "" && tg.Subject != nil {
		rec.UserID = tg.Subject.ID
	}
	if rec.SubmittedAt == nil {
		submitted := tg.Item.SubmittedAt
		if submitted.IsZero() {
			submitted = at
		}
		rec.SubmittedAt = &submitted
	}
	if rec.IDType == "" {
		rec.IDType = tg.Item.IDType
	}
	rec.Status = recordStatus(action)
	rec.ReviewedAt = &at
	rec.AdminNote = note
	rec.ReviewAction = action
	rec.ReviewedBy = reviewerID
	return rec
}

// resume finishes an action whose workflow record was written by an earlier
// attempt but whose archive entry or subject sync is missing. It reports false
// when there is nothing to resume.
func (e *Engine) resume(ctx context.Context, action string, tg *reconcile.Target, rv auditlog.Review) (*Outcome, bool, error) {
	rec := tg.Record
	if rec == nil || rec.ReviewAction != action || rec.ReviewedAt == nil || rec.Status != recordStatus(action) {
		return nil, false, nil
	}
	archiveID := archive.ID(action, tg.ItemID, *rec.ReviewedAt)
	archived, err := e.archive.Exists(ctx, archiveID)
	if err != nil {
		e.metrics.IncrementTransition(action, "error")
		return nil, false, fmt.Errorf("%s %s: %w", action, tg.ItemID, err)
	}
	if archived && (tg.Subject == nil || synced(action, *tg.Subject, archiveID)) {
		return nil, false, nil
	}
	e.log.Info("resuming part-applied review",
		zap.String("action", action),
		zap.String("item_id", tg.ItemID),
		zap.String("archive_id", archiveID),
		zap.Bool("archived", archived),
	)
	out, err := e.finish(ctx, action, tg, *rec, rv, true)
	return out, true, err
}

// synced reports whether a subject already carries an action's fields.
func synced(action string, s models.Subject, archiveID string) bool {
	switch action {
	case models.ActionApprove:
		return s.Verified && s.VerificationID == archiveID
	case models.ActionReject:
		return !s.Verified && s.VerificationID == archiveID &&
			strings.EqualFold(s.VerificationStatus, models.SubjectRejected)
	}
	return !s.Verified && strings.EqualFold(s.VerificationStatus, models.SubjectUnverified)
}

// subjectFields is the subject update for an action.
func subjectFields(action string, s models.Subject, idType, archiveID string) models.SubjectVerification {
	switch action {
	case models.ActionApprove:
		return models.SubjectVerification{
			Verified:       true,
			Status:         models.SubjectVerified,
			VerificationID: archiveID,
			StoragePath:    evidence.StoragePath(s.Role, s.ID, idType),
			IDType:         idType,
		}
	case models.ActionReject:
		return models.SubjectVerification{
			Verified:       false,
			Status:         models.SubjectRejected,
			VerificationID: archiveID,
			StoragePath:    evidence.StoragePath(s.Role, s.ID, idType),
			IDType:         idType,
		}
	}
	return models.SubjectVerification{Verified: false, Status: models.SubjectUnverified}
}

// finish writes the archive entry and subject fields for a stored record.
func (e *Engine) finish(ctx context.Context, action string, tg *reconcile.Target, rec models.WorkflowRecord, rv auditlog.Review, resumed bool) (*Outcome, error) {
	at := *rec.ReviewedAt
	archiveID := archive.ID(action, tg.ItemID, at)
	subjectID := rec.UserID
	if tg.Subject != nil {
		subjectID = tg.Subject.ID
	}
	rv.SubjectID = subjectID
	rv.ArchiveID = archiveID
	rv.Resumed = resumed

	idType := rec.IDType
	if idType == "" {
		idType = evidence.DefaultIDType
	}
	entry := models.ArchiveEntry{
		ID:                     archiveID,
		OriginalVerificationID: tg.ItemID,
		UserID:                 subjectID,
		Status:                 archiveStatus(action),
		ReviewAction:           action,
		AdminNote:              rec.AdminNote,
		ReviewedAt:             at,
		CreatedAt:              at,
	}
	entry.Snapshot(tg.Item.Evidence)
	entry.IDType = idType
	if action == models.ActionApprove {
		entry.ApprovedBy = rec.ReviewedBy
	} else {
		entry.RejectedBy = rec.ReviewedBy
	}
	created, err := e.archive.Append(ctx, entry)
	if err != nil {
		return nil, e.partial(ctx, StepArchive, rv, err)
	}
	if !created && !resumed {
		return nil, e.partial(ctx, StepArchive, rv, fmt.Errorf("%s: %w", archiveID, archive.ErrExists))
	}

	out := &Outcome{
		Action:     action,
		ItemID:     tg.ItemID,
		SubjectID:  subjectID,
		ArchiveID:  archiveID,
		ActionID:   rv.ActionID,
		Status:     rec.Status,
		ReviewedAt: at,
		Resumed:    resumed,
	}
	if tg.Subject != nil {
		if err := e.subjects.UpdateVerification(ctx, *tg.Subject, subjectFields(action, *tg.Subject, idType, archiveID)); err != nil {
			return nil, e.partial(ctx, StepSubject, rv, err)
		}
		out.SubjectSynced = true
	} else {
		e.log.Warn("review applied without a subject profile",
			zap.String("action", action),
			zap.String("item_id", tg.ItemID),
			zap.String("subject_id", subjectID),
		)
	}

	result := "ok"
	if resumed {
		result = "resumed"
	}
	e.metrics.IncrementTransition(action, result)
	e.audit.Reviewed(ctx, rv)
	e.log.Info("verification reviewed",
		zap.String("action", action),
		zap.String("item_id", tg.ItemID),
		zap.String("subject_id", subjectID),
		zap.String("archive_id", archiveID),
		zap.String("action_id", rv.ActionID),
		zap.Bool("resumed", resumed),
	)
	return out, nil
}

func (e *Engine) partial(ctx context.Context, step string, rv auditlog.Review, cause error) error {
	e.metrics.IncrementTransition(rv.Action, "partial")
	e.metrics.IncrementPartialWrite(step)
	e.audit.PartialWrite(ctx, rv, step, cause)
	e.log.Error("review partially applied",
		zap.String("action", rv.Action),
		zap.String("item_id", rv.ItemID),
		zap.String("step", step),
		zap.String("action_id", rv.ActionID),
		zap.Error(cause),
	)
	return &PartialWriteError{Step: step, ItemID: rv.ItemID, ActionID: rv.ActionID, Err: cause}
}
