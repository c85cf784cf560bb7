// internal/app/system/workflow/errors.go
package workflow

import (
	"errors"
	"fmt"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/reconcile"
)

// Sentinel errors for review actions.
var (
	// ErrNotFound means the item id matched no record, archive entry or subject.
	ErrNotFound = reconcile.ErrNotFound
	// ErrInvalidState means the item's current status does not allow the action.
	ErrInvalidState = errors.New("verification item status does not allow this action")
	// ErrSuperseded means another workflow record for the same subject is the
	// one under review. It wraps ErrInvalidState.
	ErrSuperseded = fmt.Errorf("a newer submission supersedes this record: %w", ErrInvalidState)
	// ErrUnauthorized means the reviewer's role may not review verifications.
	ErrUnauthorized = errors.New("reviewer is not allowed to review verifications")
)

// ValidationError reports missing or invalid action input. Nothing was written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Write steps after the workflow record.
const (
	StepArchive = "archive"
	StepSubject = "subject"
)

// PartialWriteError reports an action whose workflow record was written but a
// later step failed. The steps before Step were applied and are not rolled
// back; repeating the same action resumes from Step.
type PartialWriteError struct {
	Step     string
	ItemID   string
	ActionID string
	Err      error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("review of %s stopped at %s step (action %s): %v", e.ItemID, e.Step, e.ActionID, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPartialWrite reports whether err is a *PartialWriteError.
func IsPartialWrite(err error) bool {
	var pe *PartialWriteError
	return errors.As(err, &pe)
}
