// internal/app/features/verifications/types.go
package verifications

import (
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/reconcile"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

// Form field names shared with the console's review forms.
const (
	TokenField  = "csrf_token"
	ItemField   = "verification_id"
	NoteField   = "admin_note"
	RoleField   = "role"
	maxFlashLen = 300
	maxFormSize = 64 << 10
)

// Flash kinds carried in the redirect after an action.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// flash is the one-shot message shown above the queue.
type flash struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// queueView is the JSON body of GET /verifications.
type queueView struct {
	Items       []models.Item          `json:"items"`
	Counts      reconcile.Counts       `json:"counts"`
	Summary     reconcile.Summary      `json:"summary"`
	Role        models.Role            `json:"role"`
	Flash       *flash                 `json:"flash,omitempty"`
	CSRFToken   string                 `json:"csrf_token"`
	CanReview   bool                   `json:"can_review"`
	Diagnostics *reconcile.Diagnostics `json:"diagnostics,omitempty"`
}
