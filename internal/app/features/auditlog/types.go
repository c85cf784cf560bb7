// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/audit"
)

// listItem represents a single audit event row.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ActorID       string            `json:"actor_id,omitempty"`
	ActorRole     string            `json:"actor_role,omitempty"`
	SubjectID     string            `json:"subject_id,omitempty"`
	ItemID        string            `json:"item_id,omitempty"`
	ArchiveID     string            `json:"archive_id,omitempty"`
	ActionID      string            `json:"action_id,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// listData is the JSON body of GET /audit.
type listData struct {
	Items []listItem `json:"items"`

	// Filters
	Category  string `json:"category"`
	EventType string `json:"event_type"`
	SubjectID string `json:"subject_id"`
	ItemID    string `json:"item_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	// Filter options
	Categories []categoryOption `json:"categories"`
	EventTypes []string         `json:"event_types"`

	// Pagination
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	Total      int64 `json:"total"`
	Shown      int   `json:"shown"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
	PrevPage   int   `json:"prev_page"`
	NextPage   int   `json:"next_page"`
}

// categoryOption represents a category for the filter dropdown.
type categoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// allCategories returns the available categories for filtering.
func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryReview, Label: "Verification reviews"},
		{Value: audit.CategorySecurity, Label: "Security"},
	}
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	reviewEvents := []string{
		audit.EventVerificationApproved,
		audit.EventVerificationRejected,
		audit.EventVerificationUnverified,
		audit.EventVerificationResumed,
		audit.EventVerificationPartial,
		audit.EventVerificationFailed,
	}

	securityEvents := []string{
		audit.EventReviewDenied,
		audit.EventCSRFRejected,
	}

	switch category {
	case audit.CategoryReview:
		return reviewEvents
	case audit.CategorySecurity:
		return securityEvents
	case "":
		all := make([]string, 0, len(reviewEvents)+len(securityEvents))
		all = append(all, reviewEvents...)
		all = append(all, securityEvents...)
		return all
	default:
		return []string{}
	}
}
