// internal/app/system/evidence/extract.go
package evidence

import (
	"strings"
	"time"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

// DefaultIDType is used when a record names no id type and no alias implies one.
const DefaultIDType = "ID"

// EvidenceRoot returns the storage prefix external tooling uses for a role's
// identity documents. The two prefixes are a compatibility contract.
func EvidenceRoot(role models.Role) string {
	if role == models.RoleRider {
		return "valid_ids"
	}
	return "verification_ids"
}

// StoragePathField returns the profile field that holds a subject's storage path.
func StoragePathField(role models.Role) string {
	if role == models.RoleRider {
		return "validIdStoragePath"
	}
	return "verificationIdStoragePath"
}

// StoragePath returns "{root}/{subjectID}/{lowercase idType}/".
func StoragePath(role models.Role, subjectID, idType string) string {
	if idType == "" {
		idType = DefaultIDType
	}
	return EvidenceRoot(role) + "/" + subjectID + "/" + strings.ToLower(idType) + "/"
}

// subjectStatus derives an item status from a profile's verification fields.
// The verified flag wins. Rider profiles also carry a status label the rider
// app maintains; customers are pending whenever they are not verified.
func subjectStatus(s models.Subject) models.Status {
	if s.Verified {
		return models.StatusApproved
	}
	if s.Role != models.RoleRider {
		return models.StatusPending
	}
	switch strings.ToUpper(s.VerificationStatus) {
	case "APPROVED", "VERIFIED":
		return models.StatusApproved
	case "REJECTED":
		return models.StatusRejected
	}
	return models.StatusPending
}

// qualifies applies the presence rule. A selfie alone never qualifies.
func qualifies(s models.Subject) bool {
	if s.Evidence.HasDocuments() || s.Verified {
		return true
	}
	return s.Role == models.RoleRider && strings.EqualFold(s.VerificationStatus, "PENDING")
}

// Extract synthesizes a verification item from the evidence embedded in a
// profile. It reports false when the profile carries no qualifying evidence.
// submitted is used when the profile has no creation time.
func Extract(s models.Subject, submitted time.Time) (models.Item, bool) {
	if !qualifies(s) {
		return models.Item{}, false
	}

	ev := s.Evidence
	if ev.IDType == "" {
		ev.IDType = DefaultIDType
	}
	at := s.CreatedAt
	if at.IsZero() {
		at = submitted
	}

	it := models.Item{
		ID:          s.ID,
		SubjectID:   s.ID,
		Role:        s.Role,
		Source:      models.SourceProfile,
		IDType:      ev.IDType,
		Evidence:    ev,
		Status:      subjectStatus(s),
		SubmittedAt: at,
		StoragePath: StoragePath(s.Role, s.ID, ev.IDType),
	}
	Enrich(&it, s)
	return it, true
}

// Enrich copies a subject's display and contact fields onto an item and fills
// evidence the item is missing from the subject's profile.
func Enrich(it *models.Item, s models.Subject) {
	if it.Role == "" {
		it.Role = s.Role
	}
	it.DisplayName = s.Name
	it.Email = s.Email
	it.Phone = s.Phone
	it.Address = s.Address
	it.ProfilePicture = s.ProfilePicture
	it.AccountStatus = s.AccountStatus
	it.Verified = s.Verified
	it.Rider = s.Rider

	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&it.Evidence.Selfie, s.Evidence.Selfie)
	fill(&it.Evidence.IDFront, s.Evidence.IDFront)
	fill(&it.Evidence.IDBack, s.Evidence.IDBack)
	fill(&it.Evidence.VehicleRegFront, s.Evidence.VehicleRegFront)
	fill(&it.Evidence.VehicleRegBack, s.Evidence.VehicleRegBack)
	if it.IDType == "" || it.IDType == DefaultIDType {
		if s.Evidence.IDType != "" {
			it.IDType = s.Evidence.IDType
		}
	}
	if it.IDType == "" {
		it.IDType = DefaultIDType
	}
	it.Evidence.IDType = it.IDType
	if it.StoragePath == "" {
		it.StoragePath = s.StoragePath
	}
	if it.StoragePath == "" && it.SubjectID != "" {
		it.StoragePath = StoragePath(s.Role, it.SubjectID, it.IDType)
	}
}
