// internal/domain/models/verification.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Role identifies which profile collection owns a subject.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleRider    Role = "rider"
)

// Roles lists the subject roles in display order.
var Roles = []Role{RoleCustomer, RoleRider}

// ParseRole returns the role named by s (case-insensitive) and whether it is known.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleCustomer:
		return RoleCustomer, true
	case RoleRider:
		return RoleRider, true
	}
	return "", false
}

// Status is the review state of a verification item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusUnverified Status = "unverified"
)

// ParseStatus normalizes a stored status value. Unknown values map to "".
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending
	case StatusApproved, "verified":
		return StatusApproved
	case StatusRejected:
		return StatusRejected
	case StatusUnverified:
		return StatusUnverified
	}
	return ""
}

// Source names the record source an item was built from.
type Source string

const (
	SourceWorkflow Source = "verifications"
	SourceArchive  Source = "verification_ids"
	SourceProfile  Source = "profile"
)

// Evidence is the normalized bundle of image references found on one record.
type Evidence struct {
	Selfie          string `json:"selfie,omitempty"`
	IDFront         string `json:"id_front,omitempty"`
	IDBack          string `json:"id_back,omitempty"`
	VehicleRegFront string `json:"vehicle_reg_front,omitempty"`
	VehicleRegBack  string `json:"vehicle_reg_back,omitempty"`
	IDType          string `json:"id_type,omitempty"`
}

// HasDocuments reports whether any identity or registration document is present.
// A selfie alone does not count.
func (e Evidence) HasDocuments() bool {
	return e.IDFront != "" || e.IDBack != "" || e.VehicleRegFront != "" || e.VehicleRegBack != ""
}

// IsZero reports whether the bundle carries no image at all.
func (e Evidence) IsZero() bool {
	return e.Selfie == "" && !e.HasDocuments()
}

// RiderProfile carries rider-only profile fields shown next to a rider's evidence.
type RiderProfile struct {
	VehicleType  string  `json:"vehicle_type,omitempty"`
	LicensePlate string  `json:"license_plate,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	TotalTrips   int64   `json:"total_trips,omitempty"`
}

// Subject is a customer or rider profile in canonical form.
//
// Extra holds every raw field the normalizer did not recognize. It is never
// written back by the workflow engine; it exists so nothing is lost when a
// profile is inspected.
type Subject struct {
	ID                 string
	Role               Role
	Collection         string
	Name               string
	Email              string
	Phone              string
	Address            string
	ProfilePicture     string
	AccountStatus      string
	VerificationStatus string
	Verified           bool
	VerificationID     string // archive entry the profile was last synced from
	StoragePath        string // stored storage path, if the profile has one
	Evidence           Evidence
	Rider              *RiderProfile
	CreatedAt          time.Time
	Extra              bson.M
}

// Item is the canonical, deduplicated unit an operator reviews.
type Item struct {
	ID          string     `json:"id"`
	SubjectID   string     `json:"user_id,omitempty"`
	Role        Role       `json:"user_role,omitempty"`
	Source      Source     `json:"source"`
	IDType      string     `json:"id_type"`
	Evidence    Evidence   `json:"evidence"`
	Status      Status     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	AdminNote   string     `json:"admin_note,omitempty"`
	StoragePath string     `json:"storage_path,omitempty"`

	DisplayName    string        `json:"username"`
	Email          string        `json:"email,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	Address        string        `json:"address,omitempty"`
	ProfilePicture string        `json:"profile_picture_url,omitempty"`
	AccountStatus  string        `json:"user_status,omitempty"`
	Verified       bool          `json:"id_verified"`
	Rider          *RiderProfile `json:"rider,omitempty"`
}

// GroupKey returns the key items are deduplicated by. Items without a subject
// never share a key with any other item.
func (it Item) GroupKey() string {
	if it.SubjectID != "" {
		return it.SubjectID
	}
	return "\x00" + string(it.Source) + "/" + it.ID
}
