// internal/domain/models/records.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Review actions an operator can take on an item.
const (
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionUnverify = "unverify"
)

// WorkflowRecord is a document in the verifications collection.
//
// Extra carries any fields the record already had that this struct does not
// model, so a full upsert does not drop them.
type WorkflowRecord struct {
	ID           string     `bson:"-" json:"id"`
	UserID       string     `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Status       Status     `bson:"status" json:"status"`
	IDType       string     `bson:"id_type,omitempty" json:"id_type,omitempty"`
	SubmittedAt  *time.Time `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
	ReviewedAt   *time.Time `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	AdminNote    string     `bson:"admin_note,omitempty" json:"admin_note,omitempty"`
	ReviewAction string     `bson:"review_action,omitempty" json:"review_action,omitempty"`
	ReviewedBy   string     `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`

	Extra bson.M `bson:",inline" json:"-"`
}

// ArchiveEntry is an immutable audit record in the verification_ids collection.
type ArchiveEntry struct {
	ID                     string    `bson:"-" json:"id"`
	OriginalVerificationID string    `bson:"original_verification_id" json:"original_verification_id"`
	UserID                 string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	IDType                 string    `bson:"id_type,omitempty" json:"id_type,omitempty"`
	FrontImage             string    `bson:"front_image,omitempty" json:"front_image,omitempty"`
	BackImage              string    `bson:"back_image,omitempty" json:"back_image,omitempty"`
	Selfie                 string    `bson:"selfie,omitempty" json:"selfie,omitempty"`
	VehicleRegFront        string    `bson:"vehicleORCRFrontUrl,omitempty" json:"vehicle_reg_front,omitempty"`
	VehicleRegBack         string    `bson:"vehicleORCRBackUrl,omitempty" json:"vehicle_reg_back,omitempty"`
	Status                 Status    `bson:"status" json:"status"`
	ReviewAction           string    `bson:"review_action,omitempty" json:"review_action,omitempty"`
	AdminNote              string    `bson:"admin_note,omitempty" json:"admin_note,omitempty"`
	ApprovedBy             string    `bson:"approved_by,omitempty" json:"approved_by,omitempty"`
	RejectedBy             string    `bson:"rejected_by,omitempty" json:"rejected_by,omitempty"`
	ReviewedAt             time.Time `bson:"reviewed_at" json:"reviewed_at"`
	CreatedAt              time.Time `bson:"created_at" json:"created_at"`
}

// Snapshot copies an evidence bundle into the entry.
func (a *ArchiveEntry) Snapshot(e Evidence) {
	a.IDType = e.IDType
	a.FrontImage = e.IDFront
	a.BackImage = e.IDBack
	a.Selfie = e.Selfie
	a.VehicleRegFront = e.VehicleRegFront
	a.VehicleRegBack = e.VehicleRegBack
}

// Subject-side verification status labels written to profile documents.
const (
	SubjectVerified   = "Verified"
	SubjectRejected   = "Rejected"
	SubjectUnverified = "Unverified"
)

// SubjectVerification is the set of denormalized verification fields kept on a
// profile document.
type SubjectVerification struct {
	Verified       bool
	Status         string // SubjectVerified | SubjectRejected | SubjectUnverified
	VerificationID string // archive entry back-reference; empty leaves it untouched
	StoragePath    string // empty leaves it untouched
	IDType         string // empty leaves it untouched
}
