package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/archive"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/docstore"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/subjects"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/verifications"
)

// Fixtures provides helper methods for creating test documents through any
// gateway (in-memory or MongoDB).
type Fixtures struct {
	gw  docstore.Gateway
	t   *testing.T
	Now time.Time
}

// NewFixtures creates a new Fixtures instance writing through gw.
func NewFixtures(t *testing.T, gw docstore.Gateway) *Fixtures {
	t.Helper()
	return &Fixtures{gw: gw, t: t, Now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

// Gateway returns the underlying gateway for direct access in tests.
func (f *Fixtures) Gateway() docstore.Gateway {
	return f.gw
}

func (f *Fixtures) set(ctx context.Context, coll, id string, fields bson.M) {
	f.t.Helper()
	if err := f.gw.Set(ctx, coll, id, fields); err != nil {
		f.t.Fatalf("failed to create %s/%s: %v", coll, id, err)
	}
}

func merge(base, extra bson.M) bson.M {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// CreateCustomer creates a Users profile with an uploaded ID front.
// extra overrides or adds fields.
func (f *Fixtures) CreateCustomer(ctx context.Context, id, name string, extra bson.M) {
	f.t.Helper()
	f.set(ctx, subjects.CollUsers, id, merge(bson.M{
		"name":        name,
		"email":       id + "@customer.test",
		"idFrontUrl":  "https://cdn.test/" + id + "/front.jpg",
		"id_verified": false,
		"created_at":  f.Now.Add(-48 * time.Hour),
	}, extra))
}

// CreateRider creates a Riders profile with a license front and vehicle
// registration. extra overrides or adds fields.
func (f *Fixtures) CreateRider(ctx context.Context, id, name string, extra bson.M) {
	f.t.Helper()
	f.set(ctx, subjects.CollRiders, id, merge(bson.M{
		"fullName":                   name,
		"contactNumber":              "09170000000",
		"verification_license_front": "https://cdn.test/" + id + "/license.jpg",
		"verification_orcr1":         "https://cdn.test/" + id + "/orcr.jpg",
		"vehicleType":                "motorcycle",
		"created_at":                 f.Now.Add(-72 * time.Hour),
	}, extra))
}

// CreateRecord creates a pending workflow record for a subject.
func (f *Fixtures) CreateRecord(ctx context.Context, id, userID string, extra bson.M) {
	f.t.Helper()
	f.set(ctx, verifications.Collection, id, merge(bson.M{
		"user_id":      userID,
		"status":       "pending",
		"front_image":  "https://cdn.test/" + userID + "/record-front.jpg",
		"submitted_at": f.Now.Add(-time.Hour),
	}, extra))
}

// CreateArchiveEntry creates an archive entry for a record.
func (f *Fixtures) CreateArchiveEntry(ctx context.Context, id, recordID, userID, status string, reviewedAt time.Time) {
	f.t.Helper()
	f.set(ctx, archive.Collection, id, bson.M{
		"original_verification_id": recordID,
		"user_id":                  userID,
		"status":                   status,
		"reviewed_at":              reviewedAt,
		"created_at":               reviewedAt,
	})
}
