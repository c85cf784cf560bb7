// internal/app/store/verifications/store.go
package verifications

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/docstore"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/evidence"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

// Collection holds one workflow record per reviewed item.
const Collection = "verifications"

// ErrNotFound is returned when no workflow record has the id.
var ErrNotFound = errors.New("verification not found")

// modeled lists the keys WorkflowRecord owns; everything else goes to Extra.
var modeled = []string{
	"user_id", "status", "id_type", "submitted_at", "reviewed_at",
	"admin_note", "review_action", "reviewed_by",
}

// Store reads and writes workflow records.
type Store struct {
	gw docstore.Gateway
}

// New creates a Store over gw.
func New(gw docstore.Gateway) *Store {
	return &Store{gw: gw}
}

// fromDoc decodes a workflow record, tolerating the loose types older writers
// left behind (string timestamps, legacy user id keys, upper-case statuses).
func fromDoc(d docstore.Doc) models.WorkflowRecord {
	f := d.Fields
	r := models.WorkflowRecord{
		ID:           d.ID,
		UserID:       evidence.Lookup(f, evidence.FieldUserID, models.RoleCustomer),
		Status:       models.ParseStatus(evidence.String(f["status"])),
		IDType:       evidence.String(f["id_type"]),
		AdminNote:    evidence.String(f["admin_note"]),
		ReviewAction: evidence.String(f["review_action"]),
		ReviewedBy:   evidence.String(f["reviewed_by"]),
	}
	if t, ok := evidence.Time(f["submitted_at"]); ok {
		r.SubmittedAt = &t
	}
	if t, ok := evidence.Time(f["reviewed_at"]); ok {
		r.ReviewedAt = &t
	}

	extra := maps.Clone(f)
	for _, k := range modeled {
		delete(extra, k)
	}
	if len(extra) > 0 {
		r.Extra = extra
	}
	return r
}

// Fields returns the raw fields of a record as they would be stored.
func Fields(r models.WorkflowRecord) (bson.M, error) {
	return docstore.Encode(r)
}

// List returns every workflow record.
func (s *Store) List(ctx context.Context) ([]models.WorkflowRecord, error) {
	docs, err := s.gw.GetAll(ctx, Collection)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	out := make([]models.WorkflowRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDoc(d))
	}
	return out, nil
}

// Get loads one workflow record.
func (s *Store) Get(ctx context.Context, id string) (models.WorkflowRecord, error) {
	d, err := s.gw.Get(ctx, Collection, id)
	if docstore.IsNotFound(err) {
		return models.WorkflowRecord{}, ErrNotFound
	}
	if err != nil {
		return models.WorkflowRecord{}, fmt.Errorf("get verification %s: %w", id, err)
	}
	return fromDoc(d), nil
}

// Put fully replaces the record stored under r.ID. Extra fields are written
// back unchanged.
func (s *Store) Put(ctx context.Context, r models.WorkflowRecord) error {
	if r.ID == "" {
		return errors.New("put verification: empty id")
	}
	fields, err := Fields(r)
	if err != nil {
		return fmt.Errorf("put verification %s: %w", r.ID, err)
	}
	if err := s.gw.Set(ctx, Collection, r.ID, fields); err != nil {
		return fmt.Errorf("put verification %s: %w", r.ID, err)
	}
	return nil
}
