// internal/app/store/archive/store.go
package archive

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/docstore"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/evidence"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

// Collection holds the append-only review archive.
const Collection = "verification_ids"

var (
	// ErrNotFound is returned when no archive entry has the id.
	ErrNotFound = errors.New("archive entry not found")
	// ErrExists is returned when an entry was expected to be new but the id is taken.
	ErrExists = errors.New("archive entry already exists")
)

// ID returns the archive id for an action on an item at a review time:
// "{verified|rejected|unverified}_{itemID}_{unix milliseconds}". Review times
// are stored at millisecond precision, so the id can be rebuilt from a record.
func ID(action, itemID string, reviewedAt time.Time) string {
	prefix := "verified"
	switch action {
	case models.ActionReject:
		prefix = "rejected"
	case models.ActionUnverify:
		prefix = "unverified"
	}
	return prefix + "_" + itemID + "_" + strconv.FormatInt(reviewedAt.UnixMilli(), 10)
}

// Store appends and reads archive entries. It has no update or delete.
type Store struct {
	gw docstore.Gateway
}

// New creates a Store over gw.
func New(gw docstore.Gateway) *Store {
	return &Store{gw: gw}
}

// fromDoc decodes an entry. Entries written before the snapshot fields were
// fixed are read through the full alias vocabulary.
func fromDoc(d docstore.Doc) models.ArchiveEntry {
	f := d.Fields
	e := models.ArchiveEntry{
		ID:                     d.ID,
		OriginalVerificationID: evidence.String(f["original_verification_id"]),
		UserID:                 evidence.Lookup(f, evidence.FieldUserID, models.RoleRider),
		Status:                 models.ParseStatus(evidence.String(f["status"])),
		ReviewAction:           evidence.String(f["review_action"]),
		AdminNote:              evidence.String(f["admin_note"]),
		ApprovedBy:             evidence.String(f["approved_by"]),
		RejectedBy:             evidence.String(f["rejected_by"]),
	}
	e.Snapshot(evidence.Normalize(f, models.RoleRider))
	if t, ok := evidence.Time(f["reviewed_at"]); ok {
		e.ReviewedAt = t
	}
	// Older entries may carry only the submission time.
	for _, field := range []evidence.Field{evidence.FieldCreatedAt, evidence.FieldSubmittedAt} {
		if v, ok := evidence.LookupValue(f, field, models.RoleRider); ok {
			if t, ok := evidence.Time(v); ok {
				e.CreatedAt = t
				break
			}
		}
	}
	return e
}

// Append stores a new entry. It reports false without writing when an entry
// with the same id already exists; entries are never overwritten.
func (s *Store) Append(ctx context.Context, e models.ArchiveEntry) (bool, error) {
	if e.ID == "" {
		return false, errors.New("append archive entry: empty id")
	}
	_, err := s.gw.Get(ctx, Collection, e.ID)
	if err == nil {
		return false, nil
	}
	if !docstore.IsNotFound(err) {
		return false, fmt.Errorf("append archive entry %s: %w", e.ID, err)
	}
	fields, err := docstore.Encode(e)
	if err != nil {
		return false, fmt.Errorf("append archive entry %s: %w", e.ID, err)
	}
	if err := s.gw.Set(ctx, Collection, e.ID, fields); err != nil {
		return false, fmt.Errorf("append archive entry %s: %w", e.ID, err)
	}
	return true, nil
}

// Get loads one entry.
func (s *Store) Get(ctx context.Context, id string) (models.ArchiveEntry, error) {
	d, err := s.gw.Get(ctx, Collection, id)
	if docstore.IsNotFound(err) {
		return models.ArchiveEntry{}, ErrNotFound
	}
	if err != nil {
		return models.ArchiveEntry{}, fmt.Errorf("get archive entry %s: %w", id, err)
	}
	return fromDoc(d), nil
}

// Exists reports whether an entry with the id is stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns every entry.
func (s *Store) List(ctx context.Context) ([]models.ArchiveEntry, error) {
	docs, err := s.gw.GetAll(ctx, Collection)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	out := make([]models.ArchiveEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDoc(d))
	}
	return out, nil
}
