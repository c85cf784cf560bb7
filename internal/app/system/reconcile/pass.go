// internal/app/system/reconcile/pass.go
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/archive"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/docstore"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/subjects"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/verifications"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/evidence"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/metrics"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

// ErrNotFound is returned by Target when no record, archive entry or subject
// matches the item id.
var ErrNotFound = errors.New("verification item not found")

// Diagnostics describes what a pass read and discarded.
type Diagnostics struct {
	SourceCounts             map[string]int `json:"source_counts"`
	ExtractedItems           int            `json:"extracted_items"`
	RawItems                 int            `json:"raw_items"`
	DedupedItems             int            `json:"deduped_items"`
	DroppedItems             int            `json:"dropped_items"`
	DroppedIDs               []string       `json:"dropped_ids,omitempty"`
	RidersMissingStoragePath int            `json:"riders_missing_storage_path"`
	ItemsMissingStoragePath  int            `json:"items_missing_storage_path"`
	Duration                 time.Duration  `json:"duration_ns"`
}

// Result is one reconciliation pass: the operator queue and its counts.
type Result struct {
	Items       []models.Item
	Summary     Summary
	Diagnostics Diagnostics
}

// Filter returns the queue for one role. Summary always covers every role.
func (r *Result) Filter(role models.Role) []models.Item {
	return FilterRole(r.Items, role)
}

// Pass builds the deduplicated verification queue from every source.
type Pass struct {
	subjects      *subjects.Store
	verifications *verifications.Store
	archive       *archive.Store
	log           *zap.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

// NewPass creates a Pass reading through gw. m may be nil.
func NewPass(gw docstore.Gateway, log *zap.Logger, m *metrics.Metrics) *Pass {
	return &Pass{
		subjects:      subjects.New(gw),
		verifications: verifications.New(gw),
		archive:       archive.New(gw),
		log:           log,
		metrics:       m,
		now:           time.Now,
	}
}

// WithClock replaces the clock used for profiles with no creation time.
func (p *Pass) WithClock(now func() time.Time) *Pass {
	p.now = now
	return p
}

// sources is everything one pass reads.
type sources struct {
	records  []models.WorkflowRecord
	entries  []models.ArchiveEntry
	profiles map[string][]models.Subject // by collection
}

func (p *Pass) read(ctx context.Context, withProfiles bool) (*sources, error) {
	g, ctx := errgroup.WithContext(ctx)
	src := &sources{profiles: make(map[string][]models.Subject)}

	g.Go(func() error {
		recs, err := p.verifications.List(ctx)
		src.records = recs
		return err
	})
	g.Go(func() error {
		entries, err := p.archive.List(ctx)
		src.entries = entries
		return err
	})

	colls := []string{subjects.CollUsers, subjects.CollLegacyUsers, subjects.CollRiders}
	profiles := make([][]models.Subject, len(colls))
	if withProfiles {
		for i, coll := range colls {
			g.Go(func() error {
				subs, err := p.subjects.ListCollection(ctx, coll)
				profiles[i] = subs
				return err
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, coll := range colls {
		if profiles[i] != nil {
			src.profiles[coll] = profiles[i]
		}
	}
	return src, nil
}

// index maps subject id to profile, searching collections in lookup order.
func index(src *sources) (map[string]models.Subject, []models.Subject) {
	idx := make(map[string]models.Subject)
	var ordered []models.Subject
	for _, coll := range []string{subjects.CollUsers, subjects.CollLegacyUsers, subjects.CollRiders} {
		for _, s := range src.profiles[coll] {
			if _, ok := idx[s.ID]; ok {
				continue
			}
			idx[s.ID] = s
			ordered = append(ordered, s)
		}
	}
	return idx, ordered
}

// subjectFor resolves the subject of a record. A record with no user id falls
// back to a subject whose id equals the record id.
func subjectFor(userID, recordID string, idx map[string]models.Subject) (string, *models.Subject) {
	if userID != "" {
		if s, ok := idx[userID]; ok {
			return userID, &s
		}
		return userID, nil
	}
	if s, ok := idx[recordID]; ok {
		return recordID, &s
	}
	return "", nil
}

func finish(it *models.Item, sub *models.Subject, raw bson.M) {
	if sub != nil {
		evidence.Enrich(it, *sub)
		return
	}
	if it.Role == "" {
		it.Role = models.RoleCustomer
	}
	if raw != nil {
		it.DisplayName = evidence.Lookup(raw, evidence.FieldDisplayName, it.Role)
		it.Email = evidence.Lookup(raw, evidence.FieldEmail, it.Role)
	}
	if it.IDType == "" {
		it.IDType = evidence.DefaultIDType
	}
	it.Evidence.IDType = it.IDType
	if it.SubjectID != "" && it.StoragePath == "" {
		it.StoragePath = evidence.StoragePath(it.Role, it.SubjectID, it.IDType)
	}
}

// RecordItem builds the item for a workflow record.
func RecordItem(rec models.WorkflowRecord, idx map[string]models.Subject) models.Item {
	subjectID, sub := subjectFor(rec.UserID, rec.ID, idx)
	role := models.RoleCustomer
	if sub != nil {
		role = sub.Role
	}
	ev := evidence.Normalize(rec.Extra, role)
	if rec.IDType != "" {
		ev.IDType = rec.IDType
	}
	status := rec.Status
	if status == "" || status == models.StatusUnverified {
		status = models.StatusPending
	}

	it := models.Item{
		ID:          rec.ID,
		SubjectID:   subjectID,
		Source:      models.SourceWorkflow,
		IDType:      ev.IDType,
		Evidence:    ev,
		Status:      status,
		ReviewedAt:  rec.ReviewedAt,
		AdminNote:   rec.AdminNote,
		StoragePath: evidence.Lookup(rec.Extra, evidence.FieldStoragePath, role),
	}
	if sub != nil {
		it.Role = sub.Role
	}
	switch {
	case rec.SubmittedAt != nil:
		it.SubmittedAt = *rec.SubmittedAt
	case rec.ReviewedAt != nil:
		it.SubmittedAt = *rec.ReviewedAt
	}
	finish(&it, sub, rec.Extra)
	return it
}

// ArchiveItem builds the item for an archive entry. The item is identified by
// the workflow record the entry archived, so acting on it acts on that record.
func ArchiveItem(e models.ArchiveEntry, idx map[string]models.Subject) models.Item {
	id := e.OriginalVerificationID
	if id == "" {
		id = e.ID
	}
	subjectID, sub := subjectFor(e.UserID, id, idx)

	it := models.Item{
		ID:        id,
		SubjectID: subjectID,
		Source:    models.SourceArchive,
		IDType:    e.IDType,
		Evidence: models.Evidence{
			Selfie:          e.Selfie,
			IDFront:         e.FrontImage,
			IDBack:          e.BackImage,
			VehicleRegFront: e.VehicleRegFront,
			VehicleRegBack:  e.VehicleRegBack,
			IDType:          e.IDType,
		},
		Status:      e.Status,
		SubmittedAt: e.CreatedAt,
		AdminNote:   e.AdminNote,
	}
	if it.Status == "" {
		it.Status = models.StatusPending
	}
	if it.SubmittedAt.IsZero() {
		it.SubmittedAt = e.ReviewedAt
	}
	if !e.ReviewedAt.IsZero() {
		at := e.ReviewedAt
		it.ReviewedAt = &at
	}
	if sub != nil {
		it.Role = sub.Role
	}
	finish(&it, sub, nil)
	return it
}

// Run performs a full pass: read every source, build items, deduplicate,
// drop unnamed items, sort, and count.
func (p *Pass) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res, err := p.run(ctx)
	p.metrics.ObservePass(time.Since(start), err)
	if err != nil {
		return nil, err
	}
	res.Diagnostics.Duration = time.Since(start)
	return res, nil
}

func (p *Pass) run(ctx context.Context) (*Result, error) {
	src, err := p.read(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("reconcile: read sources: %w", err)
	}
	idx, ordered := index(src)
	now := p.now()

	diag := Diagnostics{SourceCounts: map[string]int{
		verifications.Collection: len(src.records),
		archive.Collection:       len(src.entries),
	}}
	for coll, subs := range src.profiles {
		diag.SourceCounts[coll] = len(subs)
		p.metrics.SetSourceDocuments(coll, len(subs))
	}
	p.metrics.SetSourceDocuments(verifications.Collection, len(src.records))
	p.metrics.SetSourceDocuments(archive.Collection, len(src.entries))

	items := make([]models.Item, 0, len(src.records)+len(src.entries)+len(ordered))
	for _, rec := range src.records {
		items = append(items, RecordItem(rec, idx))
	}
	for _, e := range src.entries {
		items = append(items, ArchiveItem(e, idx))
	}
	for _, s := range ordered {
		if s.Role == models.RoleRider && s.StoragePath == "" {
			diag.RidersMissingStoragePath++
		}
		if it, ok := evidence.Extract(s, now); ok {
			items = append(items, it)
			diag.ExtractedItems++
		}
	}
	diag.RawItems = len(items)

	deduped := Dedupe(items)
	diag.DedupedItems = len(deduped)

	kept, dropped := FilterNamed(deduped)
	for _, it := range dropped {
		p.log.Debug("dropped verification item without a display name",
			zap.String("item_id", it.ID),
			zap.String("subject_id", it.SubjectID),
			zap.String("source", string(it.Source)),
		)
		diag.DroppedIDs = append(diag.DroppedIDs, it.ID)
	}
	diag.DroppedItems = len(dropped)
	if len(dropped) > 0 {
		p.log.Info("dropped orphaned verification items", zap.Int("count", len(dropped)))
	}
	p.metrics.AddDropped(len(dropped))

	SortQueue(kept)
	for _, it := range kept {
		if it.StoragePath == "" {
			diag.ItemsMissingStoragePath++
		}
	}

	sum := Summarize(kept)
	for _, role := range models.Roles {
		c := sum.For(role)
		p.metrics.SetQueueItems(string(role), string(models.StatusPending), c.Pending)
		p.metrics.SetQueueItems(string(role), string(models.StatusApproved), c.Approved)
		p.metrics.SetQueueItems(string(role), string(models.StatusRejected), c.Rejected)
	}

	return &Result{Items: kept, Summary: sum, Diagnostics: diag}, nil
}

// Target is what a review action on one item id acts on.
type Target struct {
	// ItemID is the workflow record id the action writes. It differs from the
	// requested id when that id named an archive entry.
	ItemID string
	// Record is the workflow record stored under ItemID, if any.
	Record *models.WorkflowRecord
	// Subject is the profile the item belongs to, if one could be found.
	Subject *models.Subject
	// Item is the subject's current deduplicated item, built exactly as the
	// queue builds it.
	Item models.Item
}

// Target resolves an item id to the record, subject and current item a review
// action must use. It returns ErrNotFound when nothing matches or the subject
// has nothing to review.
func (p *Pass) Target(ctx context.Context, itemID string) (*Target, error) {
	if itemID == "" {
		return nil, ErrNotFound
	}
	src, err := p.read(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("reconcile: read sources: %w", err)
	}

	t := &Target{ItemID: itemID}
	var entry *models.ArchiveEntry
	find := func(id string) *models.WorkflowRecord {
		for i := range src.records {
			if src.records[i].ID == id {
				return &src.records[i]
			}
		}
		return nil
	}
	t.Record = find(itemID)
	if t.Record == nil {
		for i := range src.entries {
			if src.entries[i].ID == itemID {
				entry = &src.entries[i]
				break
			}
		}
		if entry != nil && entry.OriginalVerificationID != "" {
			t.ItemID = entry.OriginalVerificationID
			t.Record = find(t.ItemID)
		}
	}

	subjectID := ""
	switch {
	case t.Record != nil:
		subjectID = t.Record.UserID
	case entry != nil:
		subjectID = entry.UserID
	}
	lookupID := subjectID
	if lookupID == "" {
		lookupID = t.ItemID
	}
	sub, err := p.subjects.Find(ctx, lookupID)
	switch {
	case err == nil:
		t.Subject = &sub
	case errors.Is(err, subjects.ErrNotFound):
	default:
		return nil, fmt.Errorf("reconcile: find subject: %w", err)
	}
	if t.Record == nil && entry == nil && t.Subject == nil {
		return nil, ErrNotFound
	}

	idx := map[string]models.Subject{}
	if t.Subject != nil {
		idx[t.Subject.ID] = *t.Subject
	}

	var items []models.Item
	switch {
	case t.Subject != nil:
		for _, rec := range src.records {
			if it := RecordItem(rec, idx); it.SubjectID == t.Subject.ID {
				items = append(items, it)
			}
		}
		for _, e := range src.entries {
			if it := ArchiveItem(e, idx); it.SubjectID == t.Subject.ID {
				items = append(items, it)
			}
		}
		if it, ok := evidence.Extract(*t.Subject, p.now()); ok {
			items = append(items, it)
		}
	case t.Record != nil:
		items = append(items, RecordItem(*t.Record, idx))
	default:
		items = append(items, ArchiveItem(*entry, idx))
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}

	deduped := Dedupe(items)
	t.Item = deduped[0]
	return t, nil
}
