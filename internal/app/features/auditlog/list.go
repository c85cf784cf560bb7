// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/features/errors"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/store/audit"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/authz"
	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

const pageSize = 50

// ServeList handles GET /audit - lists audit events with filtering.
//
// Filters: category, event_type, subject_id, item_id, start_date and
// end_date (YYYY-MM-DD, inclusive), page (1-based).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if _, _, _, ok := authz.UserCtx(r); !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.Log, "audit log list")
	defer cancel()

	category := strings.TrimSpace(query.Get(r, "category"))
	eventType := strings.TrimSpace(query.Get(r, "event_type"))
	subjectID := strings.TrimSpace(query.Get(r, "subject_id"))
	itemID := strings.TrimSpace(query.Get(r, "item_id"))
	startDate := strings.TrimSpace(query.Get(r, "start_date"))
	endDate := strings.TrimSpace(query.Get(r, "end_date"))

	page := 1
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		SubjectID: subjectID,
		ItemID:    itemID,
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}

	if startDate != "" {
		if t, err := time.Parse("2006-01-02", startDate); err == nil {
			filter.StartTime = &t
		}
	}
	if endDate != "" {
		if t, err := time.Parse("2006-01-02", endDate); err == nil {
			// End of day
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndTime = &endOfDay
		}
	}

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "failed to query audit events", err, "A database error occurred.", "/dashboard")
		return
	}

	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "failed to count audit events", err, "A database error occurred.", "/dashboard")
		return
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			ActorID:       e.ActorID,
			ActorRole:     e.ActorRole,
			SubjectID:     e.SubjectID,
			ItemID:        e.ItemID,
			ArchiveID:     e.ArchiveID,
			ActionID:      e.ActionID,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		})
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	prevPage := page - 1
	if prevPage < 1 {
		prevPage = 1
	}
	nextPage := page + 1
	if nextPage > totalPages {
		nextPage = totalPages
	}

	uierrors.WriteJSON(w, http.StatusOK, listData{
		Items:      items,
		Category:   category,
		EventType:  eventType,
		SubjectID:  subjectID,
		ItemID:     itemID,
		StartDate:  startDate,
		EndDate:    endDate,
		Categories: allCategories(),
		EventTypes: eventTypesForCategory(category),
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		Shown:      len(items),
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   prevPage,
		NextPage:   nextPage,
	})
}
