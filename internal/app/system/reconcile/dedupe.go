// internal/app/system/reconcile/dedupe.go
package reconcile

import (
	"sort"
	"strings"

	"github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"
)

// placeholderNames are display names that mean no subject was resolved.
var placeholderNames = []string{"unknown", "n/a"}

// preferred reports whether a should be kept over b for the same subject:
// pending beats non-pending, then the most recent submission wins.
func preferred(a, b models.Item) bool {
	ap, bp := a.Status == models.StatusPending, b.Status == models.StatusPending
	if ap != bp {
		return ap
	}
	return a.SubmittedAt.After(b.SubmittedAt)
}

// Dedupe keeps one item per subject. Items without a subject id are never
// merged. Group order follows the first appearance of each subject; equal
// candidates keep their input order.
func Dedupe(items []models.Item) []models.Item {
	groups := make(map[string][]models.Item)
	var order []string
	for _, it := range items {
		k := it.GroupKey()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], it)
	}

	out := make([]models.Item, 0, len(order))
	for _, k := range order {
		g := groups[k]
		if len(g) > 1 {
			sort.SliceStable(g, func(i, j int) bool { return preferred(g[i], g[j]) })
		}
		out = append(out, g[0])
	}
	return out
}

// Placeholder reports whether a display name is empty or a known placeholder.
func Placeholder(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return true
	}
	for _, p := range placeholderNames {
		if n == p {
			return true
		}
	}
	return false
}

// FilterNamed splits items into those with a resolvable display name and those
// without.
func FilterNamed(items []models.Item) (kept, dropped []models.Item) {
	kept = make([]models.Item, 0, len(items))
	for _, it := range items {
		if Placeholder(it.DisplayName) {
			dropped = append(dropped, it)
			continue
		}
		kept = append(kept, it)
	}
	return kept, dropped
}

// SortQueue orders items for the operator: pending first, then most recent
// submission, then id.
func SortQueue(items []models.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		ap, bp := a.Status == models.StatusPending, b.Status == models.StatusPending
		if ap != bp {
			return ap
		}
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.After(b.SubmittedAt)
		}
		return a.ID < b.ID
	})
}

// FilterRole returns the items owned by role. An empty role returns items
// unchanged.
func FilterRole(items []models.Item, role models.Role) []models.Item {
	if role == "" {
		return items
	}
	out := make([]models.Item, 0, len(items))
	for _, it := range items {
		if it.Role == role {
			out = append(out, it)
		}
	}
	return out
}
