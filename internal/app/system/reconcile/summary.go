// internal/app/system/reconcile/summary.go
package reconcile

import "github.com/angelodatu0429-cloud/Pabili-pasabuy/internal/domain/models"

// Counts are item totals by status.
type Counts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

func (c *Counts) add(s models.Status) {
	c.Total++
	switch s {
	case models.StatusPending:
		c.Pending++
	case models.StatusApproved:
		c.Approved++
	case models.StatusRejected:
		c.Rejected++
	}
}

// Summary partitions a deduplicated list by role and status.
type Summary struct {
	All      Counts `json:"all"`
	Customer Counts `json:"customer"`
	Rider    Counts `json:"rider"`
}

// Summarize counts items. It must be given the same list the operator sees.
func Summarize(items []models.Item) Summary {
	var s Summary
	for _, it := range items {
		s.All.add(it.Status)
		switch it.Role {
		case models.RoleCustomer:
			s.Customer.add(it.Status)
		case models.RoleRider:
			s.Rider.add(it.Status)
		}
	}
	return s
}

// For returns the counts for role, or All for an empty role.
func (s Summary) For(role models.Role) Counts {
	switch role {
	case models.RoleCustomer:
		return s.Customer
	case models.RoleRider:
		return s.Rider
	}
	return s.All
}
