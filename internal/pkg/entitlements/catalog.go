package entitlements

import (
	"sort"
	"strings"
)

const (
	PlanFree         = "free"
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// DefaultPlanID is the tier a tenant without an active subscription falls back to.
const DefaultPlanID = PlanFree

// Catalog is an in-memory set of plans with a designated default.
type Catalog struct {
	plans     map[string]Plan
	defaultID string
}

// NewCatalog builds a catalog. defaultID must name one of plans.
func NewCatalog(defaultID string, plans ...Plan) *Catalog {
	c := &Catalog{plans: make(map[string]Plan, len(plans)), defaultID: NormalizePlanID(defaultID)}
	for _, p := range plans {
		c.plans[NormalizePlanID(p.ID)] = p
	}
	return c
}

// NormalizePlanID lowercases and trims plan slugs.
func NormalizePlanID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Lookup returns the plan with the given id.
func (c *Catalog) Lookup(id string) (Plan, bool) {
	p, ok := c.plans[NormalizePlanID(id)]
	return p, ok
}

// Default returns the lowest tier.
func (c *Catalog) Default() Plan {
	return c.plans[c.defaultID]
}

func (c *Catalog) DefaultID() string {
	return c.defaultID
}

// Plans returns all plans ordered by sort order then id.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DefaultCatalog returns the built-in tiers used when the plan table has no row.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultPlanID,
		Plan{
			ID:          PlanFree,
			Name:        "Free",
			Price:       Price{AmountCents: 0, Currency: "EUR"},
			BillingType: BillingRecurring,
			SortOrder:   0,
			Active:      true,
			Limits: Limits{
				Trainings:               Bounded(1),
				CertificatesPerTraining: Bounded(10),
				Designs:                 Bounded(1),
				Assets:                  Bounded(5),
				StorageMB:               Bounded(10),
			},
			Features: Features{MandatoryFooter: true},
		},
		Plan{
			ID:          PlanStarter,
			Name:        "Starter",
			Price:       Price{AmountCents: 4900, Currency: "EUR"},
			BillingType: BillingOneTime,
			SortOrder:   10,
			Active:      true,
			Limits: Limits{
				Trainings:               Bounded(5),
				CertificatesPerTraining: Bounded(50),
				Designs:                 Bounded(5),
				Assets:                  Bounded(50),
				StorageMB:               Bounded(100),
			},
			Features: Features{SocialShare: true},
		},
		Plan{
			ID:          PlanProfessional,
			Name:        "Professional",
			Price:       Price{AmountCents: 2900, Currency: "EUR"},
			BillingType: BillingRecurring,
			SortOrder:   20,
			Active:      true,
			Limits: Limits{
				Trainings:               Bounded(50),
				CertificatesPerTraining: Bounded(500),
				Designs:                 Bounded(50),
				Assets:                  Bounded(500),
				StorageMB:               Bounded(2048),
			},
			Features: Features{SocialShare: true, StatusManagement: true, APIAccess: true},
		},
		Plan{
			ID:          PlanEnterprise,
			Name:        "Enterprise",
			Price:       Price{Currency: "EUR", Negotiated: true},
			BillingType: BillingRecurring,
			SortOrder:   30,
			Active:      true,
			Limits: Limits{
				Trainings:               Unbounded(),
				CertificatesPerTraining: Unbounded(),
				Designs:                 Unbounded(),
				Assets:                  Unbounded(),
				StorageMB:               Unbounded(),
			},
			Features: Features{
				SocialShare:      true,
				StatusManagement: true,
				WhiteLabel:       true,
				APIAccess:        true,
			},
		},
	)
}
