// internal/billing/plans.go
//
// Static plan → ceiling table.
//
// The three paid tiers and the free downgrade target carry fixed resource
// ceilings that the reconciler denormalises onto the tenant row.  These
// numbers are contractual; changing them re-prices existing customers, so
// treat any edit as a product decision, not a refactor.
package billing

// Ceilings are the per-tier resource limits attached to a tenant.
type Ceilings struct {
	MaxUsers     int
	MaxProjects  int
	MaxStorageGB int
}

// FreeCeilings is the registration default and the downgrade target when a
// subscription is deleted.
var FreeCeilings = Ceilings{MaxUsers: 5, MaxProjects: 10, MaxStorageGB: 1}

// planCeilings maps paid plan names to their ceilings.
var planCeilings = map[string]Ceilings{
	"starter":      {MaxUsers: 15, MaxProjects: 50, MaxStorageGB: 10},
	"professional": {MaxUsers: 50, MaxProjects: 200, MaxStorageGB: 50},
	"enterprise":   {MaxUsers: 999, MaxProjects: 999, MaxStorageGB: 100},
}

// CeilingsForPlan returns the ceilings for a paid plan name.  ok == false
// for unknown plans (including "free", which is a downgrade target, not a
// checkout option).
func CeilingsForPlan(plan string) (Ceilings, bool) {
	c, ok := planCeilings[plan]
	return c, ok
}

// PriceIDs maps plan names to the payment processor's price identifiers.
// Populated from configuration at boot.
type PriceIDs map[string]string
