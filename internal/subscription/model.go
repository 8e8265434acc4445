// internal/subscription/model.go
//
// Subscription row model.
//
// Context
// -------
// At most one row per tenant in `tenant_subscriptions`, keyed by tenant id.
// Status mirrors the payment processor’s vocabulary verbatim (`active`,
// `past_due`, `cancelled`, …); nothing here computes state locally.  The
// external subscription reference is nullable until the first checkout
// completes (a portal visit can create the row with only a customer ref).
package subscription

import "time"

// Statuses this application writes itself.  Anything else arriving in a
// webhook is stored as-is.
const (
	StatusActive    = "active"
	StatusPastDue   = "past_due"
	StatusCancelled = "cancelled"
)

// Record mirrors one row in `tenant_subscriptions`.  Single snake_case
// mapping point for the entity.
type Record struct {
	TenantID             string     `db:"tenant_id"`
	StripeCustomerID     string     `db:"stripe_customer_id"`
	StripeSubscriptionID *string    `db:"stripe_subscription_id"`
	PlanName             string     `db:"plan_name"`
	Status               string     `db:"status"`
	CurrentPeriodStart   *time.Time `db:"current_period_start"`
	CurrentPeriodEnd     *time.Time `db:"current_period_end"`
	CancelAtPeriodEnd    bool       `db:"cancel_at_period_end"`
	AmountCents          int64      `db:"amount_cents"`
	Currency             string     `db:"currency"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}
