// internal/subscription/repository.go
//
// tenant_subscriptions query helpers.
//
// Context
// -------
// The reconciler treats “no row found” as “never subscribed” and upserts
// rather than assuming existence, so every write here is an upsert or an
// idempotent overwrite.  The payment processor redelivers on non-2xx, and
// replaying any of these statements produces the same final row.
//
// Notes
// -----
//   • Lookups by the two remote references serve the updated/deleted and
//     payment-failed webhook paths respectively.
//   • Errors return verbatim; the reconciler converts them to HTTP codes.
package subscription

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no subscription row matches the lookup.
var ErrNotFound = errors.New("subscription not found")

const columns = `tenant_id, stripe_customer_id, stripe_subscription_id,
               plan_name, status, current_period_start, current_period_end,
               cancel_at_period_end, amount_cents, currency,
               created_at, updated_at`

// ByTenantID fetches the (at most one) subscription row for a tenant.
func ByTenantID(ctx context.Context, db *sqlx.DB, tenantID string) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   tenant_subscriptions
        WHERE  tenant_id = ?
        LIMIT  1`
	return get(ctx, db, q, tenantID)
}

// ByStripeSubscriptionID fetches a row by the remote subscription reference.
func ByStripeSubscriptionID(ctx context.Context, db *sqlx.DB, subID string) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   tenant_subscriptions
        WHERE  stripe_subscription_id = ?
        LIMIT  1`
	return get(ctx, db, q, subID)
}

// ByStripeCustomerID fetches a row by the remote customer reference.
func ByStripeCustomerID(ctx context.Context, db *sqlx.DB, customerID string) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   tenant_subscriptions
        WHERE  stripe_customer_id = ?
        LIMIT  1`
	return get(ctx, db, q, customerID)
}

func get(ctx context.Context, db *sqlx.DB, q string, arg any) (*Record, error) {
	var rec Record
	if err := db.GetContext(ctx, &rec, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Upsert writes the full billing state for a tenant, keyed by tenant id.
// Safe to replay: the ON DUPLICATE KEY branch overwrites every mutable
// column with the same values.
func Upsert(ctx context.Context, db *sqlx.DB, rec *Record) error {
	const q = `
        INSERT INTO tenant_subscriptions
               (tenant_id, stripe_customer_id, stripe_subscription_id,
                plan_name, status, current_period_start, current_period_end,
                cancel_at_period_end, amount_cents, currency)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE
               stripe_customer_id     = VALUES(stripe_customer_id),
               stripe_subscription_id = VALUES(stripe_subscription_id),
               plan_name              = VALUES(plan_name),
               status                 = VALUES(status),
               current_period_start   = VALUES(current_period_start),
               current_period_end     = VALUES(current_period_end),
               cancel_at_period_end   = VALUES(cancel_at_period_end),
               amount_cents           = VALUES(amount_cents),
               currency               = VALUES(currency)`
	_, err := db.ExecContext(ctx, q,
		rec.TenantID, rec.StripeCustomerID, rec.StripeSubscriptionID,
		rec.PlanName, rec.Status, rec.CurrentPeriodStart, rec.CurrentPeriodEnd,
		rec.CancelAtPeriodEnd, rec.AmountCents, rec.Currency)
	return err
}

// UpdatePeriod overwrites status, period bounds, and the cancel flag on the
// row holding the given remote subscription reference.
func UpdatePeriod(ctx context.Context, db *sqlx.DB, subID, status string, start, end *time.Time, cancelAtPeriodEnd bool) error {
	const q = `
        UPDATE tenant_subscriptions
        SET    status               = ?,
               current_period_start = ?,
               current_period_end   = ?,
               cancel_at_period_end = ?
        WHERE  stripe_subscription_id = ?`
	_, err := db.ExecContext(ctx, q, status, start, end, cancelAtPeriodEnd, subID)
	return err
}

// UpdateStatusBySubscriptionID sets only the status column, matched on the
// remote subscription reference.
func UpdateStatusBySubscriptionID(ctx context.Context, db *sqlx.DB, subID, status string) error {
	const q = `
        UPDATE tenant_subscriptions
        SET    status = ?
        WHERE  stripe_subscription_id = ?`
	_, err := db.ExecContext(ctx, q, status, subID)
	return err
}

// UpdateStatusByTenantID sets only the status column, matched on tenant id.
// The payment-failed path uses this after resolving the customer reference.
func UpdateStatusByTenantID(ctx context.Context, db *sqlx.DB, tenantID, status string) error {
	const q = `
        UPDATE tenant_subscriptions
        SET    status = ?
        WHERE  tenant_id = ?`
	_, err := db.ExecContext(ctx, q, status, tenantID)
	return err
}
