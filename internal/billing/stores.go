// internal/billing/stores.go
//
// Row-store collaborator interfaces for the reconciler, plus the sqlx
// implementation used in production.
//
// The interfaces exist so reconciler tests can assert exact write sets
// (including “zero writes” for unknown references) without a database;
// the fakes live next to the tests.
package billing

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tallyhq/tally/internal/subscription"
	"github.com/tallyhq/tally/internal/tenant"
)

// TenantStore applies denormalised billing facts to the tenants table.
type TenantStore interface {
	// ApplyPlan overwrites tier, status, and ceilings (checkout path).
	ApplyPlan(ctx context.Context, tenantID, tier, status string, c Ceilings) error
	// DowngradeToFree overwrites tier and ceilings with the free-tier
	// table, leaving status untouched (subscription-deleted path).
	DowngradeToFree(ctx context.Context, tenantID string) error
}

// SubscriptionStore is the reconciler's view of tenant_subscriptions.
type SubscriptionStore interface {
	Upsert(ctx context.Context, rec *subscription.Record) error
	ByTenantID(ctx context.Context, tenantID string) (*subscription.Record, error)
	ByStripeSubscriptionID(ctx context.Context, subID string) (*subscription.Record, error)
	ByStripeCustomerID(ctx context.Context, customerID string) (*subscription.Record, error)
	UpdatePeriod(ctx context.Context, subID, status string, start, end *time.Time, cancelAtPeriodEnd bool) error
	UpdateStatusBySubscriptionID(ctx context.Context, subID, status string) error
	UpdateStatusByTenantID(ctx context.Context, tenantID, status string) error
}

//
// sqlx implementation
//

// SQLStore satisfies TenantStore and SubscriptionStore over the
// control-plane pool by delegating to the entity repositories.
type SQLStore struct {
	DB *sqlx.DB
}

func (s *SQLStore) ApplyPlan(ctx context.Context, tenantID, tier, status string, c Ceilings) error {
	return tenant.UpdatePlan(ctx, s.DB, tenantID, tier, status, c.MaxUsers, c.MaxProjects, c.MaxStorageGB)
}

func (s *SQLStore) DowngradeToFree(ctx context.Context, tenantID string) error {
	return tenant.UpdateTier(ctx, s.DB, tenantID, tenant.TierFree,
		FreeCeilings.MaxUsers, FreeCeilings.MaxProjects, FreeCeilings.MaxStorageGB)
}

func (s *SQLStore) Upsert(ctx context.Context, rec *subscription.Record) error {
	return subscription.Upsert(ctx, s.DB, rec)
}

func (s *SQLStore) ByTenantID(ctx context.Context, tenantID string) (*subscription.Record, error) {
	return subscription.ByTenantID(ctx, s.DB, tenantID)
}

func (s *SQLStore) ByStripeSubscriptionID(ctx context.Context, subID string) (*subscription.Record, error) {
	return subscription.ByStripeSubscriptionID(ctx, s.DB, subID)
}

func (s *SQLStore) ByStripeCustomerID(ctx context.Context, customerID string) (*subscription.Record, error) {
	return subscription.ByStripeCustomerID(ctx, s.DB, customerID)
}

func (s *SQLStore) UpdatePeriod(ctx context.Context, subID, status string, start, end *time.Time, cancelAtPeriodEnd bool) error {
	return subscription.UpdatePeriod(ctx, s.DB, subID, status, start, end, cancelAtPeriodEnd)
}

func (s *SQLStore) UpdateStatusBySubscriptionID(ctx context.Context, subID, status string) error {
	return subscription.UpdateStatusBySubscriptionID(ctx, s.DB, subID, status)
}

func (s *SQLStore) UpdateStatusByTenantID(ctx context.Context, tenantID, status string) error {
	return subscription.UpdateStatusByTenantID(ctx, s.DB, tenantID, status)
}
