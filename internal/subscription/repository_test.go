// internal/subscription/repository_test.go
//
// Query-shape tests for the tenant_subscriptions helpers using sqlmock.
//
// Run: go test ./internal/subscription -v

package subscription

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

const selectByTenant = `SELECT tenant_id, stripe_customer_id, stripe_subscription_id, ` +
	`plan_name, status, current_period_start, current_period_end, ` +
	`cancel_at_period_end, amount_cents, currency, created_at, updated_at ` +
	`FROM tenant_subscriptions WHERE tenant_id = ? LIMIT 1`

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func TestByTenantIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectByTenant)).
		WithArgs("t-ghost").
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}))

	_, err := ByTenantID(context.Background(), db, "t-ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestByTenantID(t *testing.T) {
	db, mock := newMockDB(t)

	now := time.Now()
	subID := "sub_123"
	mock.ExpectQuery(regexp.QuoteMeta(selectByTenant)).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"tenant_id", "stripe_customer_id", "stripe_subscription_id",
			"plan_name", "status", "current_period_start", "current_period_end",
			"cancel_at_period_end", "amount_cents", "currency", "created_at", "updated_at",
		}).AddRow("t-1", "cus_123", subID, "starter", "active", now, now.AddDate(0, 1, 0),
			false, 1900, "usd", now, now))

	rec, err := ByTenantID(context.Background(), db, "t-1")
	if err != nil {
		t.Fatalf("ByTenantID: %v", err)
	}
	if rec.StripeCustomerID != "cus_123" || rec.PlanName != "starter" || rec.AmountCents != 1900 {
		t.Fatalf("rec = %+v", rec)
	}
	if rec.StripeSubscriptionID == nil || *rec.StripeSubscriptionID != "sub_123" {
		t.Fatalf("subscription ref = %v", rec.StripeSubscriptionID)
	}
}

func TestUpsertReplaysCleanly(t *testing.T) {
	db, mock := newMockDB(t)

	const q = `INSERT INTO tenant_subscriptions (tenant_id, stripe_customer_id, ` +
		`stripe_subscription_id, plan_name, status, current_period_start, current_period_end, ` +
		`cancel_at_period_end, amount_cents, currency) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ` +
		`ON DUPLICATE KEY UPDATE stripe_customer_id = VALUES(stripe_customer_id), ` +
		`stripe_subscription_id = VALUES(stripe_subscription_id), ` +
		`plan_name = VALUES(plan_name), status = VALUES(status), ` +
		`current_period_start = VALUES(current_period_start), ` +
		`current_period_end = VALUES(current_period_end), ` +
		`cancel_at_period_end = VALUES(cancel_at_period_end), ` +
		`amount_cents = VALUES(amount_cents), currency = VALUES(currency)`

	subID := "sub_123"
	start := time.Now().UTC()
	end := start.AddDate(0, 1, 0)
	rec := &Record{
		TenantID:             "t-1",
		StripeCustomerID:     "cus_123",
		StripeSubscriptionID: &subID,
		PlanName:             "professional",
		Status:               StatusActive,
		CurrentPeriodStart:   &start,
		CurrentPeriodEnd:     &end,
		AmountCents:          4900,
		Currency:             "usd",
	}

	// Same statement twice; second run hits the ON DUPLICATE KEY branch.
	for i := 0; i < 2; i++ {
		// Pointer args are dereferenced by the driver's parameter
		// converter before the mock sees them.
		mock.ExpectExec(regexp.QuoteMeta(q)).
			WithArgs("t-1", "cus_123", subID, "professional", StatusActive,
				start, end, false, int64(4900), "usd").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	for i := 0; i < 2; i++ {
		if err := Upsert(context.Background(), db, rec); err != nil {
			t.Fatalf("upsert %d: %v", i+1, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUpdatePeriodNilBounds(t *testing.T) {
	db, mock := newMockDB(t)

	const q = `UPDATE tenant_subscriptions SET status = ?, current_period_start = ?, ` +
		`current_period_end = ?, cancel_at_period_end = ? WHERE stripe_subscription_id = ?`

	// Absent bounds stay NULL rather than overwriting with the epoch.
	mock.ExpectExec(regexp.QuoteMeta(q)).
		WithArgs("active", nil, nil, false, "sub_123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := UpdatePeriod(context.Background(), db, "sub_123", "active", nil, nil, false); err != nil {
		t.Fatalf("UpdatePeriod: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
