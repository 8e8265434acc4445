// internal/billing/reconciler_test.go
//
// Reconciler dispatch semantics against in-memory fakes.  The fakes
// record exact write sets so the no-op cases can assert zero writes.
//
// Run: go test ./internal/billing -v

package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/tallyhq/tally/internal/subscription"
	"github.com/tallyhq/tally/internal/tenant"
)

const testSecret = "whsec_test_secret"

// signedHeader builds a Stripe-Signature header the verifier accepts.
func signedHeader(payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

// eventJSON builds a minimal event envelope.  The api_version field must
// match the SDK's pinned version or ConstructEvent rejects the event.
func eventJSON(eventType, object string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_1","object":"event","api_version":%q,"type":%q,"data":{"object":%s}}`,
		stripe.APIVersion, eventType, object))
}

//
// fakes
//

type appliedPlan struct {
	tenantID, tier, status string
	ceilings               Ceilings
}

type fakeTenants struct {
	applied    []appliedPlan
	downgraded []string
}

func (f *fakeTenants) ApplyPlan(_ context.Context, tenantID, tier, status string, c Ceilings) error {
	f.applied = append(f.applied, appliedPlan{tenantID, tier, status, c})
	return nil
}

func (f *fakeTenants) DowngradeToFree(_ context.Context, tenantID string) error {
	f.downgraded = append(f.downgraded, tenantID)
	return nil
}

type statusWrite struct{ key, status string }

type periodWrite struct {
	subID, status string
	start, end    *time.Time
	cancel        bool
}

type fakeSubs struct {
	rows []*subscription.Record

	upserts        int
	periodWrites   []periodWrite
	statusBySub    []statusWrite
	statusByTenant []statusWrite
}

func (f *fakeSubs) Upsert(_ context.Context, rec *subscription.Record) error {
	f.upserts++
	for i, r := range f.rows {
		if r.TenantID == rec.TenantID {
			f.rows[i] = rec
			return nil
		}
	}
	f.rows = append(f.rows, rec)
	return nil
}

func (f *fakeSubs) find(match func(*subscription.Record) bool) (*subscription.Record, error) {
	for _, r := range f.rows {
		if match(r) {
			return r, nil
		}
	}
	return nil, subscription.ErrNotFound
}

func (f *fakeSubs) ByTenantID(_ context.Context, id string) (*subscription.Record, error) {
	return f.find(func(r *subscription.Record) bool { return r.TenantID == id })
}

func (f *fakeSubs) ByStripeSubscriptionID(_ context.Context, id string) (*subscription.Record, error) {
	return f.find(func(r *subscription.Record) bool {
		return r.StripeSubscriptionID != nil && *r.StripeSubscriptionID == id
	})
}

func (f *fakeSubs) ByStripeCustomerID(_ context.Context, id string) (*subscription.Record, error) {
	return f.find(func(r *subscription.Record) bool { return r.StripeCustomerID == id })
}

func (f *fakeSubs) UpdatePeriod(_ context.Context, subID, status string, start, end *time.Time, cancel bool) error {
	f.periodWrites = append(f.periodWrites, periodWrite{subID, status, start, end, cancel})
	return nil
}

func (f *fakeSubs) UpdateStatusBySubscriptionID(_ context.Context, subID, status string) error {
	f.statusBySub = append(f.statusBySub, statusWrite{subID, status})
	return nil
}

func (f *fakeSubs) UpdateStatusByTenantID(_ context.Context, tenantID, status string) error {
	f.statusByTenant = append(f.statusByTenant, statusWrite{tenantID, status})
	return nil
}

func (f *fakeSubs) writes() int {
	return f.upserts + len(f.periodWrites) + len(f.statusBySub) + len(f.statusByTenant)
}

type fakeFetcher struct {
	details *SubscriptionDetails
	err     error
}

func (f *fakeFetcher) Subscription(context.Context, string) (*SubscriptionDetails, error) {
	return f.details, f.err
}

func newTestReconciler(fetcher SubscriptionFetcher) (*Reconciler, *fakeTenants, *fakeSubs) {
	tenants := &fakeTenants{}
	subs := &fakeSubs{}
	return NewReconciler(testSecret, tenants, subs, fetcher), tenants, subs
}

//
// tests
//

func TestHandleRejectsBadSignature(t *testing.T) {
	rc, tenants, subs := newTestReconciler(&fakeFetcher{})

	payload := eventJSON("checkout.session.completed", `{"id":"cs_1"}`)
	err := rc.Handle(context.Background(), payload, "t=1,v1=deadbeef")
	if !errors.Is(err, ErrSignature) {
		t.Fatalf("err = %v, want ErrSignature", err)
	}
	if len(tenants.applied) != 0 || subs.writes() != 0 {
		t.Fatal("signature failure must mutate nothing")
	}
}

func TestCheckoutCompletedIsIdempotent(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	fetcher := &fakeFetcher{details: &SubscriptionDetails{
		ID:                 "sub_123",
		CustomerID:         "cus_123",
		Status:             subscription.StatusActive,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
		AmountCents:        4900,
		Currency:           "usd",
	}}
	rc, tenants, subs := newTestReconciler(fetcher)

	payload := eventJSON("checkout.session.completed", `{
        "id": "cs_1",
        "customer": "cus_123",
        "subscription": "sub_123",
        "metadata": {"tenant_id": "t-1", "plan_name": "professional"}
    }`)

	// Deliver the same event twice, as the processor does on a slow ack.
	for i := 0; i < 2; i++ {
		if err := rc.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}

	if len(subs.rows) != 1 {
		t.Fatalf("rows = %d, want 1 (upsert, not insert)", len(subs.rows))
	}
	rec := subs.rows[0]
	if rec.TenantID != "t-1" || rec.PlanName != "professional" ||
		rec.Status != subscription.StatusActive || rec.AmountCents != 4900 {
		t.Fatalf("row = %+v", rec)
	}
	if rec.StripeSubscriptionID == nil || *rec.StripeSubscriptionID != "sub_123" {
		t.Fatalf("subscription ref = %v", rec.StripeSubscriptionID)
	}

	if len(tenants.applied) != 2 {
		t.Fatalf("ApplyPlan calls = %d, want 2", len(tenants.applied))
	}
	last := tenants.applied[1]
	if last.tier != "professional" || last.status != tenant.StatusActive {
		t.Fatalf("applied = %+v", last)
	}
	if last.ceilings != (Ceilings{MaxUsers: 50, MaxProjects: 200, MaxStorageGB: 50}) {
		t.Fatalf("ceilings = %+v", last.ceilings)
	}
}

func TestCheckoutCompletedWithoutMetadataIsNoop(t *testing.T) {
	rc, tenants, subs := newTestReconciler(&fakeFetcher{})

	payload := eventJSON("checkout.session.completed",
		`{"id":"cs_2","customer":"cus_9","subscription":"sub_9","metadata":{}}`)
	if err := rc.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(tenants.applied) != 0 || subs.writes() != 0 {
		t.Fatal("metadata-less checkout must mutate nothing")
	}
}

func TestSubscriptionUpdatedUnknownReferenceIsNoop(t *testing.T) {
	rc, _, subs := newTestReconciler(&fakeFetcher{})

	payload := eventJSON("customer.subscription.updated",
		`{"id":"sub_ghost","status":"active"}`)
	if err := rc.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if subs.writes() != 0 {
		t.Fatal("unknown reference must mutate nothing")
	}
}

func TestSubscriptionUpdatedOverwritesPeriod(t *testing.T) {
	rc, _, subs := newTestReconciler(&fakeFetcher{})
	subID := "sub_123"
	subs.rows = append(subs.rows, &subscription.Record{
		TenantID:             "t-1",
		StripeCustomerID:     "cus_123",
		StripeSubscriptionID: &subID,
		Status:               subscription.StatusActive,
	})

	payload := eventJSON("customer.subscription.updated", `{
        "id": "sub_123",
        "status": "past_due",
        "cancel_at_period_end": true,
        "items": {"data": [{"current_period_start": 1756684800, "current_period_end": 1759276800}]}
    }`)
	if err := rc.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(subs.periodWrites) != 1 {
		t.Fatalf("period writes = %d, want 1", len(subs.periodWrites))
	}
	w := subs.periodWrites[0]
	if w.subID != "sub_123" || w.status != "past_due" || !w.cancel {
		t.Fatalf("write = %+v", w)
	}
	if w.start == nil || w.start.Unix() != 1756684800 || w.end == nil || w.end.Unix() != 1759276800 {
		t.Fatalf("bounds = %v .. %v", w.start, w.end)
	}
}

func TestSubscriptionDeletedDowngradesToFree(t *testing.T) {
	rc, tenants, subs := newTestReconciler(&fakeFetcher{})
	subID := "sub_123"
	subs.rows = append(subs.rows, &subscription.Record{
		TenantID:             "t-1",
		StripeCustomerID:     "cus_123",
		StripeSubscriptionID: &subID,
		PlanName:             "enterprise",
		Status:               subscription.StatusActive,
	})

	payload := eventJSON("customer.subscription.deleted", `{"id":"sub_123"}`)
	if err := rc.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(tenants.downgraded) != 1 || tenants.downgraded[0] != "t-1" {
		t.Fatalf("downgrades = %v", tenants.downgraded)
	}
	// Tenant status is untouched on deletion; only the tier drops.
	if len(tenants.applied) != 0 {
		t.Fatalf("ApplyPlan calls = %d, want 0", len(tenants.applied))
	}
	if len(subs.statusBySub) != 1 ||
		subs.statusBySub[0] != (statusWrite{"sub_123", subscription.StatusCancelled}) {
		t.Fatalf("status writes = %v", subs.statusBySub)
	}
}

func TestSubscriptionDeletedUnknownReferenceIsNoop(t *testing.T) {
	rc, tenants, subs := newTestReconciler(&fakeFetcher{})

	payload := eventJSON("customer.subscription.deleted", `{"id":"sub_ghost"}`)
	if err := rc.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(tenants.downgraded) != 0 || subs.writes() != 0 {
		t.Fatal("unknown reference must mutate nothing")
	}
}

func TestPaymentFailedMarksPastDue(t *testing.T) {
	rc, _, subs := newTestReconciler(&fakeFetcher{})
	subs.rows = append(subs.rows, &subscription.Record{
		TenantID:         "t-1",
		StripeCustomerID: "cus_123",
		Status:           subscription.StatusActive,
	})

	payload := eventJSON("invoice.payment_failed", `{"id":"in_1","customer":"cus_123"}`)
	if err := rc.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(subs.statusByTenant) != 1 ||
		subs.statusByTenant[0] != (statusWrite{"t-1", subscription.StatusPastDue}) {
		t.Fatalf("status writes = %v", subs.statusByTenant)
	}
}

func TestPaymentFailedUnknownCustomerIsNoop(t *testing.T) {
	rc, _, subs := newTestReconciler(&fakeFetcher{})

	payload := eventJSON("invoice.payment_failed", `{"id":"in_1","customer":"cus_ghost"}`)
	if err := rc.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if subs.writes() != 0 {
		t.Fatal("unknown customer must mutate nothing")
	}
}

func TestUnhandledEventTypeAcks(t *testing.T) {
	rc, tenants, subs := newTestReconciler(&fakeFetcher{})

	payload := eventJSON("invoice.created", `{"id":"in_2"}`)
	if err := rc.Handle(context.Background(), payload, signedHeader(payload, time.Now())); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(tenants.applied) != 0 || subs.writes() != 0 {
		t.Fatal("unhandled event must mutate nothing")
	}
}
