// internal/billing/reconciler.go
//
// Webhook reconciler: keeps the Tenant and Subscription rows consistent
// with the payment processor's view.
//
/*
Context
--------
One webhook delivery at a time; no batching, no in-process retry.  The
processor redelivers on any non-2xx response, so every handler below must
be safe to re-run in full given the same event.  That is why each
mutation is an upsert or a pure overwrite, never an increment or append.

Dispatch table (event type → reads → writes):

  checkout.session.completed   fetch live sub by remote ref   upsert Subscription; overwrite Tenant tier + ceilings + status
  customer.subscription.updated  row by remote sub ref        overwrite status, period bounds, cancel flag (absent row → no-op)
  customer.subscription.deleted  row by remote sub ref        Tenant → free tier + ceilings; Subscription → cancelled (absent → no-op)
  invoice.payment_succeeded      —                            log only
  invoice.payment_failed         row by remote customer ref   Subscription → past_due (absent → no-op)
  anything else                  —                            log only

Concurrent deliveries for the same tenant are NOT serialised here; the
row-store's transactional guarantees are the only ordering.  Last write
wins, matching the processor's own (unordered) delivery semantics.

Notes
-----
  • Signature failure returns ErrSignature and mutates nothing.
  • Event payloads are decoded into small local structs rather than SDK
    types; the period bounds are read from the first subscription item
    with a top-level fallback for older API versions.
*/
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/metrics"
	"github.com/tallyhq/tally/internal/subscription"
	"github.com/tallyhq/tally/internal/tenant"
)

// ErrSignature marks a delivery whose signature did not verify.  The HTTP
// handler converts it to a 400; everything else becomes a 500 so the
// processor redelivers.
var ErrSignature = errors.New("webhook signature verification failed")

// Reconciler consumes webhook deliveries and applies the dispatch table.
type Reconciler struct {
	secret  string
	tenants TenantStore
	subs    SubscriptionStore
	fetcher SubscriptionFetcher
}

// NewReconciler wires the reconciler to its collaborators.
func NewReconciler(secret string, tenants TenantStore, subs SubscriptionStore, fetcher SubscriptionFetcher) *Reconciler {
	return &Reconciler{secret: secret, tenants: tenants, subs: subs, fetcher: fetcher}
}

// Handle verifies one raw delivery and dispatches it.  A nil return means
// the event was fully processed (including the no-op cases) and the caller
// should acknowledge with a 2xx.
func (rc *Reconciler) Handle(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, rc.secret)
	if err != nil {
		metrics.WebhookSignatureErrorsTotal.Inc()
		return fmt.Errorf("%w: %v", ErrSignature, err)
	}
	metrics.WebhookEventsTotal.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return rc.checkoutCompleted(ctx, event.Data.Raw)
	case stripe.EventTypeCustomerSubscriptionUpdated:
		return rc.subscriptionUpdated(ctx, event.Data.Raw)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		return rc.subscriptionDeleted(ctx, event.Data.Raw)
	case stripe.EventTypeInvoicePaymentSucceeded:
		return rc.paymentSucceeded(event.Data.Raw)
	case stripe.EventTypeInvoicePaymentFailed:
		return rc.paymentFailed(ctx, event.Data.Raw)
	default:
		zap.L().Info("unhandled webhook event", zap.String("type", string(event.Type)))
		return nil
	}
}

//
// event payload projections (SDK-free)
//

type checkoutSessionPayload struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionPayload struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Items              struct {
		Data []struct {
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// periodBounds prefers the first-item bounds (current API shape) and falls
// back to the legacy top-level fields.  Zero stays nil: an absent bound
// must not overwrite a stored one with the epoch.
func (p *subscriptionPayload) periodBounds() (start, end *time.Time) {
	s, e := p.CurrentPeriodStart, p.CurrentPeriodEnd
	if len(p.Items.Data) > 0 && p.Items.Data[0].CurrentPeriodEnd != 0 {
		s, e = p.Items.Data[0].CurrentPeriodStart, p.Items.Data[0].CurrentPeriodEnd
	}
	if s != 0 {
		t := time.Unix(s, 0).UTC()
		start = &t
	}
	if e != 0 {
		t := time.Unix(e, 0).UTC()
		end = &t
	}
	return start, end
}

type invoicePayload struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
}

//
// handlers, one per event type
//

// checkoutCompleted upserts the Subscription row and overwrites the Tenant
// tier, ceilings, and status.  Replaying the same event re-applies the
// same final state.
func (rc *Reconciler) checkoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var p checkoutSessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("parse checkout.session.completed: %w", err)
	}

	tenantID := p.Metadata["tenant_id"]
	planName := p.Metadata["plan_name"]
	if tenantID == "" || planName == "" {
		zap.L().Warn("checkout completed without tenant metadata", zap.String("session", p.ID))
		return nil
	}
	ceilings, ok := CeilingsForPlan(planName)
	if !ok {
		zap.L().Warn("checkout completed for unknown plan",
			zap.String("tenant_id", tenantID), zap.String("plan", planName))
		return nil
	}

	details, err := rc.fetcher.Subscription(ctx, p.Subscription)
	if err != nil {
		return err
	}

	customerID := p.Customer
	if customerID == "" {
		customerID = details.CustomerID
	}

	rec := &subscription.Record{
		TenantID:             tenantID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: &details.ID,
		PlanName:             planName,
		Status:               details.Status,
		CurrentPeriodStart:   &details.CurrentPeriodStart,
		CurrentPeriodEnd:     &details.CurrentPeriodEnd,
		CancelAtPeriodEnd:    details.CancelAtPeriodEnd,
		AmountCents:          details.AmountCents,
		Currency:             details.Currency,
	}
	if err := rc.subs.Upsert(ctx, rec); err != nil {
		return err
	}

	if err := rc.tenants.ApplyPlan(ctx, tenantID, planName, tenant.StatusActive, ceilings); err != nil {
		return err
	}

	zap.L().Info("checkout reconciled",
		zap.String("tenant_id", tenantID), zap.String("plan", planName))
	return nil
}

// subscriptionUpdated overwrites status, period bounds, and the cancel
// flag.  Unknown remote reference → nothing to reconcile, no-op.
func (rc *Reconciler) subscriptionUpdated(ctx context.Context, raw json.RawMessage) error {
	var p subscriptionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("parse customer.subscription.updated: %w", err)
	}

	if _, err := rc.subs.ByStripeSubscriptionID(ctx, p.ID); err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			zap.L().Info("subscription update for unknown reference", zap.String("sub", p.ID))
			return nil
		}
		return err
	}

	start, end := p.periodBounds()
	return rc.subs.UpdatePeriod(ctx, p.ID, p.Status, start, end, p.CancelAtPeriodEnd)
}

// subscriptionDeleted downgrades the owning tenant to the free tier and
// marks the Subscription cancelled.  Repeating the downgrade is a no-op in
// effect.
func (rc *Reconciler) subscriptionDeleted(ctx context.Context, raw json.RawMessage) error {
	var p subscriptionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("parse customer.subscription.deleted: %w", err)
	}

	rec, err := rc.subs.ByStripeSubscriptionID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			zap.L().Info("subscription delete for unknown reference", zap.String("sub", p.ID))
			return nil
		}
		return err
	}

	if err := rc.tenants.DowngradeToFree(ctx, rec.TenantID); err != nil {
		return err
	}
	if err := rc.subs.UpdateStatusBySubscriptionID(ctx, p.ID, subscription.StatusCancelled); err != nil {
		return err
	}

	zap.L().Info("tenant downgraded to free tier", zap.String("tenant_id", rec.TenantID))
	return nil
}

// paymentSucceeded is record-only; nothing to reconcile.
func (rc *Reconciler) paymentSucceeded(raw json.RawMessage) error {
	var p invoicePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("parse invoice.payment_succeeded: %w", err)
	}
	zap.L().Info("invoice payment succeeded", zap.String("invoice", p.ID))
	return nil
}

// paymentFailed moves the Subscription to past_due.  Unknown customer
// reference performs zero writes.
func (rc *Reconciler) paymentFailed(ctx context.Context, raw json.RawMessage) error {
	var p invoicePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("parse invoice.payment_failed: %w", err)
	}

	rec, err := rc.subs.ByStripeCustomerID(ctx, p.Customer)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			zap.L().Info("payment failure for unknown customer", zap.String("customer", p.Customer))
			return nil
		}
		return err
	}

	if err := rc.subs.UpdateStatusByTenantID(ctx, rec.TenantID, subscription.StatusPastDue); err != nil {
		return err
	}
	zap.L().Warn("subscription past due", zap.String("tenant_id", rec.TenantID))
	return nil
}
