// internal/billing/handler.go
//
// HTTP surface for billing: the webhook endpoint plus the two
// session-creating endpoints (checkout and customer portal).
//
/*
Context
--------
The webhook endpoint is mounted OUTSIDE the tenant-resolver group: the
payment processor posts to the apex host with no session and no tenant
cookie.  Response codes are part of the redelivery contract:

  400  signature did not verify   → processor gives up on the delivery
  500  any downstream failure     → processor redelivers later
  200  processed (incl. no-ops)   → {"received": true}

Checkout and portal sit inside the resolver group, so a tenant record is
always on the context and a signed session identifies the caller.
*/
package billing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/subscription"
	"github.com/tallyhq/tally/internal/tenant"
	"github.com/tallyhq/tally/internal/user"
)

// maxWebhookBody caps a webhook delivery read.  Stripe's own limit is
// 64 KB; anything larger is not a legitimate delivery.
const maxWebhookBody = 1 << 20

// Handler bundles the billing endpoints and their collaborators.
type Handler struct {
	DB         *sqlx.DB
	Client     *Client
	Reconciler *Reconciler
	Subs       SubscriptionStore
	BaseURL    string
}

// Webhook receives one processor delivery, verifies it, and dispatches it
// through the reconciler.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "read failure", http.StatusBadRequest)
		return
	}

	err = h.Reconciler.Handle(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, ErrSignature):
		zap.L().Warn("webhook rejected", zap.Error(err))
		http.Error(w, "invalid signature", http.StatusBadRequest)
	default:
		// 500 → the processor redelivers, which is what we want for
		// transient store failures.
		zap.L().Error("webhook processing failed", zap.Error(err))
		http.Error(w, "processing failure", http.StatusInternalServerError)
	}
}

type checkoutRequest struct {
	PlanName string `json:"plan_name"`
}

// Checkout creates a subscription-mode checkout session for the current
// tenant and returns its id for the front-end redirect.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ten := tenant.FromContext(r.Context())
	if ten == nil {
		http.Error(w, "no tenant", http.StatusBadRequest)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}
	if _, ok := h.Client.PriceFor(req.PlanName); !ok {
		http.Error(w, "unknown plan", http.StatusBadRequest)
		return
	}

	customerID, err := h.customerFor(r, ten, false)
	if err != nil {
		zap.L().Error("checkout customer lookup failed",
			zap.String("tenant_id", ten.ID), zap.Error(err))
		http.Error(w, "billing unavailable", http.StatusInternalServerError)
		return
	}

	sessionID, err := h.Client.CheckoutSession(r.Context(), customerID, ten.ID, req.PlanName, h.BaseURL)
	if err != nil {
		zap.L().Error("checkout session failed",
			zap.String("tenant_id", ten.ID), zap.Error(err))
		http.Error(w, "billing unavailable", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"session_id": sessionID})
}

// Portal creates a billing-portal session and returns its URL.  A tenant
// that has never checked out gets a customer (and a free/active
// subscription stub) created on the spot, so the portal always opens.
func (h *Handler) Portal(w http.ResponseWriter, r *http.Request) {
	ten := tenant.FromContext(r.Context())
	if ten == nil {
		http.Error(w, "no tenant", http.StatusBadRequest)
		return
	}

	customerID, err := h.customerFor(r, ten, true)
	if err != nil {
		zap.L().Error("portal customer lookup failed",
			zap.String("tenant_id", ten.ID), zap.Error(err))
		http.Error(w, "billing unavailable", http.StatusInternalServerError)
		return
	}

	url, err := h.Client.PortalSession(r.Context(), customerID, h.BaseURL)
	if err != nil {
		zap.L().Error("portal session failed",
			zap.String("tenant_id", ten.ID), zap.Error(err))
		http.Error(w, "billing unavailable", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// customerFor returns the tenant's processor customer id, creating the
// customer when none is stored.  With persistStub set, a newly created
// customer is also recorded as a free/active subscription row so later
// webhook lookups by customer id resolve.
func (h *Handler) customerFor(r *http.Request, ten *tenant.Record, persistStub bool) (string, error) {
	ctx := r.Context()

	rec, err := h.Subs.ByTenantID(ctx, ten.ID)
	if err == nil && rec.StripeCustomerID != "" {
		return rec.StripeCustomerID, nil
	}
	if err != nil && !errors.Is(err, subscription.ErrNotFound) {
		return "", err
	}

	// The session cookie carries the caller's user id; the customer record
	// wants their email.
	email := ""
	if uid, ok := auth.UserID(ctx); ok {
		if u, uerr := user.ByID(ctx, h.DB, uid); uerr == nil {
			email = u.Email
		}
	}

	customerID, err := h.Client.CreateCustomer(ctx, email, ten.ID)
	if err != nil {
		return "", err
	}

	if persistStub {
		stub := &subscription.Record{
			TenantID:         ten.ID,
			StripeCustomerID: customerID,
			PlanName:         tenant.TierFree,
			Status:           subscription.StatusActive,
		}
		if uerr := h.Subs.Upsert(ctx, stub); uerr != nil {
			zap.L().Warn("subscription stub write failed",
				zap.String("tenant_id", ten.ID), zap.Error(uerr))
		}
	}
	return customerID, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
