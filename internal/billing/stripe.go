// internal/billing/stripe.go
//
// Thin wrapper over the Stripe SDK.
//
// Context
// -------
// Isolates the stripe-go API surface (checkout sessions, billing-portal
// sessions, customer creation, subscription retrieval) behind one small
// struct so handlers and the reconciler never see SDK types.  The
// reconciler depends only on the SubscriptionFetcher interface, which
// tests satisfy with a fake.
//
// Notes
// -----
//   • Under recent Stripe API versions the billing-period bounds live on
//     the subscription *items*, not the subscription itself; Details()
//     reads them from the first item.
//   • Oxford commas, two spaces after periods.
package billing

import (
	"context"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// SubscriptionDetails is the SDK-free projection of a live subscription
// that the reconciler persists after a completed checkout.
type SubscriptionDetails struct {
	ID                 string
	CustomerID         string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	AmountCents        int64
	Currency           string
}

// SubscriptionFetcher retrieves live subscription details by remote
// reference.  *Client satisfies it; tests use a fake.
type SubscriptionFetcher interface {
	Subscription(ctx context.Context, id string) (*SubscriptionDetails, error)
}

// Client wraps an authenticated Stripe API handle plus the configured
// plan → price-id table.
type Client struct {
	api    *client.API
	prices PriceIDs
}

// NewClient builds a Client from the secret key and price table.
func NewClient(secretKey string, prices PriceIDs) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api, prices: prices}
}

// PriceFor returns the price id for a plan name.  ok == false means the
// plan cannot be checked out (unknown, or the free tier).
func (c *Client) PriceFor(plan string) (string, bool) {
	id, ok := c.prices[plan]
	return id, ok
}

// CreateCustomer registers a billing customer carrying the tenant id in
// metadata, so processor-side records can always be traced back.
func (c *Client) CreateCustomer(ctx context.Context, email, tenantID string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.AddMetadata("tenant_id", tenantID)

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create customer: %w", err)
	}
	return cust.ID, nil
}

// CheckoutSession creates a subscription-mode checkout session for the
// given customer and plan.  The tenant id and plan name ride along in
// metadata; the reconciler reads them back out of the completed-checkout
// webhook.
func (c *Client) CheckoutSession(ctx context.Context, customerID, tenantID, plan, baseURL string) (string, error) {
	priceID, ok := c.PriceFor(plan)
	if !ok {
		return "", fmt.Errorf("billing: no price configured for plan %q", plan)
	}

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(baseURL + "/settings/billing?success=true"),
		CancelURL:         stripe.String(baseURL + "/settings/billing?canceled=true"),
		ClientReferenceID: stripe.String(tenantID),
	}
	params.Context = ctx
	params.AddMetadata("tenant_id", tenantID)
	params.AddMetadata("plan_name", plan)

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create checkout session: %w", err)
	}
	return sess.ID, nil
}

// PortalSession creates a billing-portal session and returns its URL.
func (c *Client) PortalSession(ctx context.Context, customerID, baseURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(baseURL + "/settings/billing"),
	}
	params.Context = ctx

	sess, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create portal session: %w", err)
	}
	return sess.URL, nil
}

// Subscription fetches live subscription details by remote reference.
func (c *Client) Subscription(ctx context.Context, id string) (*SubscriptionDetails, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("billing: retrieve subscription: %w", err)
	}

	d := &SubscriptionDetails{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		d.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		d.CurrentPeriodStart = time.Unix(item.CurrentPeriodStart, 0).UTC()
		d.CurrentPeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
		if item.Price != nil {
			d.AmountCents = item.Price.UnitAmount
			d.Currency = string(item.Price.Currency)
		}
	}
	return d, nil
}
