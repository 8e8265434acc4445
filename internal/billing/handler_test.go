// internal/billing/handler_test.go
//
// Webhook endpoint response-code contract: 400 kills a delivery, 500
// triggers redelivery, 200 acknowledges.

package billing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newWebhookHandler() *Handler {
	rc, _, _ := newTestReconciler(&fakeFetcher{})
	return &Handler{Reconciler: rc}
}

func TestWebhookBadSignatureReturns400(t *testing.T) {
	h := newWebhookHandler()

	payload := eventJSON("invoice.created", `{"id":"in_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")

	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
}

func TestWebhookMissingSignatureReturns400(t *testing.T) {
	h := newWebhookHandler()

	payload := eventJSON("invoice.created", `{"id":"in_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(string(payload)))

	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
}

func TestWebhookValidSignatureAcks(t *testing.T) {
	h := newWebhookHandler()

	payload := eventJSON("invoice.created", `{"id":"in_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", signedHeader(payload, time.Now()))

	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200 (body %q)", rec.Code, rec.Body.String())
	}

	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body["received"] {
		t.Fatalf("body = %v, want {\"received\": true}", body)
	}
}
