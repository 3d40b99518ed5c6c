// Package stripetest builds signed Stripe webhook deliveries for tests.
package stripetest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Event renders a Stripe event envelope around object
func Event(t testing.TB, id, eventType string, created time.Time, object map[string]interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"created":     created.Unix(),
		"api_version": stripe.APIVersion,
		"livemode":    false,
		"data": map[string]interface{}{
			"object": object,
		},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return body
}

// Sign returns the Stripe-Signature header for payload
func Sign(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

// CheckoutSession is a completed checkout session object
func CheckoutSession(sessionID, userID, customerID, subscriptionID string) map[string]interface{} {
	obj := map[string]interface{}{
		"id":             sessionID,
		"object":         "checkout.session",
		"mode":           "subscription",
		"payment_status": "paid",
		"metadata":       map[string]string{},
	}
	if userID != "" {
		obj["metadata"] = map[string]string{"firebaseUid": userID}
	}
	if customerID != "" {
		obj["customer"] = customerID
	}
	if subscriptionID != "" {
		obj["subscription"] = subscriptionID
	}
	return obj
}

// Subscription is a subscription object with a single priced item
func Subscription(subscriptionID, userID, customerID, status, priceID string, periodStart, periodEnd time.Time, cancelAtPeriodEnd bool) map[string]interface{} {
	metadata := map[string]string{}
	if userID != "" {
		metadata["firebaseUid"] = userID
	}
	return map[string]interface{}{
		"id":                   subscriptionID,
		"object":               "subscription",
		"customer":             customerID,
		"status":               status,
		"metadata":             metadata,
		"cancel_at_period_end": cancelAtPeriodEnd,
		"current_period_start": periodStart.Unix(),
		"current_period_end":   periodEnd.Unix(),
		"items": map[string]interface{}{
			"object": "list",
			"data": []map[string]interface{}{
				{
					"id":     "si_" + subscriptionID,
					"object": "subscription_item",
					"price": map[string]interface{}{
						"id":     priceID,
						"object": "price",
					},
				},
			},
		},
	}
}
