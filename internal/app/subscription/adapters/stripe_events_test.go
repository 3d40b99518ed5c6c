package adapters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/adapters/stripetest"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
)

const testSecret = "whsec_test_secret"

var (
	created     = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	periodStart = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
)

func verifyAndDecode(t *testing.T, body []byte) (domain.PaymentEvent, error) {
	t.Helper()
	decoder := NewStripeEventDecoder()
	env, err := decoder.Verify(body, stripetest.Sign(body, testSecret), testSecret)
	require.NoError(t, err)
	return decoder.Decode(env)
}

func TestVerify_ValidSignature(t *testing.T) {
	body := stripetest.Event(t, "evt_1", domain.EventCheckoutCompleted, created,
		stripetest.CheckoutSession("cs_1", "uid-1", "cus_1", "sub_1"))

	env, err := NewStripeEventDecoder().Verify(body, stripetest.Sign(body, testSecret), testSecret)

	require.NoError(t, err)
	assert.Equal(t, "evt_1", env.ID)
	assert.Equal(t, domain.EventCheckoutCompleted, env.Type)
	assert.Equal(t, created, env.CreatedAt)
	assert.NotEmpty(t, env.Payload)
}

func TestVerify_TamperedBody(t *testing.T) {
	body := stripetest.Event(t, "evt_1", domain.EventCheckoutCompleted, created,
		stripetest.CheckoutSession("cs_1", "uid-1", "cus_1", "sub_1"))
	header := stripetest.Sign(body, testSecret)
	tampered := stripetest.Event(t, "evt_1", domain.EventCheckoutCompleted, created,
		stripetest.CheckoutSession("cs_1", "uid-attacker", "cus_1", "sub_1"))

	_, err := NewStripeEventDecoder().Verify(tampered, header, testSecret)

	assert.ErrorIs(t, err, domain.ErrSignatureInvalid)
}

func TestVerify_WrongSecret(t *testing.T) {
	body := stripetest.Event(t, "evt_1", "invoice.paid", created, map[string]interface{}{"id": "in_1"})

	_, err := NewStripeEventDecoder().Verify(body, stripetest.Sign(body, "whsec_other"), testSecret)

	assert.ErrorIs(t, err, domain.ErrSignatureInvalid)
}

func TestVerify_GarbageHeader(t *testing.T) {
	body := stripetest.Event(t, "evt_1", "invoice.paid", created, map[string]interface{}{"id": "in_1"})

	_, err := NewStripeEventDecoder().Verify(body, "not-a-signature", testSecret)

	assert.ErrorIs(t, err, domain.ErrSignatureInvalid)
}

func TestDecode_CheckoutCompleted(t *testing.T) {
	body := stripetest.Event(t, "evt_1", domain.EventCheckoutCompleted, created,
		stripetest.CheckoutSession("cs_1", "uid-1", "cus_1", "sub_1"))

	event, err := verifyAndDecode(t, body)

	require.NoError(t, err)
	checkout, ok := event.(domain.CheckoutCompleted)
	require.True(t, ok, "unexpected variant %T", event)
	assert.Equal(t, "cs_1", checkout.SessionID)
	assert.Equal(t, "uid-1", checkout.UserID)
	assert.Equal(t, "cus_1", checkout.CustomerID)
	assert.Equal(t, "sub_1", checkout.SubscriptionID)
	assert.Equal(t, "evt_1", checkout.Meta().ID)
	assert.Equal(t, created, checkout.Meta().CreatedAt)
}

func TestDecode_CheckoutCompletedMissingFields(t *testing.T) {
	testCases := []struct {
		name    string
		session map[string]interface{}
	}{
		{name: "missing user id", session: stripetest.CheckoutSession("cs_1", "", "cus_1", "sub_1")},
		{name: "missing customer", session: stripetest.CheckoutSession("cs_1", "uid-1", "", "sub_1")},
		{name: "missing subscription", session: stripetest.CheckoutSession("cs_1", "uid-1", "cus_1", "")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body := stripetest.Event(t, "evt_1", domain.EventCheckoutCompleted, created, tc.session)

			event, err := verifyAndDecode(t, body)

			assert.ErrorIs(t, err, domain.ErrMalformedEvent)
			assert.Nil(t, event)
		})
	}
}

func TestDecode_SubscriptionUpdated(t *testing.T) {
	body := stripetest.Event(t, "evt_2", domain.EventSubscriptionUpdated, created,
		stripetest.Subscription("sub_1", "uid-1", "cus_1", "past_due", "price_std", periodStart, periodEnd, true))

	event, err := verifyAndDecode(t, body)

	require.NoError(t, err)
	updated, ok := event.(domain.SubscriptionUpdated)
	require.True(t, ok, "unexpected variant %T", event)
	assert.Equal(t, domain.ProcessorSubscription{
		ID:                 "sub_1",
		CustomerID:         "cus_1",
		UserID:             "uid-1",
		Status:             domain.StatusPastDue,
		PriceID:            "price_std",
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
		CancelAtPeriodEnd:  true,
	}, updated.Subscription)
}

func TestDecode_SubscriptionDeleted(t *testing.T) {
	body := stripetest.Event(t, "evt_3", domain.EventSubscriptionDeleted, created,
		stripetest.Subscription("sub_1", "uid-1", "cus_1", "canceled", "price_std", periodStart, periodEnd, false))

	event, err := verifyAndDecode(t, body)

	require.NoError(t, err)
	deleted, ok := event.(domain.SubscriptionDeleted)
	require.True(t, ok, "unexpected variant %T", event)
	assert.Equal(t, "uid-1", deleted.Subscription.UserID)
	assert.Equal(t, domain.StatusCanceled, deleted.Subscription.Status)
}

func TestDecode_SubscriptionWithoutUserID(t *testing.T) {
	body := stripetest.Event(t, "evt_4", domain.EventSubscriptionUpdated, created,
		stripetest.Subscription("sub_1", "", "cus_1", "active", "price_std", periodStart, periodEnd, false))

	_, err := verifyAndDecode(t, body)

	assert.ErrorIs(t, err, domain.ErrMalformedEvent)
}

func TestDecode_UnrecognizedType(t *testing.T) {
	body := stripetest.Event(t, "evt_5", "invoice.paid", created, map[string]interface{}{"id": "in_1"})

	event, err := verifyAndDecode(t, body)

	require.NoError(t, err)
	_, ok := event.(domain.UnrecognizedEvent)
	assert.True(t, ok, "unexpected variant %T", event)
	assert.Equal(t, "invoice.paid", event.Meta().Type)
}

func TestDecode_MissingObject(t *testing.T) {
	_, err := NewStripeEventDecoder().Decode(domain.Envelope{ID: "evt_6", Type: domain.EventSubscriptionDeleted})

	assert.ErrorIs(t, err, domain.ErrMalformedEvent)
}
