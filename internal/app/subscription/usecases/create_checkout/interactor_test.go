package create_checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
)

// MockProcessor is a mock implementation of PaymentProcessor
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) GetSubscription(ctx context.Context, subscriptionID string) (*domain.ProcessorSubscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessorSubscription), args.Error(1)
}

func (m *MockProcessor) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutSession), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateCheckout_Success(t *testing.T) {
	ctx := context.Background()
	processor := new(MockProcessor)
	interactor := NewInteractor(processor, "https://example.com/", discardLogger())

	processor.On("CreateCheckoutSession", ctx, domain.CheckoutRequest{
		PriceID:       "price_basic",
		CustomerEmail: "reader@example.com",
		UserID:        "uid-1",
		SuccessURL:    "https://example.com/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     "https://example.com/cancel",
	}).Return(&domain.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}, nil)

	session, err := interactor.Execute(ctx, Request{
		PriceID:   "price_basic",
		UserEmail: "reader@example.com",
		UserID:    "uid-1",
		Origin:    "http://localhost:4321",
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", session.URL)
	processor.AssertExpectations(t)
}

func TestCreateCheckout_FallsBackToRequestOrigin(t *testing.T) {
	ctx := context.Background()
	processor := new(MockProcessor)
	interactor := NewInteractor(processor, "", discardLogger())

	processor.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(req domain.CheckoutRequest) bool {
		return req.SuccessURL == "http://localhost:4321/success?session_id={CHECKOUT_SESSION_ID}" &&
			req.CancelURL == "http://localhost:4321/cancel"
	})).Return(&domain.CheckoutSession{ID: "cs_1"}, nil)

	_, err := interactor.Execute(ctx, Request{
		PriceID:   "price_basic",
		UserEmail: "reader@example.com",
		UserID:    "uid-1",
		Origin:    "http://localhost:4321",
	})

	require.NoError(t, err)
	processor.AssertExpectations(t)
}

func TestCreateCheckout_MissingFields(t *testing.T) {
	testCases := []struct {
		name string
		req  Request
	}{
		{name: "missing price", req: Request{UserEmail: "reader@example.com", UserID: "uid-1"}},
		{name: "missing email", req: Request{PriceID: "price_basic", UserID: "uid-1"}},
		{name: "blank user", req: Request{PriceID: "price_basic", UserEmail: "reader@example.com", UserID: "  "}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			processor := new(MockProcessor)
			interactor := NewInteractor(processor, "https://example.com", discardLogger())

			session, err := interactor.Execute(context.Background(), tc.req)

			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
			assert.Nil(t, session)
			processor.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateCheckout_NoOrigin(t *testing.T) {
	processor := new(MockProcessor)
	interactor := NewInteractor(processor, "", discardLogger())

	_, err := interactor.Execute(context.Background(), Request{
		PriceID:   "price_basic",
		UserEmail: "reader@example.com",
		UserID:    "uid-1",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCreateCheckout_ProcessorFailure(t *testing.T) {
	ctx := context.Background()
	processor := new(MockProcessor)
	interactor := NewInteractor(processor, "https://example.com", discardLogger())
	processor.On("CreateCheckoutSession", ctx, mock.Anything).Return(nil, errors.New("No such price: 'price_gone'"))

	session, err := interactor.Execute(ctx, Request{
		PriceID:   "price_gone",
		UserEmail: "reader@example.com",
		UserID:    "uid-1",
	})

	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
	assert.Contains(t, err.Error(), "No such price")
	assert.Nil(t, session)
}
