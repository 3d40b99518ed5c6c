package check_entitlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/repo"
)

// MockStore is a mock implementation of SubscriptionStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, userID string) (*domain.SubscriptionRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SubscriptionRecord), args.Error(1)
}

func (m *MockStore) Upsert(ctx context.Context, record *domain.SubscriptionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func storeWith(t *testing.T, userID string, status domain.SubscriptionStatus) *repo.MemoryStore {
	t.Helper()
	store := repo.NewMemoryStore()
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Upsert(context.Background(), domain.ReconstructFromPersistence(domain.RecordSnapshot{
		UserID:      userID,
		CustomerID:  "cus_1",
		Status:      status,
		Tier:        domain.TierStandard,
		LastEventAt: at,
		UpdatedAt:   at,
	})))
	return store
}

func TestIsEntitled_ByStatus(t *testing.T) {
	testCases := []struct {
		status domain.SubscriptionStatus
		want   bool
	}{
		{status: domain.StatusActive, want: true},
		{status: domain.StatusPastDue, want: false},
		{status: domain.StatusCanceled, want: false},
		{status: domain.StatusUnknown, want: false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			gate := NewInteractor(storeWith(t, "uid-1", tc.status), discardLogger())

			entitled, err := gate.IsEntitled(context.Background(), "uid-1")

			require.NoError(t, err)
			assert.Equal(t, tc.want, entitled)
		})
	}
}

func TestIsEntitled_NoRecord(t *testing.T) {
	gate := NewInteractor(repo.NewMemoryStore(), discardLogger())

	entitled, err := gate.IsEntitled(context.Background(), "uid-unknown")

	require.NoError(t, err)
	assert.False(t, entitled)
}

func TestIsEntitled_EmptyUserID(t *testing.T) {
	store := new(MockStore)
	gate := NewInteractor(store, discardLogger())

	for _, userID := range []string{"", "   "} {
		entitled, err := gate.IsEntitled(context.Background(), userID)

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.False(t, entitled)
	}
	store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestIsEntitled_StoreFailureFailsClosed(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	store.On("Get", ctx, "uid-1").Return(nil, errors.New("spanner: unavailable"))
	gate := NewInteractor(store, discardLogger())

	entitled, err := gate.IsEntitled(ctx, "uid-1")

	assert.NoError(t, err)
	assert.False(t, entitled)
	store.AssertExpectations(t)
}

func TestStaticChecker(t *testing.T) {
	checker := NewStaticChecker("uid-1")
	ctx := context.Background()

	entitled, err := checker.IsEntitled(ctx, "uid-1")
	require.NoError(t, err)
	assert.True(t, entitled)

	checker.Set("uid-1", false)
	entitled, err = checker.IsEntitled(ctx, "uid-1")
	require.NoError(t, err)
	assert.False(t, entitled)

	_, err = checker.IsEntitled(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
