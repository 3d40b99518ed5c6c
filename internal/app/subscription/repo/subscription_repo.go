package repo

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
)

const subscriptionTable = "subscription_records"

var subscriptionColumns = []string{
	"user_id",
	"customer_id",
	"subscription_id",
	"status",
	"tier",
	"current_period_start",
	"current_period_end",
	"cancel_at_period_end",
	"last_event_id",
	"last_event_at",
	"updated_at",
}

var _ contracts.SubscriptionStore = (*SpannerStore)(nil)

// SpannerStore implements the subscription store using Cloud Spanner
type SpannerStore struct {
	client *spanner.Client
}

// NewSpannerStore creates a new Spanner-backed subscription store
func NewSpannerStore(client *spanner.Client) *SpannerStore {
	return &SpannerStore{client: client}
}

// Upsert writes the record inside a read-write transaction so the version
// check and the write observe the same row.
func (s *SpannerStore) Upsert(ctx context.Context, record *domain.SubscriptionRecord) error {
	_, err := s.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		row, err := txn.ReadRow(ctx, subscriptionTable, spanner.Key{record.UserID()}, []string{"last_event_at", "status"})
		switch {
		case spanner.ErrCode(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			var (
				lastEventAt time.Time
				status      string
			)
			if err := row.Columns(&lastEventAt, &status); err != nil {
				return err
			}
			stored := domain.Version{At: lastEventAt, Status: domain.SubscriptionStatus(status)}
			if record.Version().OlderThan(stored) {
				return domain.ErrStaleEvent
			}
		}
		return txn.BufferWrite([]*spanner.Mutation{Save(record)})
	})
	if errors.Is(err, domain.ErrStaleEvent) {
		return domain.ErrStaleEvent
	}
	return err
}

// Save returns the InsertOrUpdate mutation persisting a record
func Save(record *domain.SubscriptionRecord) *spanner.Mutation {
	snap := record.Snapshot()
	return spanner.InsertOrUpdate(subscriptionTable, subscriptionColumns, []interface{}{
		snap.UserID,
		snap.CustomerID,
		nullString(snap.SubscriptionID),
		string(snap.Status),
		string(snap.Tier),
		nullTime(snap.CurrentPeriodStart),
		nullTime(snap.CurrentPeriodEnd),
		snap.CancelAtPeriodEnd,
		nullString(snap.LastEventID),
		snap.LastEventAt,
		snap.UpdatedAt,
	})
}

// Get retrieves the record of a user
func (s *SpannerStore) Get(ctx context.Context, userID string) (*domain.SubscriptionRecord, error) {
	stmt := spanner.Statement{
		SQL: `
			SELECT user_id, customer_id, subscription_id, status, tier,
			       current_period_start, current_period_end, cancel_at_period_end,
			       last_event_id, last_event_at, updated_at
			FROM subscription_records
			WHERE user_id = @user_id
		`,
		Params: map[string]interface{}{
			"user_id": userID,
		},
	}

	iter := s.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}

	var (
		dbUserID           string
		customerID         string
		subscriptionID     spanner.NullString
		status             string
		tier               string
		currentPeriodStart spanner.NullTime
		currentPeriodEnd   spanner.NullTime
		cancelAtPeriodEnd  bool
		lastEventID        spanner.NullString
		lastEventAt        time.Time
		updatedAt          time.Time
	)

	if err := row.Columns(
		&dbUserID,
		&customerID,
		&subscriptionID,
		&status,
		&tier,
		&currentPeriodStart,
		&currentPeriodEnd,
		&cancelAtPeriodEnd,
		&lastEventID,
		&lastEventAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	return domain.ReconstructFromPersistence(domain.RecordSnapshot{
		UserID:             dbUserID,
		CustomerID:         customerID,
		SubscriptionID:     subscriptionID.StringVal,
		Status:             domain.ParseStatus(status),
		Tier:               domain.ParseTier(tier),
		CurrentPeriodStart: currentPeriodStart.Time,
		CurrentPeriodEnd:   currentPeriodEnd.Time,
		CancelAtPeriodEnd:  cancelAtPeriodEnd,
		LastEventID:        lastEventID.StringVal,
		LastEventAt:        lastEventAt,
		UpdatedAt:          updatedAt,
	}), nil
}

func nullString(v string) spanner.NullString {
	return spanner.NullString{StringVal: v, Valid: v != ""}
}

func nullTime(v time.Time) spanner.NullTime {
	return spanner.NullTime{Time: v, Valid: !v.IsZero()}
}
