package repo

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	sqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
	"gorm.io/gorm"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	testCases := []struct {
		name string
		dsn  string
	}{
		{name: "without options", dsn: "paywall:secret@tcp(localhost:3306)/paywall"},
		{name: "parseTime disabled", dsn: "paywall:secret@tcp(localhost:3306)/paywall?parseTime=false&loc=Local"},
		{name: "unrelated options kept", dsn: "paywall:secret@tcp(localhost:3306)/paywall?charset=utf8mb4"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeMySQLDSN(tc.dsn)
			require.NoError(t, err)

			cfg, err := sqldriver.ParseDSN(got)
			require.NoError(t, err)
			assert.True(t, cfg.ParseTime)
			assert.Equal(t, time.UTC, cfg.Loc)
			assert.Equal(t, "paywall", cfg.DBName)
			assert.Equal(t, "localhost:3306", cfg.Addr)
		})
	}
}

func TestNormalizeMySQLDSN_Invalid(t *testing.T) {
	_, err := normalizeMySQLDSN("not a dsn")

	assert.Error(t, err)
}

func TestToModel_NullableColumns(t *testing.T) {
	m := toModel(domain.RecordSnapshot{
		UserID:     "uid-1",
		CustomerID: "cus_1",
		Status:     domain.StatusCanceled,
		Tier:       domain.TierPremium,
	})

	assert.Nil(t, m.SubscriptionID)
	assert.Nil(t, m.CurrentPeriodStart)
	assert.Nil(t, m.CurrentPeriodEnd)
	assert.Equal(t, "canceled", m.Status)
	assert.Equal(t, "premium", m.Tier)
}

func TestFromModel_RestoresSnapshot(t *testing.T) {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	subID := "sub_1"

	snap := fromModel(subscriptionRecordModel{
		UserID:             "uid-1",
		CustomerID:         "cus_1",
		SubscriptionID:     &subID,
		Status:             "active",
		Tier:               "standard",
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
		LastEventID:        "evt_1",
		LastEventAt:        start,
	})

	assert.Equal(t, "sub_1", snap.SubscriptionID)
	assert.Equal(t, domain.StatusActive, snap.Status)
	assert.Equal(t, domain.TierStandard, snap.Tier)
	assert.Equal(t, start, snap.CurrentPeriodStart)
	assert.Equal(t, end, snap.CurrentPeriodEnd)
}

func openTestMySQL(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}
	db, err := OpenMySQL(dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return db
}

func TestGormStore_UpsertAndStaleGuard(t *testing.T) {
	db := openTestMySQL(t)
	store := NewGormStore(db)
	ctx := context.Background()
	userID := "uid-" + uuid.NewString()
	t.Cleanup(func() { db.Where("user_id = ?", userID).Delete(&subscriptionRecordModel{}) })

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	record := func(status domain.SubscriptionStatus, eventAt time.Time) *domain.SubscriptionRecord {
		return domain.ReconstructFromPersistence(domain.RecordSnapshot{
			UserID:      userID,
			CustomerID:  "cus_1",
			Status:      status,
			Tier:        domain.TierBasic,
			LastEventID: "evt_" + string(status),
			LastEventAt: eventAt,
			UpdatedAt:   eventAt,
		})
	}

	_, err := store.Get(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)

	require.NoError(t, store.Upsert(ctx, record(domain.StatusCanceled, at.Add(time.Hour))))
	assert.ErrorIs(t, store.Upsert(ctx, record(domain.StatusActive, at)), domain.ErrStaleEvent)
	assert.ErrorIs(t, store.Upsert(ctx, record(domain.StatusActive, at.Add(time.Hour))), domain.ErrStaleEvent)

	got, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, got.Status())
	assert.Empty(t, got.SubscriptionID())
}

func TestGormEventLog_SeenAfterRecord(t *testing.T) {
	db := openTestMySQL(t)
	log := NewGormEventLog(db)
	ctx := context.Background()
	eventID := "evt_" + uuid.NewString()
	t.Cleanup(func() { db.Where("event_id = ?", eventID).Delete(&processedEventModel{}) })

	before, err := log.Seen(ctx, eventID)
	require.NoError(t, err)
	require.NoError(t, log.Record(ctx, eventID))
	require.NoError(t, log.Record(ctx, eventID))
	after, err := log.Seen(ctx, eventID)
	require.NoError(t, err)

	assert.False(t, before)
	assert.True(t, after)
}
