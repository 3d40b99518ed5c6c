package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sqldriver "github.com/go-sql-driver/mysql"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	mysqlMaxRetries = 5
	mysqlRetryDelay = 5 * time.Second
)

var (
	_ contracts.SubscriptionStore = (*GormStore)(nil)
	_ contracts.ProcessedEventLog = (*GormEventLog)(nil)
)

// subscriptionRecordModel is the MySQL row of a subscription record
type subscriptionRecordModel struct {
	UserID             string     `gorm:"primaryKey;type:varchar(128)"`
	CustomerID         string     `gorm:"type:varchar(255);not null;index"`
	SubscriptionID     *string    `gorm:"type:varchar(255);index"`
	Status             string     `gorm:"type:varchar(32);not null"`
	Tier               string     `gorm:"type:varchar(32);not null"`
	CurrentPeriodStart *time.Time `gorm:"type:timestamp null"`
	CurrentPeriodEnd   *time.Time `gorm:"type:timestamp null"`
	CancelAtPeriodEnd  bool       `gorm:"not null;default:false"`
	LastEventID        string     `gorm:"type:varchar(255)"`
	LastEventAt        time.Time  `gorm:"type:timestamp(6);not null"`
	UpdatedAt          time.Time  `gorm:"type:timestamp(6);not null"`
}

func (subscriptionRecordModel) TableName() string {
	return subscriptionTable
}

// processedEventModel is one handled webhook event id
type processedEventModel struct {
	EventID     string    `gorm:"primaryKey;type:varchar(255)"`
	ProcessedAt time.Time `gorm:"type:timestamp(6);not null"`
}

func (processedEventModel) TableName() string {
	return processedEventTable
}

// GormStore implements the subscription store on MySQL through GORM
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// OpenMySQL connects with retries and migrates the subscription schema
func OpenMySQL(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	dsn, err := normalizeMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	for i := 0; i < mysqlMaxRetries; i++ {
		db, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{})
		if err == nil {
			if err = db.AutoMigrate(&subscriptionRecordModel{}, &processedEventModel{}); err != nil {
				return nil, fmt.Errorf("migrate schema: %w", err)
			}
			return db, nil
		}

		logger.Warn("mysql connection failed", "attempt", i+1, "max_attempts", mysqlMaxRetries, "error", err)
		if i < mysqlMaxRetries-1 {
			time.Sleep(mysqlRetryDelay)
		}
	}
	return nil, fmt.Errorf("connect mysql: %w", err)
}

// normalizeMySQLDSN makes the driver scan TIMESTAMP columns into time.Time,
// read and written in UTC
func normalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := sqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

func (s *GormStore) Get(ctx context.Context, userID string) (*domain.SubscriptionRecord, error) {
	var m subscriptionRecordModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return domain.ReconstructFromPersistence(fromModel(m)), nil
}

func (s *GormStore) Upsert(ctx context.Context, record *domain.SubscriptionRecord) error {
	m := toModel(record.Snapshot())
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored subscriptionRecordModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", m.UserID).
			Take(&stored).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return err
		case record.Version().OlderThan(domain.Version{At: stored.LastEventAt, Status: domain.SubscriptionStatus(stored.Status)}):
			return domain.ErrStaleEvent
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).Create(&m).Error
	})
}

// GormEventLog records processed event ids in MySQL
type GormEventLog struct {
	db *gorm.DB
}

func NewGormEventLog(db *gorm.DB) *GormEventLog {
	return &GormEventLog{db: db}
}

func (l *GormEventLog) Seen(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&processedEventModel{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}

func (l *GormEventLog) Record(ctx context.Context, eventID string) error {
	return l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&processedEventModel{EventID: eventID, ProcessedAt: time.Now().UTC()}).Error
}

func toModel(s domain.RecordSnapshot) subscriptionRecordModel {
	m := subscriptionRecordModel{
		UserID:            s.UserID,
		CustomerID:        s.CustomerID,
		Status:            string(s.Status),
		Tier:              string(s.Tier),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		LastEventID:       s.LastEventID,
		LastEventAt:       s.LastEventAt,
		UpdatedAt:         s.UpdatedAt,
	}
	if s.SubscriptionID != "" {
		id := s.SubscriptionID
		m.SubscriptionID = &id
	}
	if !s.CurrentPeriodStart.IsZero() {
		t := s.CurrentPeriodStart
		m.CurrentPeriodStart = &t
	}
	if !s.CurrentPeriodEnd.IsZero() {
		t := s.CurrentPeriodEnd
		m.CurrentPeriodEnd = &t
	}
	return m
}

func fromModel(m subscriptionRecordModel) domain.RecordSnapshot {
	s := domain.RecordSnapshot{
		UserID:            m.UserID,
		CustomerID:        m.CustomerID,
		Status:            domain.ParseStatus(m.Status),
		Tier:              domain.ParseTier(m.Tier),
		CancelAtPeriodEnd: m.CancelAtPeriodEnd,
		LastEventID:       m.LastEventID,
		LastEventAt:       m.LastEventAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.SubscriptionID != nil {
		s.SubscriptionID = *m.SubscriptionID
	}
	if m.CurrentPeriodStart != nil {
		s.CurrentPeriodStart = *m.CurrentPeriodStart
	}
	if m.CurrentPeriodEnd != nil {
		s.CurrentPeriodEnd = *m.CurrentPeriodEnd
	}
	return s
}
