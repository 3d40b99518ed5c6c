package repo

import (
	"context"
	"sync"

	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
)

var (
	_ contracts.SubscriptionStore = (*MemoryStore)(nil)
	_ contracts.ProcessedEventLog = (*MemoryEventLog)(nil)
)

// MemoryStore keeps subscription records in process memory. It backs tests
// and the "memory" store driver for local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.RecordSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.RecordSnapshot)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*domain.SubscriptionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.records[userID]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	return domain.ReconstructFromPersistence(snap), nil
}

func (s *MemoryStore) Upsert(_ context.Context, record *domain.SubscriptionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.records[record.UserID()]; ok && record.Version().OlderThan(stored.Version()) {
		return domain.ErrStaleEvent
	}
	s.records[record.UserID()] = record.Snapshot()
	return nil
}

// Len reports the number of stored records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// MemoryEventLog is the in-process ProcessedEventLog
type MemoryEventLog struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{seen: make(map[string]struct{})}
}

func (l *MemoryEventLog) Seen(_ context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.seen[eventID]
	return ok, nil
}

func (l *MemoryEventLog) Record(_ context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seen[eventID] = struct{}{}
	return nil
}
