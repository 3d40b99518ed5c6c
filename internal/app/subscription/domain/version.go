package domain

import "time"

// Version orders writes to one subscription record. Processor event times
// have one-second precision, so a cancellation and another event from the
// same second tie on At; the cancellation then wins.
type Version struct {
	At     time.Time
	Status SubscriptionStatus
}

// OlderThan reports whether a write carrying v must yield to stored
func (v Version) OlderThan(stored Version) bool {
	switch {
	case v.At.Before(stored.At):
		return true
	case v.At.Equal(stored.At):
		return stored.Status == StatusCanceled && v.Status != StatusCanceled
	default:
		return false
	}
}

// Version returns the ordering key of a persisted record
func (s RecordSnapshot) Version() Version {
	return Version{At: s.LastEventAt, Status: s.Status}
}
