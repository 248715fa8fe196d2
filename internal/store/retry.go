package store

import (
	"context"

	"soulcare/internal/domain"
	"soulcare/internal/models"
	"soulcare/internal/worker"
)

// RetryingStore retries snapshot reads with backoff. Commits pass
// through untouched: a booking write is not idempotent and a blind
// retry could double-book past the optimistic check.
type RetryingStore struct {
	inner  domain.AvailabilityStore
	policy worker.RetryPolicy
}

func WithRetry(inner domain.AvailabilityStore, policy worker.RetryPolicy) *RetryingStore {
	return &RetryingStore{inner: inner, policy: policy}
}

func (r *RetryingStore) Snapshot(ctx context.Context) ([]models.Slot, error) {
	var slots []models.Slot
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		slots, err = r.inner.Snapshot(ctx)
		return err
	})
	return slots, err
}

func (r *RetryingStore) CommitBooking(ctx context.Context, date, timeSlot, name, email string) error {
	return r.inner.CommitBooking(ctx, date, timeSlot, name, email)
}
