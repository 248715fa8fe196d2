package domain

import (
	"context"
	"time"

	"soulcare/internal/models"
)

// AvailabilityStore is the spreadsheet-backed slot store. Snapshot
// returns a fresh read of every row; callers never cache it across
// turns. CommitBooking is a conditional write: it must re-check the
// slot is still open and flip it to Booked together with the holder's
// name and email, returning store.ErrSlotTaken when it lost the race.
type AvailabilityStore interface {
	Snapshot(ctx context.Context) ([]models.Slot, error)
	CommitBooking(ctx context.Context, date, timeSlot, name, email string) error
}

// Extractor is the language-model boundary. Extract returns the
// normalized value and found=false when the model answered "Not found";
// a false, nil return is not an error.
type Extractor interface {
	Extract(ctx context.Context, text, field string) (value string, found bool, err error)
	Chat(ctx context.Context, history []models.ChatMessage) (string, error)
	EmailCopy(ctx context.Context, name, date, timeSlot string) (subject, body string, err error)
}

// Notifier delivers the booking confirmation with its calendar
// attachment. A delivery failure must come back as an error, never a
// panic, so the committed booking survives it.
type Notifier interface {
	SendConfirmation(ctx context.Context, c models.Confirmation) error
}

// RateLimiter answers whether a client may make another request within
// the window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EventPublisher fans out booking lifecycle events in-process.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
