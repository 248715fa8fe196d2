package store

import "errors"

var (
	// ErrSlotNotFound means no row exists for the (date, time slot) pair.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrSlotTaken means the conditional write lost the race: the slot
	// was booked between the availability listing and the commit.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrUnavailable wraps transport failures talking to the backend.
	ErrUnavailable = errors.New("availability store unavailable")
)
