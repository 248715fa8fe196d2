package store

import (
	"context"
	"sync"

	"soulcare/internal/models"
)

// MemoryStore keeps slots in process memory. It backs tests and local
// development; the mutex makes CommitBooking an atomic check-then-write.
type MemoryStore struct {
	mu    sync.Mutex
	slots []models.Slot
}

func NewMemoryStore(slots []models.Slot) *MemoryStore {
	copied := make([]models.Slot, len(slots))
	copy(copied, slots)
	return &MemoryStore{slots: copied}
}

func (m *MemoryStore) Snapshot(ctx context.Context) ([]models.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Slot, len(m.slots))
	copy(out, m.slots)
	return out, nil
}

func (m *MemoryStore) CommitBooking(ctx context.Context, date, timeSlot, name, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.slots {
		if m.slots[i].Date != date || m.slots[i].TimeSlot != timeSlot {
			continue
		}
		if !m.slots[i].IsOpen() {
			return ErrSlotTaken
		}
		m.slots[i].Status = models.StatusBooked
		m.slots[i].Name = name
		m.slots[i].Email = email
		return nil
	}
	return ErrSlotNotFound
}
