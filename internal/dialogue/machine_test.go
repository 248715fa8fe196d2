package dialogue

import (
	"context"
	"errors"
	"testing"

	"soulcare/internal/models"
	"soulcare/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, text, field string) (string, bool, error) {
	args := m.Called(ctx, text, field)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockExtractor) Chat(ctx context.Context, history []models.ChatMessage) (string, error) {
	args := m.Called(ctx, history)
	return args.String(0), args.Error(1)
}

func (m *mockExtractor) EmailCopy(ctx context.Context, name, date, timeSlot string) (string, string, error) {
	args := m.Called(ctx, name, date, timeSlot)
	return args.String(0), args.String(1), args.Error(2)
}

type stubNotifier struct {
	err  error
	sent []models.Confirmation
}

func (n *stubNotifier) SendConfirmation(ctx context.Context, c models.Confirmation) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, c)
	return nil
}

// racingStore lists the slot as open but always loses the commit race.
type racingStore struct {
	slots []models.Slot
}

func (r *racingStore) Snapshot(ctx context.Context) ([]models.Slot, error) {
	return r.slots, nil
}

func (r *racingStore) CommitBooking(ctx context.Context, date, timeSlot, name, email string) error {
	return store.ErrSlotTaken
}

// brokenStore simulates an unreachable backend on writes.
type brokenStore struct {
	slots []models.Slot
}

func (b *brokenStore) Snapshot(ctx context.Context) ([]models.Slot, error) {
	return b.slots, nil
}

func (b *brokenStore) CommitBooking(ctx context.Context, date, timeSlot, name, email string) error {
	return errors.New("write failed")
}

func openSlots() []models.Slot {
	return []models.Slot{
		{Date: "2025-06-01", TimeSlot: "10:00 AM - 11:00 AM", Status: models.StatusOpen},
		{Date: "2025-06-01", TimeSlot: "2:00 PM - 3:00 PM", Status: models.StatusOpen},
		{Date: "2025-06-02", TimeSlot: "10:00 AM - 11:00 AM", Status: models.StatusOpen},
	}
}

func TestMachineFullFlow(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore(openSlots())
	extractor := new(mockExtractor)
	notifier := &stubNotifier{}
	machine := NewMachine(memStore, extractor, notifier, nil, nil)

	extractor.On("Extract", mock.Anything, "My name is Jane Doe", "name").Return("Jane Doe", true, nil)
	extractor.On("Extract", mock.Anything, "jane@example.com", "email").Return("jane@example.com", true, nil)
	extractor.On("Extract", mock.Anything, "June 1st", "date").Return("2025-06-01", true, nil)
	extractor.On("Extract", mock.Anything, "10 to 11 am", "time").Return("10:00 AM - 11:00 AM", true, nil)

	info := models.AppointmentInfo{}

	result, err := machine.Advance(ctx, models.StepName, "My name is Jane Doe", info)
	require.NoError(t, err)
	assert.Equal(t, models.StepEmail, result.NextStep)
	assert.Equal(t, "Jane Doe", result.Info.Name)

	result, err = machine.Advance(ctx, models.StepEmail, "jane@example.com", result.Info)
	require.NoError(t, err)
	assert.Equal(t, models.StepDate, result.NextStep)
	assert.Equal(t, "jane@example.com", result.Info.Email)

	result, err = machine.Advance(ctx, models.StepDate, "June 1st", result.Info)
	require.NoError(t, err)
	assert.Equal(t, models.StepTime, result.NextStep)
	assert.Equal(t, "2025-06-01", result.Info.Date)

	result, err = machine.Advance(ctx, models.StepTime, "10 to 11 am", result.Info)
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.Equal(t, models.StepComplete, result.NextStep)

	// The slot is booked with the collected holder details.
	slots, err := memStore.Snapshot(ctx)
	require.NoError(t, err)
	for _, s := range slots {
		if s.Date == "2025-06-01" && s.TimeSlot == "10:00 AM - 11:00 AM" {
			assert.Equal(t, models.StatusBooked, s.Status)
			assert.Equal(t, "Jane Doe", s.Name)
			assert.Equal(t, "jane@example.com", s.Email)
		}
	}

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "jane@example.com", notifier.sent[0].Email)
}

func TestMachineRepromptsKeepStateUnchanged(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore(openSlots())
	extractor := new(mockExtractor)
	machine := NewMachine(memStore, extractor, &stubNotifier{}, nil, nil)

	t.Run("name not found", func(t *testing.T) {
		extractor.On("Extract", mock.Anything, "hm", "name").Return("", false, nil).Once()

		result, err := machine.Advance(ctx, models.StepName, "hm", models.AppointmentInfo{})
		require.NoError(t, err)
		assert.Equal(t, models.StepName, result.NextStep)
		assert.Empty(t, result.Info.Name)
	})

	t.Run("invalid email syntax", func(t *testing.T) {
		extractor.On("Extract", mock.Anything, "a@b", "email").Return("a@b", true, nil).Once()

		info := models.AppointmentInfo{Name: "Jane Doe"}
		result, err := machine.Advance(ctx, models.StepEmail, "a@b", info)
		require.NoError(t, err)
		assert.Equal(t, models.StepEmail, result.NextStep)
		assert.Empty(t, result.Info.Email)
		assert.Equal(t, "Jane Doe", result.Info.Name)
	})

	t.Run("unparseable date leaves info unchanged", func(t *testing.T) {
		extractor.On("Extract", mock.Anything, "gibberish", "date").Return("", false, nil).Once()

		info := models.AppointmentInfo{Name: "Jane Doe", Email: "jane@example.com"}
		result, err := machine.Advance(ctx, models.StepDate, "gibberish", info)
		require.NoError(t, err)
		assert.Equal(t, models.StepDate, result.NextStep)
		assert.Equal(t, info, result.Info)
	})

	t.Run("unavailable date", func(t *testing.T) {
		extractor.On("Extract", mock.Anything, "December 25", "date").Return("2025-12-25", true, nil).Once()

		info := models.AppointmentInfo{Name: "Jane Doe", Email: "jane@example.com"}
		result, err := machine.Advance(ctx, models.StepDate, "December 25", info)
		require.NoError(t, err)
		assert.Equal(t, models.StepDate, result.NextStep)
		assert.Empty(t, result.Info.Date)
	})

	t.Run("unknown time slot", func(t *testing.T) {
		extractor.On("Extract", mock.Anything, "midnight", "time").Return("11:00 PM - 12:00 AM", true, nil).Once()

		info := models.AppointmentInfo{Name: "Jane Doe", Email: "jane@example.com", Date: "2025-06-01"}
		result, err := machine.Advance(ctx, models.StepTime, "midnight", info)
		require.NoError(t, err)
		assert.Equal(t, models.StepTime, result.NextStep)
	})
}

func TestMachineLostRaceRepromptsAtTime(t *testing.T) {
	ctx := context.Background()
	extractor := new(mockExtractor)
	extractor.On("Extract", mock.Anything, mock.Anything, "time").Return("10:00 AM - 11:00 AM", true, nil)

	notifier := &stubNotifier{}
	machine := NewMachine(&racingStore{slots: openSlots()}, extractor, notifier, nil, nil)

	info := models.AppointmentInfo{Name: "Jane Doe", Email: "jane@example.com", Date: "2025-06-01"}
	result, err := machine.Advance(ctx, models.StepTime, "10 to 11 am", info)
	require.NoError(t, err)
	assert.False(t, result.Complete)
	assert.Equal(t, models.StepTime, result.NextStep)
	assert.Contains(t, result.Reply, "no longer available")
	assert.Empty(t, notifier.sent)
}

func TestMachineStoreWriteFailureDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	extractor := new(mockExtractor)
	extractor.On("Extract", mock.Anything, mock.Anything, "time").Return("10:00 AM - 11:00 AM", true, nil)

	machine := NewMachine(&brokenStore{slots: openSlots()}, extractor, &stubNotifier{}, nil, nil)

	info := models.AppointmentInfo{Name: "Jane Doe", Email: "jane@example.com", Date: "2025-06-01"}
	result, err := machine.Advance(ctx, models.StepTime, "10 to 11 am", info)
	require.NoError(t, err)
	assert.False(t, result.Complete)
	assert.Equal(t, models.StepTime, result.NextStep)
	assert.Contains(t, result.Reply, "trouble booking")
}

func TestMachineNotificationFailureStillCompletes(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore(openSlots())
	extractor := new(mockExtractor)
	extractor.On("Extract", mock.Anything, mock.Anything, "time").Return("10:00 AM - 11:00 AM", true, nil)

	notifier := &stubNotifier{err: errors.New("smtp down")}
	machine := NewMachine(memStore, extractor, notifier, nil, nil)

	info := models.AppointmentInfo{Name: "Jane Doe", Email: "jane@example.com", Date: "2025-06-01"}
	result, err := machine.Advance(ctx, models.StepTime, "10 to 11 am", info)
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.Contains(t, result.Reply, "issue sending the confirmation email")

	// The booking itself stands.
	slots, err := memStore.Snapshot(ctx)
	require.NoError(t, err)
	booked := false
	for _, s := range slots {
		if s.Date == "2025-06-01" && s.TimeSlot == "10:00 AM - 11:00 AM" {
			booked = s.Status == models.StatusBooked
		}
	}
	assert.True(t, booked)
}

func TestMachineUpstreamErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	extractor := new(mockExtractor)
	extractor.On("Extract", mock.Anything, mock.Anything, "name").Return("", false, errors.New("llm down"))

	machine := NewMachine(store.NewMemoryStore(nil), extractor, &stubNotifier{}, nil, nil)

	_, err := machine.Advance(ctx, models.StepName, "hello", models.AppointmentInfo{})
	assert.Error(t, err)
}

func TestMachineUnknownStep(t *testing.T) {
	machine := NewMachine(store.NewMemoryStore(nil), new(mockExtractor), &stubNotifier{}, nil, nil)

	_, err := machine.Advance(context.Background(), "banana", "x", models.AppointmentInfo{})
	assert.ErrorIs(t, err, ErrUnknownStep)
}
