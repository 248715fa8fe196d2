package dialogue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"soulcare/internal/availability"
	"soulcare/internal/domain"
	"soulcare/internal/events"
	"soulcare/internal/models"
	"soulcare/internal/store"

	"github.com/rs/zerolog"
)

// Step replies. The failure variants re-prompt without changing state.
const (
	replyIntro          = "I'd be happy to help you schedule an appointment. Let's start with your name. What's your full name?"
	replyAskEmail       = "Thanks, %s! Now, could you please provide your email address so I can send you a confirmation?"
	replyNameMissed     = "I didn't catch your name. Could you please tell me your full name?"
	replyAskDate        = "Great! Now, let's pick a date for your appointment. Please select one of the available dates."
	replyBadEmail       = "That doesn't seem to be a valid email address. Please provide a valid email so I can send you appointment details."
	replyAskTime        = "Great choice! Please select a time slot for your appointment on %s."
	replyDateTaken      = "I'm sorry, but that date isn't available. Please choose from one of the available dates."
	replyDateMissed     = "I couldn't understand that date format. Please select one of the dates from the options shown."
	replyTimeUnknown    = "That time slot doesn't appear to be available. Please select one of the available time slots."
	replyTimeMissed     = "I couldn't understand that time format. Please select one of the available time slots."
	replySlotLost       = "I'm sorry, but that time slot is no longer available. Please choose another time slot."
	replyStoreDown      = "I'm having trouble booking your appointment in our system. Please try again later or contact our office directly."
	replyBooked         = "Great! I've booked your appointment for %s at %s. A confirmation email with calendar details has been sent to %s. Is there anything else I can help you with today?"
	replyBookedNoEmail  = "Your appointment is confirmed for %s at %s, but there was an issue sending the confirmation email. Please keep a note of your appointment details. Is there anything else I can help you with?"
)

// ErrUnknownStep is returned for a step name outside the dialogue.
var ErrUnknownStep = errors.New("unknown dialogue step")

// StepResult is one turn's outcome. NextStep equals the input step when
// the turn failed and the user is re-prompted.
type StepResult struct {
	Complete bool
	Reply    string
	NextStep string
	Info     models.AppointmentInfo
}

// Machine drives the slot-filling dialogue. It holds no session state:
// the caller passes the current step and collected info each turn and
// carries the result back to the client.
type Machine struct {
	store     domain.AvailabilityStore
	extractor domain.Extractor
	notifier  domain.Notifier
	eventBus  domain.EventPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewMachine(st domain.AvailabilityStore, ex domain.Extractor, n domain.Notifier, bus domain.EventPublisher, logger *zerolog.Logger) *Machine {
	m := &Machine{
		store:     st,
		extractor: ex,
		notifier:  n,
		eventBus:  bus,
		now:       time.Now,
	}
	if logger != nil {
		m.logger = logger.With().Str("component", "dialogue").Logger()
	}
	return m
}

// IntroReply opens the booking flow once intent is detected.
func (m *Machine) IntroReply() string {
	return replyIntro
}

// Advance runs one dialogue turn. It returns an error only for
// upstream failures (extraction service or store snapshot unreachable);
// every in-dialogue failure comes back as a re-prompting StepResult.
func (m *Machine) Advance(ctx context.Context, step, userInput string, info models.AppointmentInfo) (StepResult, error) {
	switch step {
	case models.StepName:
		return m.stepName(ctx, userInput, info)
	case models.StepEmail:
		return m.stepEmail(ctx, userInput, info)
	case models.StepDate:
		return m.stepDate(ctx, userInput, info)
	case models.StepTime:
		return m.stepTime(ctx, userInput, info)
	default:
		return StepResult{}, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
}

func (m *Machine) stepName(ctx context.Context, userInput string, info models.AppointmentInfo) (StepResult, error) {
	name, found, err := m.extractor.Extract(ctx, userInput, "name")
	if err != nil {
		return StepResult{}, err
	}
	if !found {
		return reprompt(models.StepName, replyNameMissed, info), nil
	}

	info.Name = name
	return StepResult{
		Reply:    fmt.Sprintf(replyAskEmail, name),
		NextStep: models.StepEmail,
		Info:     info,
	}, nil
}

func (m *Machine) stepEmail(ctx context.Context, userInput string, info models.AppointmentInfo) (StepResult, error) {
	email, found, err := m.extractor.Extract(ctx, userInput, "email")
	if err != nil {
		return StepResult{}, err
	}
	if !found || !IsValidEmail(email) {
		return reprompt(models.StepEmail, replyBadEmail, info), nil
	}

	info.Email = email
	return StepResult{
		Reply:    replyAskDate,
		NextStep: models.StepDate,
		Info:     info,
	}, nil
}

func (m *Machine) stepDate(ctx context.Context, userInput string, info models.AppointmentInfo) (StepResult, error) {
	extracted, found, err := m.extractor.Extract(ctx, userInput, "date")
	if err != nil {
		return StepResult{}, err
	}
	if !found {
		return reprompt(models.StepDate, replyDateMissed, info), nil
	}

	date, ok := NormalizeDate(extracted, m.now())
	if !ok {
		return reprompt(models.StepDate, replyDateMissed, info), nil
	}

	slots, err := m.store.Snapshot(ctx)
	if err != nil {
		return StepResult{}, err
	}

	if !contains(availability.Dates(slots), date) {
		return reprompt(models.StepDate, replyDateTaken, info), nil
	}

	info.Date = date
	return StepResult{
		Reply:    fmt.Sprintf(replyAskTime, date),
		NextStep: models.StepTime,
		Info:     info,
	}, nil
}

func (m *Machine) stepTime(ctx context.Context, userInput string, info models.AppointmentInfo) (StepResult, error) {
	label, found, err := m.extractor.Extract(ctx, userInput, "time")
	if err != nil {
		return StepResult{}, err
	}
	if !found {
		return reprompt(models.StepTime, replyTimeMissed, info), nil
	}

	slots, err := m.store.Snapshot(ctx)
	if err != nil {
		return StepResult{}, err
	}

	if !contains(availability.TimeSlots(slots, info.Date), label) {
		return reprompt(models.StepTime, replyTimeUnknown, info), nil
	}

	info.Time = label
	return m.commit(ctx, info)
}

// commit flips the slot to Booked and triggers the confirmation email.
// The store re-checks openness inside CommitBooking; losing that race
// sends the user back to the time step rather than double-booking.
func (m *Machine) commit(ctx context.Context, info models.AppointmentInfo) (StepResult, error) {
	err := m.store.CommitBooking(ctx, info.Date, info.Time, info.Name, info.Email)
	switch {
	case errors.Is(err, store.ErrSlotTaken), errors.Is(err, store.ErrSlotNotFound):
		m.publish(events.EventBookingConflict, info, err.Error())
		return reprompt(models.StepTime, replySlotLost, info), nil
	case err != nil:
		m.logger.Error().Err(err).Str("date", info.Date).Str("time_slot", info.Time).Msg("booking write failed")
		m.publish(events.EventStoreWriteFailed, info, err.Error())
		return reprompt(models.StepTime, replyStoreDown, info), nil
	}

	m.publish(events.EventBookingCommitted, info, "")

	confirmation := models.Confirmation{
		Email:       info.Email,
		Name:        info.Name,
		Date:        info.Date,
		TimeSlot:    info.Time,
		Description: fmt.Sprintf("Therapy appointment booked by %s", info.Name),
	}

	reply := fmt.Sprintf(replyBooked, info.Date, info.Time, info.Email)
	if err := m.notifier.SendConfirmation(ctx, confirmation); err != nil {
		// The booking stands; only the delivery failed, and the user
		// must hear about it.
		m.logger.Warn().Err(err).Str("email", info.Email).Msg("confirmation email failed")
		m.publish(events.EventNotificationFailed, info, err.Error())
		reply = fmt.Sprintf(replyBookedNoEmail, info.Date, info.Time)
	}

	return StepResult{
		Complete: true,
		Reply:    reply,
		NextStep: models.StepComplete,
		Info:     info,
	}, nil
}

func (m *Machine) publish(eventType string, info models.AppointmentInfo, reason string) {
	if m.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		Date:     info.Date,
		TimeSlot: info.Time,
		Name:     info.Name,
		Email:    info.Email,
		Reason:   reason,
	}
	if err := m.eventBus.PublishJSON(eventType, payload); err != nil {
		m.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}

func reprompt(step, reply string, info models.AppointmentInfo) StepResult {
	return StepResult{Reply: reply, NextStep: step, Info: info}
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
