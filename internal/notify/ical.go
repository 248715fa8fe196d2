package notify

import (
	"fmt"
	"strings"
	"time"

	"soulcare/internal/models"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

// ParseTimeSlot resolves a "HH:MM AM/PM - HH:MM AM/PM" label against a
// YYYY-MM-DD date into concrete start and end times.
func ParseTimeSlot(date, timeSlot string) (time.Time, time.Time, error) {
	day, err := time.Parse(models.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}

	parts := strings.Split(timeSlot, " - ")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("malformed time slot label %q", timeSlot)
	}

	start, err := time.Parse(models.ClockLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start time %q: %w", parts[0], err)
	}
	end, err := time.Parse(models.ClockLayout, strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse end time %q: %w", parts[1], err)
	}

	combine := func(clock time.Time) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local)
	}
	return combine(start), combine(end), nil
}

// InviteOptions carries the organizer identity stamped into the event.
type InviteOptions struct {
	ProductName    string
	OrganizerName  string
	OrganizerEmail string
	Location       string
}

// BuildInvite renders a one-event iCalendar object for the booking.
// Each call mints a fresh UID.
func BuildInvite(c models.Confirmation, opts InviteOptions) ([]byte, error) {
	start, end, err := ParseTimeSlot(c.Date, c.TimeSlot)
	if err != nil {
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetProductId(fmt.Sprintf("-//%s//soulcare//EN", opts.ProductName))
	cal.SetMethod(ics.MethodRequest)

	event := cal.AddEvent(uuid.NewString())
	event.SetSummary(fmt.Sprintf("Therapy Session with %s", c.Name))
	event.SetDescription(c.Description)
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetDtStampTime(time.Now())
	if opts.Location != "" {
		event.SetLocation(opts.Location)
	}
	if opts.OrganizerEmail != "" {
		event.SetOrganizer("MAILTO:"+opts.OrganizerEmail, ics.WithCN(opts.OrganizerName))
	}

	return []byte(cal.Serialize()), nil
}
