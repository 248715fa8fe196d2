package models

// Slot is one row of the availability sheet. Column order is fixed:
// Date | Time Slot | Status | Name | Email.
type Slot struct {
	Date     string `json:"date"`      // YYYY-MM-DD
	TimeSlot string `json:"time_slot"` // "HH:MM AM/PM - HH:MM AM/PM"
	Status   string `json:"status"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// IsOpen reports whether the slot can still be booked.
func (s Slot) IsOpen() bool {
	return s.Status != StatusBooked
}

// AppointmentInfo is the partially filled booking record carried by the
// client between dialogue turns.
type AppointmentInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Date  string `json:"date,omitempty"`
	Time  string `json:"time,omitempty"`
}

// ChatMessage is a single turn of the client-held conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Confirmation carries everything the notifier needs for one booking.
type Confirmation struct {
	Email       string
	Name        string
	Date        string
	TimeSlot    string
	Description string
}
