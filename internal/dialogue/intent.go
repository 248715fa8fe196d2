package dialogue

import "strings"

// intentKeywords trigger the booking flow. Matching is a plain
// lowercase substring check, deliberately dumber than the LLM: intent
// detection must work even when the model is down.
var intentKeywords = []string{"appointment", "book", "schedule", "meeting", "session"}

// IsAppointmentRequest reports whether the text asks to book a session.
func IsAppointmentRequest(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range intentKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
