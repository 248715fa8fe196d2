package models

const (
	StatusOpen   = "Open"
	StatusBooked = "Booked"
)

const (
	StepName     = "name"
	StepEmail    = "email"
	StepDate     = "date"
	StepTime     = "time"
	StepComplete = "complete"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const (
	// DateLayout is the canonical date format used in the sheet.
	DateLayout = "2006-01-02"

	// ClockLayout parses one clock time of a slot label.
	ClockLayout = "3:04 PM"
)

const (
	// DefaultLLMTimeoutSeconds bounds a single model call.
	DefaultLLMTimeoutSeconds = 30

	// DefaultStoreTimeoutSeconds bounds a single sheet round-trip.
	DefaultStoreTimeoutSeconds = 15

	// DefaultSMTPTimeoutSeconds bounds sending one email.
	DefaultSMTPTimeoutSeconds = 20

	// RateLimitRequests is the per-client request budget per window.
	RateLimitRequests = 30

	// RateLimitWindowSeconds is the rate limit window.
	RateLimitWindowSeconds = 60
)
