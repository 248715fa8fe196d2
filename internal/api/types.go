package api

import "soulcare/internal/models"

const (
	statusAppointmentIntent = "appointment_intent"
	statusNormalChat        = "normal_chat"
	statusInProgress        = "in_progress"
	statusComplete          = "complete"
	statusSuccess           = "success"
	statusError             = "error"
)

type sendMessageRequest struct {
	Message             string               `json:"message"`
	ConversationHistory []models.ChatMessage `json:"conversation_history"`
}

type sendMessageResponse struct {
	Status              string               `json:"status"`
	Reply               string               `json:"reply"`
	ConversationHistory []models.ChatMessage `json:"conversation_history"`
}

type appointmentStepRequest struct {
	Step                string                 `json:"step"`
	UserInput           string                 `json:"user_input"`
	AppointmentInfo     models.AppointmentInfo `json:"appointment_info"`
	ConversationHistory []models.ChatMessage   `json:"conversation_history"`
}

type appointmentStepResponse struct {
	Status              string                 `json:"status"`
	Reply               string                 `json:"reply"`
	NextStep            string                 `json:"next_step,omitempty"`
	AppointmentInfo     models.AppointmentInfo `json:"appointment_info"`
	ConversationHistory []models.ChatMessage   `json:"conversation_history"`
}

type availableSlotsResponse struct {
	Status         string              `json:"status"`
	AvailableSlots map[string][]string `json:"available_slots"`
}

type availableDatesResponse struct {
	Status         string   `json:"status"`
	AvailableDates []string `json:"available_dates"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
