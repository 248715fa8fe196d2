package api

import (
	"encoding/json"
	"net/http"

	"soulcare/internal/availability"
	"soulcare/internal/dialogue"
	"soulcare/internal/models"
)

func (s *HTTPServer) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	history := append(req.ConversationHistory, models.ChatMessage{
		Role:    models.RoleUser,
		Content: req.Message,
	})

	if s.machine != nil && dialogue.IsAppointmentRequest(req.Message) {
		writeJSON(w, http.StatusOK, sendMessageResponse{
			Status:              statusAppointmentIntent,
			Reply:               s.machine.IntroReply(),
			ConversationHistory: history,
		})
		return
	}

	reply, err := s.extractor.Chat(r.Context(), history)
	if err != nil {
		s.log.Error().Err(err).Msg("chat completion failed")
		writeError(w, http.StatusBadGateway, "assistant is unavailable right now")
		return
	}

	history = append(history, models.ChatMessage{
		Role:    models.RoleAssistant,
		Content: reply,
	})

	writeJSON(w, http.StatusOK, sendMessageResponse{
		Status:              statusNormalChat,
		Reply:               reply,
		ConversationHistory: history,
	})
}

func (s *HTTPServer) handleAppointmentStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req appointmentStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	history := append(req.ConversationHistory, models.ChatMessage{
		Role:    models.RoleUser,
		Content: req.UserInput,
	})

	result, err := s.machine.Advance(r.Context(), req.Step, req.UserInput, req.AppointmentInfo)
	if err != nil {
		s.log.Error().Err(err).Str("step", req.Step).Msg("dialogue turn failed")
		writeError(w, http.StatusBadGateway, "booking assistant is unavailable right now, please try again")
		return
	}

	history = append(history, models.ChatMessage{
		Role:    models.RoleAssistant,
		Content: result.Reply,
	})

	resp := appointmentStepResponse{
		Status:              statusInProgress,
		Reply:               result.Reply,
		NextStep:            result.NextStep,
		AppointmentInfo:     result.Info,
		ConversationHistory: history,
	}
	if result.Complete {
		resp.Status = statusComplete
		resp.NextStep = ""
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleAvailableSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	slots, err := s.store.Snapshot(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("availability snapshot failed")
		writeError(w, http.StatusBadGateway, "availability is unreachable right now")
		return
	}

	writeJSON(w, http.StatusOK, availableSlotsResponse{
		Status:         statusSuccess,
		AvailableSlots: availability.SlotsByDate(slots),
	})
}

func (s *HTTPServer) handleAvailableDates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	slots, err := s.store.Snapshot(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("availability snapshot failed")
		writeError(w, http.StatusBadGateway, "availability is unreachable right now")
		return
	}

	writeJSON(w, http.StatusOK, availableDatesResponse{
		Status:         statusSuccess,
		AvailableDates: availability.Dates(slots),
	})
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
