package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

// AppointmentAPI is the slice of the remote client the schedule panel
// needs.
type AppointmentAPI interface {
	ListAppointments(ctx context.Context, consultantID string) ([]domain.Appointment, error)
}

// AppointmentHandler serves the consultant's schedule panel.
type AppointmentHandler struct {
	api          AppointmentAPI
	consultantID string
	logger       *zap.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler instance
func NewAppointmentHandler(api AppointmentAPI, consultantID string, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{api: api, consultantID: consultantID, logger: logger}
}

// List returns the consultant's appointments.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.api.ListAppointments(r.Context(), h.consultantID)
	if err != nil {
		respondRemoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, appointments)
}
