package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/domain"
	"github.com/azizhamoud35/namatclinic3/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppointmentHandler holds the appointment service dependency.
type AppointmentHandler struct {
	appointmentService service.AppointmentService
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(appointmentService service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointmentService: appointmentService}
}

// --- DTOs ---

// RecordOutcomeRequest lets a coach close out a session.
type RecordOutcomeRequest struct {
	Status string `json:"status" binding:"required,oneof=completed missed"`
	Notes  string `json:"notes"`
}

// AppointmentResponse is the DTO for returning an appointment.
type AppointmentResponse struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	CoachID    string    `json:"coachId"`
	Date       time.Time `json:"date"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// MapAppointmentToResponse converts a domain.Appointment to its DTO.
func MapAppointmentToResponse(a *domain.Appointment) AppointmentResponse {
	if a == nil {
		return AppointmentResponse{}
	}
	return AppointmentResponse{
		ID:         a.ID.Hex(),
		CustomerID: a.CustomerID.Hex(),
		CoachID:    a.CoachID.Hex(),
		Date:       a.Date,
		Status:     string(a.Status),
		Notes:      a.Notes,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// MapAppointmentsToResponse converts a slice of appointments to DTOs.
func MapAppointmentsToResponse(appointments []domain.Appointment) []AppointmentResponse {
	responses := make([]AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = MapAppointmentToResponse(&appointments[i])
	}
	return responses
}

// --- Handler Methods ---

// ListUpcoming handles GET /admin/appointments.
func (h *AppointmentHandler) ListUpcoming(c *gin.Context) {
	appointments, err := h.appointmentService.GetUpcoming(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list appointments")
		return
	}
	c.JSON(http.StatusOK, MapAppointmentsToResponse(appointments))
}

// ListOwnAsCoach handles GET /coach/appointments.
func (h *AppointmentHandler) ListOwnAsCoach(c *gin.Context) {
	coachID, ok := objectIDFromContext(c)
	if !ok {
		return
	}

	appointments, err := h.appointmentService.GetCoachAppointments(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list appointments")
		return
	}
	c.JSON(http.StatusOK, MapAppointmentsToResponse(appointments))
}

// ListOwnAsCustomer handles GET /customer/appointments.
func (h *AppointmentHandler) ListOwnAsCustomer(c *gin.Context) {
	customerID, ok := objectIDFromContext(c)
	if !ok {
		return
	}

	appointments, err := h.appointmentService.GetCustomerAppointments(c.Request.Context(), customerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list appointments")
		return
	}
	c.JSON(http.StatusOK, MapAppointmentsToResponse(appointments))
}

// RecordOutcome handles PATCH /coach/appointments/:id.
func (h *AppointmentHandler) RecordOutcome(c *gin.Context) {
	coachID, ok := objectIDFromContext(c)
	if !ok {
		return
	}

	appointmentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid appointment ID")
		return
	}

	var req RecordOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	appointment, err := h.appointmentService.RecordOutcome(c.Request.Context(), coachID, appointmentID, domain.AppointmentStatus(req.Status), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAppointmentNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidTransition):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update appointment")
		}
		return
	}

	c.JSON(http.StatusOK, MapAppointmentToResponse(appointment))
}
