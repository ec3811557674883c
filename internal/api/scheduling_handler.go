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

// SchedulingHandler exposes the assignment engine and its controller to
// the admin dashboard.
type SchedulingHandler struct {
	schedulingService service.SchedulingService
	autoScheduler     *service.AutoScheduler
}

// NewSchedulingHandler creates a new SchedulingHandler.
func NewSchedulingHandler(schedulingService service.SchedulingService, autoScheduler *service.AutoScheduler) *SchedulingHandler {
	return &SchedulingHandler{
		schedulingService: schedulingService,
		autoScheduler:     autoScheduler,
	}
}

// --- DTOs ---

// AutoSchedulingRequest toggles the background scheduler.
type AutoSchedulingRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// WorkingHoursRequest carries the four session boundaries as "HH:MM".
type WorkingHoursRequest struct {
	Session1Start string `json:"session1Start" binding:"required"`
	Session1End   string `json:"session1End" binding:"required"`
	Session2Start string `json:"session2Start" binding:"required"`
	Session2End   string `json:"session2End" binding:"required"`
}

// ManualScheduleRequest books one explicit customer/coach/slot triple.
type ManualScheduleRequest struct {
	CustomerID string    `json:"customerId" binding:"required"`
	CoachID    string    `json:"coachId" binding:"required"`
	Date       time.Time `json:"date" binding:"required"`
}

// --- Handler Methods ---

// TriggerScheduling handles POST /admin/scheduling/trigger. Safe to call
// repeatedly; with no new demand or supply it creates nothing.
func (h *SchedulingHandler) TriggerScheduling(c *gin.Context) {
	result, err := h.schedulingService.TriggerScheduling(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			abortWithError(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Scheduling run failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAutoScheduling handles GET /admin/scheduling/auto.
func (h *SchedulingHandler) GetAutoScheduling(c *gin.Context) {
	enabled, err := h.autoScheduler.Enabled(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to read auto-scheduling state")
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": enabled})
}

// SetAutoScheduling handles PUT /admin/scheduling/auto.
func (h *SchedulingHandler) SetAutoScheduling(c *gin.Context) {
	var req AutoSchedulingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.autoScheduler.SetEnabled(c.Request.Context(), *req.Enabled); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to update auto-scheduling state")
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}

// GetWorkingHours handles GET /admin/settings/working-hours.
func (h *SchedulingHandler) GetWorkingHours(c *gin.Context) {
	hours, err := h.schedulingService.GetWorkingHours(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to read working hours")
		return
	}
	c.JSON(http.StatusOK, hours)
}

// SetWorkingHours handles PUT /admin/settings/working-hours. Saving also
// runs a scheduling pass, since new hours can create new supply.
func (h *SchedulingHandler) SetWorkingHours(c *gin.Context) {
	var req WorkingHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	hours := domain.WorkingHours{
		Session1Start: req.Session1Start,
		Session1End:   req.Session1End,
		Session2Start: req.Session2Start,
		Session2End:   req.Session2End,
	}
	if err := h.schedulingService.UpdateWorkingHours(c.Request.Context(), hours); err != nil {
		if errors.Is(err, service.ErrInvalidWorkingHours) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to update working hours")
		return
	}
	c.JSON(http.StatusOK, hours)
}

// GetCandidateSlots handles GET /admin/coaches/:id/slots for the
// manual-scheduling dialog.
func (h *SchedulingHandler) GetCandidateSlots(c *gin.Context) {
	coachID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid coach ID")
		return
	}

	slots, err := h.schedulingService.CandidateSlots(c.Request.Context(), coachID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCoachNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotCoachRole):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to list candidate slots")
		}
		return
	}
	if slots == nil {
		slots = []time.Time{}
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// ScheduleManual handles POST /admin/appointments. A 409 means the slot
// was booked since the candidate list was fetched; the operator should
// re-fetch and pick another.
func (h *SchedulingHandler) ScheduleManual(c *gin.Context) {
	var req ManualScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	customerID, err := primitive.ObjectIDFromHex(req.CustomerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid customer ID")
		return
	}
	coachID, err := primitive.ObjectIDFromHex(req.CoachID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid coach ID")
		return
	}

	appointment, err := h.schedulingService.ScheduleManual(c.Request.Context(), customerID, coachID, req.Date)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSlotTaken):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrCustomerNotFound), errors.Is(err, service.ErrCoachNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotCustomerRole), errors.Is(err, service.ErrNotCoachRole):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create appointment")
		}
		return
	}

	c.JSON(http.StatusCreated, MapAppointmentToResponse(appointment))
}
