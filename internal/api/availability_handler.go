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

// AvailabilityHandler holds the availability service dependency.
type AvailabilityHandler struct {
	availabilityService service.AvailabilityService
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(availabilityService service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: availabilityService}
}

// --- DTOs ---

// CreateAvailabilityRequest defines the expected JSON for declaring a window.
// SelectedDays maps weekday keys ("0"-"6") to session IDs.
type CreateAvailabilityRequest struct {
	StartDate    time.Time           `json:"startDate" binding:"required"`
	EndDate      time.Time           `json:"endDate" binding:"required"`
	SelectedDays map[string][]string `json:"selectedDays" binding:"required"`
}

// AvailabilityResponse is the DTO for returning a window.
type AvailabilityResponse struct {
	ID           string              `json:"id"`
	CoachID      string              `json:"coachId"`
	StartDate    time.Time           `json:"startDate"`
	EndDate      time.Time           `json:"endDate"`
	SelectedDays map[string][]string `json:"selectedDays"`
	Status       string              `json:"status"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// MapAvailabilityToResponse converts a domain.Availability to its DTO.
func MapAvailabilityToResponse(a *domain.Availability) AvailabilityResponse {
	if a == nil {
		return AvailabilityResponse{}
	}
	return AvailabilityResponse{
		ID:           a.ID.Hex(),
		CoachID:      a.CoachID.Hex(),
		StartDate:    a.StartDate,
		EndDate:      a.EndDate,
		SelectedDays: a.SelectedDays,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// MapAvailabilitiesToResponse converts a slice of windows to DTOs.
func MapAvailabilitiesToResponse(availabilities []domain.Availability) []AvailabilityResponse {
	responses := make([]AvailabilityResponse, len(availabilities))
	for i := range availabilities {
		responses[i] = MapAvailabilityToResponse(&availabilities[i])
	}
	return responses
}

// --- Handler Methods ---

// CreateAvailability handles POST /coach/availabilities.
func (h *AvailabilityHandler) CreateAvailability(c *gin.Context) {
	coachID, ok := objectIDFromContext(c)
	if !ok {
		return
	}

	var req CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	availability, err := h.availabilityService.CreateAvailability(c.Request.Context(), coachID, req.StartDate, req.EndDate, req.SelectedDays)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDateRange), errors.Is(err, service.ErrInvalidDaySelection):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrOverlappingWindow):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create availability")
		}
		return
	}

	c.JSON(http.StatusCreated, MapAvailabilityToResponse(availability))
}

// GetOwnAvailabilities handles GET /coach/availabilities.
func (h *AvailabilityHandler) GetOwnAvailabilities(c *gin.Context) {
	coachID, ok := objectIDFromContext(c)
	if !ok {
		return
	}

	availabilities, err := h.availabilityService.GetCoachAvailabilities(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list availabilities")
		return
	}
	c.JSON(http.StatusOK, MapAvailabilitiesToResponse(availabilities))
}

// ListByStatus handles GET /admin/availabilities?status=pending.
func (h *AvailabilityHandler) ListByStatus(c *gin.Context) {
	status := domain.AvailabilityStatus(c.DefaultQuery("status", string(domain.AvailabilityPending)))
	switch status {
	case domain.AvailabilityPending, domain.AvailabilityApproved, domain.AvailabilityRejected:
	default:
		abortWithError(c, http.StatusBadRequest, "invalid status filter")
		return
	}

	availabilities, err := h.availabilityService.GetByStatus(c.Request.Context(), status)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list availabilities")
		return
	}
	c.JSON(http.StatusOK, MapAvailabilitiesToResponse(availabilities))
}

// Approve handles POST /admin/availabilities/:id/approve.
func (h *AvailabilityHandler) Approve(c *gin.Context) {
	h.review(c, domain.AvailabilityApproved)
}

// Reject handles POST /admin/availabilities/:id/reject.
func (h *AvailabilityHandler) Reject(c *gin.Context) {
	h.review(c, domain.AvailabilityRejected)
}

func (h *AvailabilityHandler) review(c *gin.Context, status domain.AvailabilityStatus) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid availability ID")
		return
	}

	var availability *domain.Availability
	if status == domain.AvailabilityApproved {
		availability, err = h.availabilityService.Approve(c.Request.Context(), id)
	} else {
		availability, err = h.availabilityService.Reject(c.Request.Context(), id)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAvailabilityNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotPending):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update availability")
		}
		return
	}

	c.JSON(http.StatusOK, MapAvailabilityToResponse(availability))
}

// objectIDFromContext resolves the authenticated user's ID as an ObjectID.
func objectIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Malformed user ID in token")
		return primitive.NilObjectID, false
	}
	return id, true
}
