package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/domain"
	"github.com/azizhamoud35/namatclinic3/internal/repository"
	"github.com/azizhamoud35/namatclinic3/internal/scheduling"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrAvailabilityNotFound = errors.New("availability not found")
	ErrInvalidDateRange     = errors.New("availability end date must not precede start date")
	ErrOverlappingWindow    = errors.New("availability overlaps an existing pending or approved window")
	ErrInvalidDaySelection  = errors.New("invalid weekday or session in day selection")
	ErrNotPending           = errors.New("availability is not pending review")
)

// --- Service Interface ---
type AvailabilityService interface {
	CreateAvailability(ctx context.Context, coachID primitive.ObjectID, startDate, endDate time.Time, selectedDays map[string][]string) (*domain.Availability, error)
	GetCoachAvailabilities(ctx context.Context, coachID primitive.ObjectID) ([]domain.Availability, error)
	GetByStatus(ctx context.Context, status domain.AvailabilityStatus) ([]domain.Availability, error)
	// Approve flips a pending window to approved and runs a synchronous
	// scheduling pass, since approval creates new schedulable supply.
	Approve(ctx context.Context, id primitive.ObjectID) (*domain.Availability, error)
	Reject(ctx context.Context, id primitive.ObjectID) (*domain.Availability, error)
}

// --- Service Implementation ---

// availabilityService implements the AvailabilityService interface.
type availabilityService struct {
	availabilityRepo repository.AvailabilityRepository
	runner           SchedulingRunner
	logger           *zap.Logger
}

// NewAvailabilityService creates a new instance of availabilityService.
func NewAvailabilityService(availabilityRepo repository.AvailabilityRepository, runner SchedulingRunner, logger *zap.Logger) AvailabilityService {
	return &availabilityService{
		availabilityRepo: availabilityRepo,
		runner:           runner,
		logger:           logger,
	}
}

// CreateAvailability validates and stores a new pending window.
func (s *availabilityService) CreateAvailability(ctx context.Context, coachID primitive.ObjectID, startDate, endDate time.Time, selectedDays map[string][]string) (*domain.Availability, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required")
	}
	if endDate.Before(startDate) {
		return nil, ErrInvalidDateRange
	}
	if err := validateDaySelection(selectedDays); err != nil {
		return nil, err
	}

	// A coach's pending/approved windows must not date-overlap.
	overlapping, err := s.availabilityRepo.GetOverlapping(ctx, coachID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, ErrOverlappingWindow
	}

	availability := &domain.Availability{
		CoachID:      coachID,
		StartDate:    startDate,
		EndDate:      endDate,
		SelectedDays: selectedDays,
		Status:       domain.AvailabilityPending,
	}
	id, err := s.availabilityRepo.Create(ctx, availability)
	if err != nil {
		return nil, err
	}
	availability.ID = id
	return availability, nil
}

// GetCoachAvailabilities lists a coach's own windows.
func (s *availabilityService) GetCoachAvailabilities(ctx context.Context, coachID primitive.ObjectID) ([]domain.Availability, error) {
	return s.availabilityRepo.GetByCoachID(ctx, coachID)
}

// GetByStatus lists windows in a workflow state (admin review queue).
func (s *availabilityService) GetByStatus(ctx context.Context, status domain.AvailabilityStatus) ([]domain.Availability, error) {
	return s.availabilityRepo.GetByStatus(ctx, status)
}

// Approve transitions pending -> approved, then kicks the engine.
func (s *availabilityService) Approve(ctx context.Context, id primitive.ObjectID) (*domain.Availability, error) {
	availability, err := s.transition(ctx, id, domain.AvailabilityApproved)
	if err != nil {
		return nil, err
	}

	// Awaited for correctness, but a failed pass does not undo the
	// approval; the next run picks the new supply up.
	if _, err := s.runner.TriggerScheduling(ctx); err != nil {
		s.logger.Warn("scheduling pass after approval failed",
			zap.String("availability", id.Hex()), zap.Error(err))
	}
	return availability, nil
}

// Reject transitions pending -> rejected.
func (s *availabilityService) Reject(ctx context.Context, id primitive.ObjectID) (*domain.Availability, error) {
	return s.transition(ctx, id, domain.AvailabilityRejected)
}

func (s *availabilityService) transition(ctx context.Context, id primitive.ObjectID, status domain.AvailabilityStatus) (*domain.Availability, error) {
	availability, err := s.availabilityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAvailabilityNotFound
		}
		return nil, err
	}
	if availability.Status != domain.AvailabilityPending {
		return nil, ErrNotPending
	}

	if err := s.availabilityRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	availability.Status = status
	return availability, nil
}

// validateDaySelection checks weekday keys (0-6) and session IDs against
// the calendar's known sessions.
func validateDaySelection(selectedDays map[string][]string) error {
	cal := scheduling.DefaultCalendar()
	for day, sessions := range selectedDays {
		weekday, err := strconv.Atoi(day)
		if err != nil || weekday < 0 || weekday > 6 {
			return ErrInvalidDaySelection
		}
		for _, sessionID := range sessions {
			if _, ok := cal.Session(sessionID); !ok {
				return ErrInvalidDaySelection
			}
		}
	}
	return nil
}
